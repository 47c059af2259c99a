// Package migrations holds the embedded PostgreSQL schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
