package repository

import "errors"

// ErrDuplicate is returned when a unique key (user email) already exists.
var ErrDuplicate = errors.New("duplicate record")
