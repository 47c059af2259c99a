// Package tenant encodes organisation ids into the opaque tokens carried by
// public intake links.
//
// A token is base64url("org=<id>") without padding. It identifies a tenant;
// it does not authorise anything, and anyone holding a link can submit a
// case for that organisation.
package tenant

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const prefix = "org="

// ErrInvalidToken is returned for tokens that do not decode to org=<id>.
var ErrInvalidToken = errors.New("invalid tenant token")

// Encode returns the intake token for organisationID.
func Encode(organisationID int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(prefix + strconv.FormatInt(organisationID, 10)))
}

// Decode returns the organisation id carried by token. Both the URL and the
// standard alphabet are accepted, with or without padding.
func Decode(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrInvalidToken
	}

	raw, err := decodeAny(token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	value := string(raw)
	if !strings.HasPrefix(value, prefix) {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(value, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Link appends the token for organisationID to the path of baseURL, so the
// page path ends in /<token>. Any query string on baseURL is kept.
func Link(baseURL string, organisationID int64) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse intake base url: %w", err)
	}
	return u.JoinPath(Encode(organisationID)).String(), nil
}

func decodeAny(token string) ([]byte, error) {
	trimmed := strings.TrimRight(token, "=")
	if raw, err := base64.RawURLEncoding.DecodeString(trimmed); err == nil {
		return raw, nil
	}
	return base64.RawStdEncoding.DecodeString(trimmed)
}
