package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("download token is invalid")
	ErrTokenExpired = errors.New("download token has expired")
)

// SignedURLSigner issues HMAC-SHA256 download tokens of the form
// jobID.expiry.base64(path).signature.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate signs a token for relPath belonging to jobID.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("jobID and relPath required")
	}
	if strings.Contains(jobID, ".") {
		return "", time.Time{}, fmt.Errorf("jobID must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{jobID, ts, encodedPath, s.sign(jobID, ts, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse verifies token and returns its job id and path.
func (s *SignedURLSigner) Parse(token string) (jobID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	jobID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(jobID, ts, encodedPath)), []byte(signature)) {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	expiresAt = time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return "", "", expiresAt, ErrTokenExpired
	}
	return jobID, string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(jobID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(jobID + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
