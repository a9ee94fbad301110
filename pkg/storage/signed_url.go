package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	errTokenFormat    = errors.New("malformed download token")
	errTokenSignature = errors.New("download token signature mismatch")
	errTokenExpired   = errors.New("download token expired")
)

// SignedURLSigner mints and checks the download tokens embedded in export
// URLs. The SPA opens downloads in a new tab, so the grant has to live in the
// URL itself rather than in the session cookie.
//
// Token layout: jobID.expiryUnix.base64(path).base64(hmac).
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate returns a signed token binding the job to its stored file.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, errors.New("jobID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}

	expiresAt := time.Now().Add(s.ttl)
	fields := []string{
		jobID,
		strconv.FormatInt(expiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(relPath)),
	}
	fields = append(fields, s.sign(fields))
	return strings.Join(fields, "."), expiresAt, nil
}

// Parse validates a token and returns the job id, file path and expiry.
// allowExpired skips the expiry check; the cleanup sweep uses it to resolve
// files for jobs whose grant has already lapsed.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (string, string, time.Time, error) {
	fields := strings.Split(token, ".")
	if len(fields) != 4 {
		return "", "", time.Time{}, errTokenFormat
	}

	if !hmac.Equal([]byte(s.sign(fields[:3])), []byte(fields[3])) {
		return "", "", time.Time{}, errTokenSignature
	}

	expUnix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", "", time.Time{}, errTokenFormat
	}
	expiresAt := time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, errTokenExpired
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(fields[2])
	if err != nil {
		return "", "", time.Time{}, errTokenFormat
	}
	return fields[0], string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(fields []string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(strings.Join(fields, ".")))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
