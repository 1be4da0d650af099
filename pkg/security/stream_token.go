package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Scopes a signed token can be minted for
const (
	ScopeStream      = "stream"
	ScopeArchive     = "archive"
	ScopeUnsubscribe = "unsubscribe"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// SignedToken is an HMAC-signed, time-limited credential binding a
// user to a single resource (a video stream, a bulk archive or an
// unsubscribe link). It travels as base64url(payload).base64url(sig)
type SignedToken struct {
	Scope     string `json:"scope"`
	Subject   string `json:"sub"` // Video ID, archive ID or email depending on scope
	UserID    string `json:"uid,omitempty"`
	ExpiresAt int64  `json:"exp"`
}

func Sign(secret []byte, t SignedToken) (string, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)

	return base64.RawURLEncoding.EncodeToString(payload) +
		"." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks the signature and expiry of an encoded token and
// returns its claims. Scope and subject checks are up to the caller
func Verify(secret []byte, encoded string) (*SignedToken, error) {
	parts := strings.Split(encoded, ".")
	if len(parts) != 2 {
		return nil, ErrTokenInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrTokenInvalid
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrTokenInvalid
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)

	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, ErrTokenInvalid
	}

	var t SignedToken
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, ErrTokenInvalid
	}

	if time.Now().Unix() >= t.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return &t, nil
}
