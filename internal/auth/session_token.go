package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Token format: ps_{session id}_{secret}
// Example: ps_01hv3k2q9c7a5f3d2e1b9c7a5f_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	TokenPrefix       = "ps"
	TokenSecretLen    = 64 // hex encoded 32 bytes
	sessionCookieName = "pictora_session"
)

var (
	// ErrInvalidTokenFormat indicates the session token is malformed.
	ErrInvalidTokenFormat = errors.New("invalid session token format")
	tokenFormatRegex      = regexp.MustCompile(`^ps_([0-9a-z]{26})_([a-f0-9]{64})$`)
)

// SessionCookieName is the cookie that carries the session token for browsers.
func SessionCookieName() string {
	return sessionCookieName
}

// GeneratedToken contains a newly minted session token.
type GeneratedToken struct {
	Plaintext string // Returned to the client once
	Hash      string // Storage key digest
}

// GenerateSessionToken mints a token for the given session id.
// sessionID must be a lowercase ULID string.
func GenerateSessionToken(sessionID string) (*GeneratedToken, error) {
	secretBytes := make([]byte, TokenSecretLen/2)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := fmt.Sprintf("%s_%s_%s", TokenPrefix, sessionID, hex.EncodeToString(secretBytes))
	if !tokenFormatRegex.MatchString(plaintext) {
		return nil, ErrInvalidTokenFormat
	}

	return &GeneratedToken{
		Plaintext: plaintext,
		Hash:      QuickHash(plaintext),
	}, nil
}

// ParsedToken contains the parsed parts of a session token.
type ParsedToken struct {
	SessionID string
	Secret    string
}

// ParseSessionToken extracts the components from a plaintext token.
func ParseSessionToken(token string) (*ParsedToken, error) {
	matches := tokenFormatRegex.FindStringSubmatch(token)
	if matches == nil {
		return nil, ErrInvalidTokenFormat
	}

	return &ParsedToken{
		SessionID: matches[1],
		Secret:    matches[2],
	}, nil
}

// ValidateTokenFormat checks if the token matches the expected format.
func ValidateTokenFormat(token string) bool {
	return tokenFormatRegex.MatchString(token)
}
