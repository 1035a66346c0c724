package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const streamAudience = "board-stream"

// StreamClaims binds a signed stream token to one stream name (a board's
// global ID) carried in the subject.
type StreamClaims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"typ"`
}

// StreamSigner issues and verifies signed stream tokens. The tokens are
// stateless: verification recomputes the HMAC, nothing is stored.
type StreamSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewStreamSigner creates a signer. A zero ttl issues tokens without expiry.
func NewStreamSigner(secret string, ttl time.Duration) *StreamSigner {
	return &StreamSigner{secret: []byte(secret), ttl: ttl}
}

// Sign returns a tamper-evident token naming stream.
func (s *StreamSigner) Sign(stream string) (string, error) {
	now := time.Now()
	claims := StreamClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  stream,
			Audience: jwt.ClaimStrings{streamAudience},
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   issuer,
		},
		Kind: KindStream,
	}
	if s.ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth.StreamSigner.Sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and returns the stream name the token was
// issued for. Access and refresh tokens signed with the same secret are
// rejected by the type and audience checks.
func (s *StreamSigner) Verify(token string) (string, error) {
	claims := &StreamClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, hmacKey(s.secret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(streamAudience),
		jwt.WithIssuer(issuer),
	)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("auth.StreamSigner.Verify: %w", ErrInvalidToken)
	}
	if claims.Kind != KindStream || claims.Subject == "" {
		return "", fmt.Errorf("auth.StreamSigner.Verify: %w", ErrInvalidToken)
	}

	return claims.Subject, nil
}
