package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind separates the credentials that share one signing secret. It is
// carried in the "typ" claim.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
	KindStream  TokenKind = "stream"
)

const issuer = "laneboard"

// ErrInvalidToken is returned when a JWT cannot be parsed, has expired, or is
// of the wrong kind.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// UserClaims is the payload of access and refresh tokens. The subject is the
// user ID.
type UserClaims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"typ"`
}

// IssueAccessToken signs a short-lived API credential for userID.
func IssueAccessToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	return issueUserToken(secret, userID, KindAccess, ttl)
}

// IssueRefreshToken signs a token that can only be exchanged for a new
// access token.
func IssueRefreshToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	return issueUserToken(secret, userID, KindRefresh, ttl)
}

func issueUserToken(secret string, userID uuid.UUID, kind TokenKind, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.issueUserToken: %w", err)
	}
	return signed, nil
}

// ParseUserToken verifies a token of the given kind and returns the user it
// was issued to.
func ParseUserToken(secret, token string, kind TokenKind) (uuid.UUID, error) {
	claims := &UserClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, hmacKey([]byte(secret)),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.Kind != kind {
		return uuid.Nil, fmt.Errorf("auth.ParseUserToken: %w", ErrInvalidToken)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("auth.ParseUserToken: %w", ErrInvalidToken)
	}
	return userID, nil
}

func hmacKey(secret []byte) jwt.Keyfunc {
	return func(*jwt.Token) (any, error) {
		return secret, nil
	}
}
