package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// StaffTokenExpiration defines the lifetime of staff tokens (one shift).
	StaffTokenExpiration = 12 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "MenuPoll-Server"
)

var (
	// ErrTokenExpired is returned by ParseToken for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("staff token expired")

	// ErrTokenInvalid is returned by ParseToken for any other rejected token.
	ErrTokenInvalid = errors.New("staff token invalid")

	// ErrMissingStaffID is returned by GenerateToken when the payload names no employee.
	ErrMissingStaffID = errors.New("staff id is required")
)

// GenerateToken signs a staff token for payload. The subject claim mirrors StaffID.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	if payload.StaffID == "" {
		return "", ErrMissingStaffID
	}

	now := time.Now()
	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
		Subject:   payload.StaffID,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString([]byte(secretKey))
}

// ParseToken verifies tokenString against secretKey and returns its payload.
// Failures wrap ErrTokenExpired or ErrTokenInvalid.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	switch {
	case !token.Valid:
		return nil, ErrTokenInvalid
	case claims.Issuer != TokenIssuer:
		return nil, fmt.Errorf("%w: issuer %q", ErrTokenInvalid, claims.Issuer)
	case claims.StaffID == "" || claims.Subject != claims.StaffID:
		return nil, fmt.Errorf("%w: subject does not match staff id", ErrTokenInvalid)
	}

	return claims, nil
}
