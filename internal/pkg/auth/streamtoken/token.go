package streamtoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// StreamTokenExpiration defines the validity window of a stream token. The token
	// only has to survive the interval between the token request and the WebSocket
	// upgrade, so it is deliberately short.
	StreamTokenExpiration = 2 * time.Minute

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "Rowboat-Dashboard"
)

// GenerateToken creates and signs a new token string based on the provided Payload struct.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses and validates the token string using the provided secretKey.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	return claims, nil
}
