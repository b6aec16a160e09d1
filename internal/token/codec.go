// Package token encodes and decodes signed bearer tokens. It is a pure
// transform: it knows nothing about identities or stores.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SchemaVersion identifies the claim layout. Tokens carrying any other
// schema are rejected as malformed.
const SchemaVersion = 1

var (
	ErrInvalid   = errors.New("invalid token")
	ErrMalformed = fmt.Errorf("%w: malformed", ErrInvalid)
	ErrSignature = fmt.Errorf("%w: signature mismatch", ErrInvalid)
	ErrExpired   = fmt.Errorf("%w: expired", ErrInvalid)
)

// Claims is the fixed claim record embedded in every token.
type Claims struct {
	Schema       int    `json:"sv"`
	TokenVersion int64  `json:"tv"`
	Name         string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodec returns a codec signing with key. A zero ttl issues tokens without an exp claim.
func NewCodec(key []byte, ttl time.Duration) (*Codec, error) {
	if len(key) == 0 {
		return nil, errors.New("token: signing key is empty")
	}
	if ttl < 0 {
		return nil, errors.New("token: ttl must not be negative")
	}
	return &Codec{key: key, ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads the current time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// NewClaims builds the claim record for subject at the current time.
func (c *Codec) NewClaims(subject string, tokenVersion int64, name string) Claims {
	issuedAt := c.now()
	claims := Claims{
		Schema:       SchemaVersion,
		TokenVersion: tokenVersion,
		Name:         name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(c.ttl))
	}
	return claims
}

func (c *Codec) Encode(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.key)
}

// Decode verifies tokenString and returns its claims. It never returns a
// partially populated result: any failure yields nil claims and an error
// wrapping ErrInvalid.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if !token.Valid {
		return nil, ErrInvalid
	}
	if claims.Schema != SchemaVersion || claims.Subject == "" {
		return nil, ErrMalformed
	}

	return claims, nil
}
