// Package auth identifies the person behind a request.
//
// AUTHENTICATION FLOW:
//  1. The user signs up or logs in with a password, or through GitHub.
//  2. The server issues a signed JWT holding the user's id and username and
//     stores it in an HttpOnly "token" cookie.
//  3. Authenticate middleware validates the cookie on every request and puts
//     a Principal in the request context. Anonymous requests carry none.
//  4. RequireLogin middleware sends anonymous visitors of protected pages to
//     the login page with a "next" parameter.
//
// The token only says who is asking. Whether they may edit a post or comment
// is always decided against the freshly loaded record.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer     = "yatube"
	DefaultTTL = 24 * time.Hour
)

// Principal is the authenticated identity carried in the token.
type Principal struct {
	ID       string
	Username string
}

// TokenService signs and verifies HS256 tokens with a shared secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A non-positive ttl falls back to
// DefaultTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is how long issued tokens stay valid; the cookie uses the same
// lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims stores the user id in "sub" and the username alongside it so pages
// can greet the user without a database lookup.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *TokenService) Issue(p Principal) (string, error) {
	return s.IssueWithTTL(p, s.ttl)
}

// IssueWithTTL signs a token with a custom lifetime. Tests use a negative
// ttl to get an already expired token.
func (s *TokenService) IssueWithTTL(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Parse verifies the signature, algorithm, issuer and expiry of tokenStr and
// returns the principal it carries.
func (s *TokenService) Parse(tokenStr string) (Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, errors.New("auth: token expired")
		}
		return Principal{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Principal{}, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Principal{}, errors.New("auth: token has no subject")
	}

	return Principal{ID: c.Subject, Username: c.Username}, nil
}
