// Package identity is a minimal client-credentials token issuer and the
// matching bearer-token verifier used by services that gate operations on a
// scope.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidClient = errors.New("unknown client or bad secret")
	ErrInvalidScope  = errors.New("scope not allowed for client")
	ErrInvalidToken  = errors.New("invalid token")
)

// Client is a registered machine client allowed to exchange its credentials
// for an access token.
type Client struct {
	ID     string
	Secret string
	Scopes []string
}

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type Issuer struct {
	issuer  string
	secret  []byte
	ttl     time.Duration
	clients map[string]Client
}

func NewIssuer(issuerURL string, secret []byte, ttl time.Duration, clients []Client) *Issuer {
	byID := make(map[string]Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	return &Issuer{
		issuer:  issuerURL,
		secret:  secret,
		ttl:     ttl,
		clients: byID,
	}
}

// Token performs the client-credentials exchange: validates the client id,
// secret and requested scope, and signs an HS256 access token.
func (i *Issuer) Token(clientID, clientSecret, scope string) (string, time.Duration, error) {
	client, ok := i.clients[clientID]
	if !ok || client.Secret != clientSecret {
		return "", 0, ErrInvalidClient
	}

	if !scopeAllowed(client.Scopes, scope) {
		return "", 0, ErrInvalidScope
	}

	now := time.Now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, i.ttl, nil
}

func scopeAllowed(allowed []string, scope string) bool {
	for _, s := range allowed {
		if s == scope {
			return true
		}
	}
	return false
}

// Verifier validates bearer tokens issued with the shared secret and checks
// that they carry the required scope.
type Verifier struct {
	secret []byte
	scope  string
}

func NewVerifier(secret []byte, requiredScope string) *Verifier {
	return &Verifier{secret: secret, scope: requiredScope}
}

func (v *Verifier) Verify(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if v.scope != "" && claims.Scope != v.scope {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
