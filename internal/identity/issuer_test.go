package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClients = []Client{
	{ID: "ShoppingCartClient", Secret: "secret", Scopes: []string{"ShoppingCartAPI"}},
}

func newTestIssuer(secret string, ttl time.Duration) *Issuer {
	return NewIssuer("http://localhost:5005", []byte(secret), ttl, testClients)
}

func TestToken_IssuesVerifiableToken(t *testing.T) {
	issuer := newTestIssuer("signing-secret", time.Hour)

	token, ttl, err := issuer.Token("ShoppingCartClient", "secret", "ShoppingCartAPI")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, time.Hour, ttl)

	verifier := NewVerifier([]byte("signing-secret"), "ShoppingCartAPI")
	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ShoppingCartClient", claims.Subject)
	assert.Equal(t, "ShoppingCartAPI", claims.Scope)
	assert.Equal(t, "http://localhost:5005", claims.Issuer)
}

func TestToken_UnknownClient(t *testing.T) {
	issuer := newTestIssuer("signing-secret", time.Hour)

	_, _, err := issuer.Token("nobody", "secret", "ShoppingCartAPI")
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestToken_WrongSecret(t *testing.T) {
	issuer := newTestIssuer("signing-secret", time.Hour)

	_, _, err := issuer.Token("ShoppingCartClient", "wrong", "ShoppingCartAPI")
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestToken_DisallowedScope(t *testing.T) {
	issuer := newTestIssuer("signing-secret", time.Hour)

	_, _, err := issuer.Token("ShoppingCartClient", "secret", "AdminAPI")
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := newTestIssuer("signing-secret", time.Hour)
	token, _, err := issuer.Token("ShoppingCartClient", "secret", "ShoppingCartAPI")
	require.NoError(t, err)

	verifier := NewVerifier([]byte("other-secret"), "ShoppingCartAPI")
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongScope(t *testing.T) {
	issuer := newTestIssuer("signing-secret", time.Hour)
	token, _, err := issuer.Token("ShoppingCartClient", "secret", "ShoppingCartAPI")
	require.NoError(t, err)

	verifier := NewVerifier([]byte("signing-secret"), "OtherAPI")
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_ExpiredToken(t *testing.T) {
	issuer := newTestIssuer("signing-secret", -time.Minute)
	token, _, err := issuer.Token("ShoppingCartClient", "secret", "ShoppingCartAPI")
	require.NoError(t, err)

	verifier := NewVerifier([]byte("signing-secret"), "ShoppingCartAPI")
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	verifier := NewVerifier([]byte("signing-secret"), "ShoppingCartAPI")

	_, err := verifier.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
