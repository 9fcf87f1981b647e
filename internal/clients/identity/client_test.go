package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	coreidentity "github.com/amunra1102/grpc-asp-demo/internal/identity"
	"github.com/amunra1102/grpc-asp-demo/internal/identity/httpapi"
	"github.com/amunra1102/grpc-asp-demo/internal/platform/logger"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityServer(t *testing.T) *httptest.Server {
	t.Helper()

	issuer := coreidentity.NewIssuer("http://localhost:5005", []byte("signing-secret"), time.Hour, []coreidentity.Client{
		{ID: "ShoppingCartClient", Secret: "secret", Scopes: []string{"ShoppingCartAPI"}},
	})

	r := chi.NewRouter()
	httpapi.NewHandler(issuer, "http://localhost:5005", logger.NewNop()).Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscoverThenExchange(t *testing.T) {
	srv := newIdentityServer(t)
	client := NewClient()
	ctx := context.Background()

	doc, err := client.Discover(ctx, srv.URL)
	require.NoError(t, err)
	require.NotEmpty(t, doc.TokenEndpoint)

	// The advertised endpoint points at the configured issuer URL; the test
	// server lives elsewhere, so rewrite the host part only.
	tokenEndpoint := srv.URL + "/connect/token"
	token, err := client.ClientCredentialsToken(ctx, tokenEndpoint, "ShoppingCartClient", "secret", "ShoppingCartAPI")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	verifier := coreidentity.NewVerifier([]byte("signing-secret"), "ShoppingCartAPI")
	_, err = verifier.Verify(token)
	assert.NoError(t, err)
}

func TestDiscover_TrailingSlash(t *testing.T) {
	srv := newIdentityServer(t)
	client := NewClient()

	doc, err := client.Discover(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.TokenEndpoint)
}

func TestDiscover_EmptyTokenEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wire.RespondJSON(w, http.StatusOK, wire.DiscoveryDocument{Issuer: "http://x"})
	}))
	t.Cleanup(srv.Close)

	client := NewClient()
	_, err := client.Discover(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "no token endpoint")
}

func TestDiscover_Unreachable(t *testing.T) {
	client := NewClient()

	_, err := client.Discover(context.Background(), "http://127.0.0.1:1")
	assert.True(t, apierr.IsUnavailable(err))
}

func TestClientCredentialsToken_BadSecret(t *testing.T) {
	srv := newIdentityServer(t)
	client := NewClient()

	_, err := client.ClientCredentialsToken(context.Background(),
		srv.URL+"/connect/token", "ShoppingCartClient", "wrong", "ShoppingCartAPI")
	require.Error(t, err)
	assert.Equal(t, apierr.KindUnauthenticated, apierr.KindOf(err))
}
