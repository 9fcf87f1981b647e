package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/cache"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/domain"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/repository"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/service"
	"github.com/amunra1102/grpc-asp-demo/internal/identity"
	"github.com/amunra1102/grpc-asp-demo/internal/platform/logger"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-signing-secret"
	testScope  = "ShoppingCartAPI"
)

type stubRepository struct {
	carts    map[string]*domain.Cart
	getCalls int
}

func (s *stubRepository) GetCart(_ context.Context, userName string) (*domain.Cart, error) {
	s.getCalls++
	cart, ok := s.carts[userName]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (s *stubRepository) CreateCart(_ context.Context, userName string) (*domain.Cart, error) {
	if _, ok := s.carts[userName]; ok {
		return nil, repository.ErrCartAlreadyExists
	}
	cart := &domain.Cart{UserName: userName, Items: []domain.CartItem{}, Version: 1}
	s.carts[userName] = cart
	return cart, nil
}

func (s *stubRepository) PersistCart(_ context.Context, cart *domain.Cart) (int64, error) {
	if _, ok := s.carts[cart.UserName]; !ok {
		return 0, repository.ErrCartNotFound
	}
	saved := *cart
	saved.Items = append([]domain.CartItem(nil), cart.Items...)
	s.carts[cart.UserName] = &saved
	return 1, nil
}

func (s *stubRepository) DeleteCart(_ context.Context, userName string) error {
	delete(s.carts, userName)
	return nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*domain.Cart, error) { return nil, cache.ErrCacheMiss }
func (nopCache) Set(context.Context, string, *domain.Cart) error   { return nil }
func (nopCache) Delete(context.Context, string) error              { return nil }

type stubResolver struct{}

func (stubResolver) GetDiscount(_ context.Context, code string) (*service.Discount, error) {
	if code == "CODE_100" {
		return &service.Discount{Code: code, Amount: 100}, nil
	}
	return nil, apierr.NotFound("discount with code = %s is not found", code)
}

func newTestServer(t *testing.T, repo *stubRepository) *httptest.Server {
	t.Helper()

	svc := service.NewCartService(repo, nopCache{}, stubResolver{}, logger.NewNop())
	verifier := identity.NewVerifier([]byte(testSecret), testScope)
	h := NewHandler(svc, verifier, logger.NewNop())

	r := chi.NewRouter()
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func issueToken(t *testing.T) string {
	t.Helper()
	issuer := identity.NewIssuer("http://localhost:5005", []byte(testSecret), time.Hour, []identity.Client{
		{ID: "ShoppingCartClient", Secret: "secret", Scopes: []string{testScope}},
	})
	token, _, err := issuer.Token("ShoppingCartClient", "secret", testScope)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, method, url, token string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGetCart_RequiresToken(t *testing.T) {
	repo := &stubRepository{carts: map[string]*domain.Cart{"swn": {UserName: "swn", Version: 1}}}
	srv := newTestServer(t, repo)

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1/carts/swn", "", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	// Rejected at the auth boundary, before the store is consulted.
	assert.Equal(t, 0, repo.getCalls)
}

func TestGetCart_RejectsForgedToken(t *testing.T) {
	repo := &stubRepository{carts: map[string]*domain.Cart{"swn": {UserName: "swn", Version: 1}}}
	srv := newTestServer(t, repo)

	forged := identity.NewIssuer("http://localhost:5005", []byte("wrong-secret"), time.Hour, []identity.Client{
		{ID: "ShoppingCartClient", Secret: "secret", Scopes: []string{testScope}},
	})
	token, _, err := forged.Token("ShoppingCartClient", "secret", testScope)
	require.NoError(t, err)

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1/carts/swn", token, nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, repo.getCalls)
}

func TestGetCart_WithToken(t *testing.T) {
	repo := &stubRepository{carts: map[string]*domain.Cart{"swn": {
		UserName: "swn",
		Items:    []domain.CartItem{{ProductID: 1, ProductName: "Mouse", Price: 50, Quantity: 2}},
		Version:  1,
	}}}
	srv := newTestServer(t, repo)

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1/carts/swn", issueToken(t), nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cart wire.Cart
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	assert.Equal(t, "swn", cart.UserName)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int32(2), cart.Items[0].Quantity)
}

func TestGetCart_NotFoundStatus(t *testing.T) {
	srv := newTestServer(t, &stubRepository{carts: map[string]*domain.Cart{}})

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1/carts/ghost", issueToken(t), nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body wire.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(apierr.KindNotFound), body.Code)
}

func TestCreateCart_Lifecycle(t *testing.T) {
	srv := newTestServer(t, &stubRepository{carts: map[string]*domain.Cart{}})
	token := issueToken(t)
	body, _ := json.Marshal(wire.Cart{UserName: "swn"})

	resp := doRequest(t, http.MethodPost, srv.URL+"/v1/carts", token, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, srv.URL+"/v1/carts", token, body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var errBody wire.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Equal(t, string(apierr.KindAlreadyExists), errBody.Code)
}

func TestCreateCart_RequiresToken(t *testing.T) {
	repo := &stubRepository{carts: map[string]*domain.Cart{}}
	srv := newTestServer(t, repo)
	body, _ := json.Marshal(wire.Cart{UserName: "swn"})

	resp := doRequest(t, http.MethodPost, srv.URL+"/v1/carts", "", body)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, repo.carts)
}

func TestAddItems_StreamIsAnonymous(t *testing.T) {
	repo := &stubRepository{carts: map[string]*domain.Cart{"swn": {UserName: "swn", Version: 1}}}
	srv := newTestServer(t, repo)

	var stream bytes.Buffer
	enc := json.NewEncoder(&stream)
	require.NoError(t, enc.Encode(wire.AddItemRequest{
		UserName:     "swn",
		DiscountCode: "CODE_100",
		NewCartItem:  wire.CartItem{ProductID: 5, ProductName: "Keyboard", Price: 650, Color: "Black", Quantity: 1},
	}))
	require.NoError(t, enc.Encode(wire.AddItemRequest{
		UserName:     "swn",
		DiscountCode: "CODE_100",
		NewCartItem:  wire.CartItem{ProductID: 5, ProductName: "Keyboard", Price: 650, Color: "Black", Quantity: 1},
	}))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/carts/items", &stream)
	require.NoError(t, err)
	req.Header.Set("Content-Type", wire.ContentTypeNDJSON)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result wire.AddItemsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, int64(2), result.InsertCount)

	stored := repo.carts["swn"]
	require.Len(t, stored.Items, 1)
	assert.Equal(t, float64(550), stored.Items[0].Price)
	assert.Equal(t, int32(2), stored.Items[0].Quantity)
}

func TestAddItems_UnknownDiscountFailsSession(t *testing.T) {
	repo := &stubRepository{carts: map[string]*domain.Cart{"swn": {UserName: "swn", Version: 1}}}
	srv := newTestServer(t, repo)

	var stream bytes.Buffer
	require.NoError(t, json.NewEncoder(&stream).Encode(wire.AddItemRequest{
		UserName:     "swn",
		DiscountCode: "NO_SUCH_CODE",
		NewCartItem:  wire.CartItem{ProductID: 5, ProductName: "Keyboard", Price: 650, Quantity: 1},
	}))

	resp := doRequest(t, http.MethodPost, srv.URL+"/v1/carts/items", "", stream.Bytes())

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, repo.carts["swn"].Items)
}

func TestAddItems_MalformedElement(t *testing.T) {
	srv := newTestServer(t, &stubRepository{carts: map[string]*domain.Cart{}})

	resp := doRequest(t, http.MethodPost, srv.URL+"/v1/carts/items", "", []byte("{not json\n"))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveItem_Anonymous(t *testing.T) {
	repo := &stubRepository{carts: map[string]*domain.Cart{"swn": {
		UserName: "swn",
		Items:    []domain.CartItem{{ProductID: 7, ProductName: "Monitor", Price: 300, Quantity: 1}},
		Version:  1,
	}}}
	srv := newTestServer(t, repo)

	resp := doRequest(t, http.MethodDelete, srv.URL+"/v1/carts/swn/items/7", "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result wire.RemoveItemResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Empty(t, repo.carts["swn"].Items)
}

func TestRemoveItem_MissingItem(t *testing.T) {
	repo := &stubRepository{carts: map[string]*domain.Cart{"swn": {UserName: "swn", Version: 1}}}
	srv := newTestServer(t, repo)

	resp := doRequest(t, http.MethodDelete, srv.URL+"/v1/carts/swn/items/99", "", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRemoveItem_BadProductID(t *testing.T) {
	srv := newTestServer(t, &stubRepository{carts: map[string]*domain.Cart{}})

	resp := doRequest(t, http.MethodDelete, srv.URL+"/v1/carts/swn/items/abc", "", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body wire.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, strings.Contains(body.Error, "integer"))
}
