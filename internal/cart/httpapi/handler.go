package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/repository"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/service"
	"github.com/amunra1102/grpc-asp-demo/internal/identity"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	service  *service.CartService
	verifier *identity.Verifier
	log      *zap.SugaredLogger
}

func NewHandler(service *service.CartService, verifier *identity.Verifier, log *zap.SugaredLogger) *Handler {
	return &Handler{service: service, verifier: verifier, log: log}
}

// Routes wires each operation through the auth policy table. The auth check
// runs as middleware, before any handler touches the store.
func (h *Handler) Routes(r chi.Router) {
	routes := []struct {
		op      operation
		method  string
		pattern string
		handler http.HandlerFunc
	}{
		{opGetCart, http.MethodGet, "/v1/carts/{username}", h.GetCart},
		{opCreateCart, http.MethodPost, "/v1/carts", h.CreateCart},
		{opAddItems, http.MethodPost, "/v1/carts/items", h.AddItems},
		{opRemoveItem, http.MethodDelete, "/v1/carts/{username}/items/{productID}", h.RemoveItem},
	}

	for _, rt := range routes {
		handler := rt.handler
		if authRequired[rt.op] {
			handler = h.requireAuth(handler)
		}
		r.Method(rt.method, rt.pattern, handler)
	}
}

func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			wire.RespondError(w, apierr.Unauthenticated("missing bearer token"))
			return
		}

		if _, err := h.verifier.Verify(strings.TrimSpace(parts[1])); err != nil {
			wire.RespondError(w, apierr.Unauthenticated("invalid bearer token"))
			return
		}

		next(w, r)
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "username")

	cart, err := h.service.GetCart(r.Context(), userName)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	wire.RespondJSON(w, http.StatusOK, wire.CartToWire(cart))
}

func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req wire.Cart
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		wire.RespondError(w, apierr.InvalidArgument("invalid JSON body"))
		return
	}

	cart, err := h.service.CreateCart(r.Context(), req.UserName)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	wire.RespondJSON(w, http.StatusCreated, wire.CartToWire(cart))
}

// AddItems ingests one session: an NDJSON client stream of add-item elements,
// committed as a whole once the stream is exhausted.
func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.AddItems(r.Context(), &addItemStream{
		dec: wire.NewStreamDecoder[wire.AddItemRequest](r.Body),
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	wire.RespondJSON(w, http.StatusOK, wire.AddItemsResponse{
		Success:     result.Success,
		InsertCount: result.InsertCount,
	})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "username")
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		wire.RespondError(w, apierr.InvalidArgument("product id must be an integer"))
		return
	}

	result, errRemove := h.service.RemoveItem(r.Context(), userName, productID)
	if errRemove != nil {
		h.respondServiceError(w, errRemove)
		return
	}

	wire.RespondJSON(w, http.StatusOK, wire.RemoveItemResponse{Success: result.Success})
}

// addItemStream adapts the NDJSON request body to the service's stream
// contract.
type addItemStream struct {
	dec *wire.StreamDecoder[wire.AddItemRequest]
}

func (s *addItemStream) Recv() (*service.AddItemCommand, error) {
	req, err := s.dec.Recv()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, apierr.InvalidArgument("malformed stream element: %v", err)
	}

	return &service.AddItemCommand{
		UserName:     req.UserName,
		DiscountCode: req.DiscountCode,
		Item:         wire.CartItemFromWire(req.NewCartItem),
	}, nil
}

// respondServiceError translates repository sentinels into wire errors;
// anything already carrying an apierr kind (discount lookups, validation)
// passes through.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		err = apierr.NotFound("cart is not found")
	case errors.Is(err, repository.ErrCartAlreadyExists):
		err = apierr.AlreadyExists("cart already exists")
	case errors.Is(err, repository.ErrCartConflict):
		err = apierr.Conflict("cart was modified concurrently")
	}

	if apierr.KindOf(err) == apierr.KindInternal {
		h.log.Errorw("cart request failed", "err", err)
	}
	wire.RespondError(w, err)
}
