package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	"github.com/amunra1102/grpc-asp-demo/internal/catalog/domain"
	"github.com/amunra1102/grpc-asp-demo/internal/catalog/repository"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	repo repository.RepoInterface
	log  *zap.SugaredLogger
}

func NewHandler(repo repository.RepoInterface, log *zap.SugaredLogger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/v1/products", h.GetAllProducts)
	r.Get("/v1/products/{id}", h.GetProduct)
	r.Post("/v1/products", h.AddProduct)
	r.Post("/v1/products/bulk", h.InsertBulkProducts)
	r.Put("/v1/products/{id}", h.UpdateProduct)
	r.Delete("/v1/products/{id}", h.DeleteProduct)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		wire.RespondError(w, apierr.InvalidArgument("product id must be an integer"))
		return
	}

	product, err := h.repo.GetProduct(r.Context(), id)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	wire.RespondJSON(w, http.StatusOK, wire.ProductToWire(product))
}

// GetAllProducts streams the whole catalog as NDJSON, one product per line,
// ordered by id. The sequence is finite and one-shot.
func (h *Handler) GetAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.GetAllProducts(r.Context())
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	w.Header().Set("Content-Type", wire.ContentTypeNDJSON)
	enc := wire.NewStreamEncoder[wire.Product](w)
	for _, p := range products {
		if err := enc.Send(wire.ProductToWire(p)); err != nil {
			// Client went away mid-stream; nothing sensible to send.
			h.log.Debugw("product stream aborted", "err", err)
			return
		}
	}
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req wire.Product
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		wire.RespondError(w, apierr.InvalidArgument("invalid JSON body"))
		return
	}

	product := wire.ProductFromWire(req)
	inserted, err := h.repo.AddProduct(r.Context(), &product)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.log.Infow("product added", "id", inserted.ID, "name", inserted.Name)
	wire.RespondJSON(w, http.StatusCreated, wire.ProductToWire(inserted))
}

// InsertBulkProducts ingests an NDJSON client stream of products and inserts
// them in one transaction once the stream is exhausted.
func (h *Handler) InsertBulkProducts(w http.ResponseWriter, r *http.Request) {
	dec := wire.NewStreamDecoder[wire.Product](r.Body)

	var products []*domain.Product
	for {
		req, err := dec.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			wire.RespondError(w, apierr.InvalidArgument("malformed stream element: %v", err))
			return
		}
		product := wire.ProductFromWire(req)
		products = append(products, &product)
	}

	count, err := h.repo.InsertBulk(r.Context(), products)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	wire.RespondJSON(w, http.StatusOK, wire.BulkInsertResponse{
		Success:     count > 0,
		InsertCount: count,
	})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		wire.RespondError(w, apierr.InvalidArgument("product id must be an integer"))
		return
	}

	var req wire.Product
	if errDecode := json.NewDecoder(r.Body).Decode(&req); errDecode != nil {
		wire.RespondError(w, apierr.InvalidArgument("invalid JSON body"))
		return
	}

	product := wire.ProductFromWire(req)
	product.ID = id
	updated, err := h.repo.UpdateProduct(r.Context(), &product)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	wire.RespondJSON(w, http.StatusOK, wire.ProductToWire(updated))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		wire.RespondError(w, apierr.InvalidArgument("product id must be an integer"))
		return
	}

	if errDelete := h.repo.DeleteProduct(r.Context(), id); errDelete != nil {
		h.respondRepoError(w, errDelete)
		return
	}

	wire.RespondJSON(w, http.StatusOK, wire.DeleteProductResponse{Success: true})
}

func (h *Handler) respondRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrProductNotFound) {
		wire.RespondError(w, apierr.NotFound("product is not found"))
		return
	}

	h.log.Errorw("catalog request failed", "err", err)
	wire.RespondError(w, err)
}
