package httpapi

import (
	"errors"
	"net/http"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	"github.com/amunra1102/grpc-asp-demo/internal/discount/store"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	store *store.MemoryStore
	log   *zap.SugaredLogger
}

func NewHandler(store *store.MemoryStore, log *zap.SugaredLogger) *Handler {
	return &Handler{store: store, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/v1/discounts/{code}", h.GetDiscount)
}

func (h *Handler) GetDiscount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	discount, err := h.store.Get(code)
	if err != nil {
		if errors.Is(err, store.ErrDiscountNotFound) {
			wire.RespondError(w, apierr.NotFound("discount with code = %s is not found", code))
			return
		}
		wire.RespondError(w, err)
		return
	}

	h.log.Infow("discount resolved", "code", discount.Code, "amount", discount.Amount)
	wire.RespondJSON(w, http.StatusOK, wire.Discount{
		DiscountID: discount.ID,
		Code:       discount.Code,
		Amount:     discount.Amount,
	})
}
