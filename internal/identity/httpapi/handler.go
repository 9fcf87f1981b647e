package httpapi

import (
	"errors"
	"net/http"

	"github.com/amunra1102/grpc-asp-demo/internal/identity"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes the token-gate surface: an OIDC-style discovery document
// and a client-credentials token endpoint.
type Handler struct {
	issuer    *identity.Issuer
	issuerURL string
	log       *zap.SugaredLogger
}

func NewHandler(issuer *identity.Issuer, issuerURL string, log *zap.SugaredLogger) *Handler {
	return &Handler{issuer: issuer, issuerURL: issuerURL, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/.well-known/openid-configuration", h.Discovery)
	r.Post("/connect/token", h.Token)
}

func (h *Handler) Discovery(w http.ResponseWriter, r *http.Request) {
	wire.RespondJSON(w, http.StatusOK, wire.DiscoveryDocument{
		Issuer:        h.issuerURL,
		TokenEndpoint: h.issuerURL + "/connect/token",
	})
}

// Token implements the client_credentials grant. Errors follow the OAuth
// error body shape so off-the-shelf clients can read them.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	if r.PostForm.Get("grant_type") != "client_credentials" {
		oauthError(w, http.StatusBadRequest, "unsupported_grant_type")
		return
	}

	clientID := r.PostForm.Get("client_id")
	clientSecret := r.PostForm.Get("client_secret")
	scope := r.PostForm.Get("scope")

	token, ttl, err := h.issuer.Token(clientID, clientSecret, scope)
	if err != nil {
		h.log.Warnw("token exchange rejected", "client", clientID, "err", err)
		switch {
		case errors.Is(err, identity.ErrInvalidClient):
			oauthError(w, http.StatusUnauthorized, "invalid_client")
		case errors.Is(err, identity.ErrInvalidScope):
			oauthError(w, http.StatusBadRequest, "invalid_scope")
		default:
			oauthError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}

	wire.RespondJSON(w, http.StatusOK, wire.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}

func oauthError(w http.ResponseWriter, status int, code string) {
	wire.RespondJSON(w, status, map[string]string{"error": code})
}
