package wire

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
)

func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes err as a structured error body. The apierr kind picks
// the status code; anything without a kind becomes a 500 with a generic
// message so internals do not leak to callers.
func RespondError(w http.ResponseWriter, err error) {
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		ae = apierr.New(apierr.KindInternal, "internal error")
	}
	RespondJSON(w, apierr.HTTPStatus(ae.Kind), ErrorResponse{
		Error: ae.Message,
		Code:  string(ae.Kind),
	})
}

// DecodeError turns a non-2xx response into an *apierr.Error, preferring the
// wire code from the body over the bare status code.
func DecodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Code != "" {
		return apierr.New(apierr.Kind(er.Code), "%s", er.Error)
	}
	return apierr.New(apierr.FromHTTPStatus(resp.StatusCode),
		"unexpected status %d: %s", resp.StatusCode, string(body))
}
