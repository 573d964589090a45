package pricing

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisbric/leadping/internal/httpserver"
)

// Handler serves the public pricing catalog.
type Handler struct{}

// NewHandler creates a pricing Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Routes returns a chi.Router with the pricing routes mounted. The catalog
// is public: no auth.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	return r
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	httpserver.Respond(w, http.StatusOK, map[string]any{
		"tiers":           Tiers(),
		"common_features": CommonFeatures(),
	})
}
