package notification

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisbric/leadping/internal/audit"
	"github.com/wisbric/leadping/internal/auth"
	"github.com/wisbric/leadping/internal/httpserver"
)

// Handler provides HTTP handlers for the notification settings API.
type Handler struct {
	logger  *slog.Logger
	audit   *audit.Writer
	service *Service
}

// NewHandler creates a settings Handler.
func NewHandler(logger *slog.Logger, auditWriter *audit.Writer, service *Service) *Handler {
	return &Handler{logger: logger, audit: auditWriter, service: service}
}

// Routes returns a chi.Router with settings routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleGet)
	r.Put("/", h.handleUpdate)
	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	resp, err := h.service.Settings(r.Context(), id.AccountID)
	if err != nil {
		h.logger.Error("getting notification settings", "error", err, "account_id", id.AccountID)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to get settings")
		return
	}

	httpserver.Respond(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	var req UpdateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Update(r.Context(), id.AccountID, req)
	if err != nil {
		h.logger.Error("updating notification settings", "error", err, "account_id", id.AccountID)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to save settings")
		return
	}

	if h.audit != nil {
		detail, _ := json.Marshal(map[string]string{"chat_id": resp.Phone})
		h.audit.LogFromRequest(r, "update", "notification_config", detail)
	}

	httpserver.Respond(w, http.StatusOK, resp)
}
