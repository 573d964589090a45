package account

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wisbric/leadping/internal/audit"
	"github.com/wisbric/leadping/internal/auth"
	"github.com/wisbric/leadping/internal/httpserver"
	"github.com/wisbric/leadping/internal/identity"
	"github.com/wisbric/leadping/pkg/mfa"
)

// Handler provides HTTP handlers for the account surface.
type Handler struct {
	logger  *slog.Logger
	audit   *audit.Writer
	service *Service
}

// NewHandler creates an account Handler.
func NewHandler(logger *slog.Logger, auditWriter *audit.Writer, service *Service) *Handler {
	return &Handler{logger: logger, audit: auditWriter, service: service}
}

// Routes returns a chi.Router with the account routes mounted at the API
// group root.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.handleMe)
	r.Put("/account/password", h.handleUpdatePassword)
	r.Delete("/account", h.handleDelete)
	return r
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	profile, err := h.service.Me(r.Context(), id.AccountID)
	if err != nil {
		h.respondError(w, err, "failed to load profile")
		return
	}

	httpserver.Respond(w, http.StatusOK, profile)
}

type updatePasswordRequest struct {
	Password string    `json:"password" validate:"required,min=8,max=128"`
	Proof    mfa.Proof `json:"proof" validate:"required"`
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	var req updatePasswordRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.UpdatePassword(r.Context(), id.AccountID, req.Proof, req.Password); err != nil {
		h.respondError(w, err, "failed to change password")
		return
	}

	if h.audit != nil {
		h.audit.LogFromRequest(r, "update_password", "account", nil)
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "updated"})
}

type deleteAccountRequest struct {
	Proof mfa.Proof `json:"proof" validate:"required"`
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	var req deleteAccountRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.Delete(r.Context(), id.AccountID, req.Proof); err != nil {
		h.respondError(w, err, "failed to delete account")
		return
	}

	if h.audit != nil {
		h.audit.LogFromRequest(r, "delete", "account", nil)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, mfa.ErrInvalidCodeFormat) {
		httpserver.RespondError(w, http.StatusUnprocessableEntity, "invalid_code", mfa.ErrInvalidCodeFormat.Error())
		return
	}

	var pe *identity.Error
	if errors.As(err, &pe) {
		status := pe.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		httpserver.RespondError(w, status, "identity_provider_error", pe.Message)
		return
	}

	h.logger.Error("account operation failed", "error", err)
	httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", fallback)
}
