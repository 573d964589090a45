package mfa

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wisbric/leadping/internal/audit"
	"github.com/wisbric/leadping/internal/auth"
	"github.com/wisbric/leadping/internal/httpserver"
	"github.com/wisbric/leadping/internal/identity"
)

// Handler provides HTTP handlers for MFA factor management and the
// challenge/verify flow.
type Handler struct {
	logger  *slog.Logger
	audit   *audit.Writer
	service *Service
}

// NewHandler creates an MFA Handler.
func NewHandler(logger *slog.Logger, auditWriter *audit.Writer, service *Service) *Handler {
	return &Handler{logger: logger, audit: auditWriter, service: service}
}

// Routes returns a chi.Router with MFA routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/factors", h.handleListFactors)
	r.Post("/factors", h.handleEnroll)
	r.Post("/factors/{factorID}/activate", h.handleActivate)
	r.Delete("/factors/{factorID}", h.handleUnenroll)
	r.Post("/challenge", h.handleChallenge)
	r.Post("/verify", h.handleVerify)
	return r
}

type factorResponse struct {
	ID           string    `json:"id"`
	FriendlyName string    `json:"friendly_name"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handler) handleListFactors(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	factors, err := h.service.ListFactors(r.Context(), id.AccountID)
	if err != nil {
		h.respondProviderError(w, err, "failed to list factors")
		return
	}

	out := make([]factorResponse, 0, len(factors))
	for _, f := range factors {
		out = append(out, factorResponse{ID: f.ID, FriendlyName: f.FriendlyName, CreatedAt: f.CreatedAt})
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"factors": out})
}

type enrollRequest struct {
	FriendlyName string `json:"friendly_name" validate:"required,max=64"`
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	var req enrollRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	enr, err := h.service.Enroll(r.Context(), id.AccountID, req.FriendlyName)
	if err != nil {
		h.respondProviderError(w, err, "failed to enroll factor")
		return
	}

	if h.audit != nil {
		h.audit.LogFromRequest(r, "enroll", "mfa_factor", nil)
	}
	httpserver.Respond(w, http.StatusCreated, enr)
}

type activateRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	factorID := chi.URLParam(r, "factorID")

	var req activateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.Activate(r.Context(), id.AccountID, factorID, req.Code); err != nil {
		h.respondProviderError(w, err, "failed to activate factor")
		return
	}

	if h.audit != nil {
		h.audit.LogFromRequest(r, "activate", "mfa_factor", nil)
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *Handler) handleUnenroll(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	factorID := chi.URLParam(r, "factorID")

	var proof Proof
	if !httpserver.DecodeAndValidate(w, r, &proof) {
		return
	}
	if err := h.service.VerifyProof(r.Context(), id.AccountID, proof); err != nil {
		h.respondProviderError(w, err, "verification failed")
		return
	}

	if err := h.service.Unenroll(r.Context(), id.AccountID, factorID); err != nil {
		h.respondProviderError(w, err, "failed to remove factor")
		return
	}

	if h.audit != nil {
		h.audit.LogFromRequest(r, "unenroll", "mfa_factor", nil)
	}
	w.WriteHeader(http.StatusNoContent)
}

type challengeRequest struct {
	FactorID string `json:"factor_id" validate:"omitempty"`
}

type challengeResponse struct {
	FactorID    string    `json:"factor_id"`
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) handleChallenge(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	var req challengeRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	factorID, ch, err := h.service.StartChallenge(r.Context(), id.AccountID, req.FactorID)
	switch {
	case errors.Is(err, ErrNoFactorsEnrolled):
		httpserver.RespondError(w, http.StatusConflict, "no_factors_enrolled", "enroll an authenticator before verifying")
		return
	case errors.Is(err, ErrFactorSelection):
		httpserver.RespondError(w, http.StatusConflict, "factor_selection_required", "specify factor_id, multiple factors enrolled")
		return
	case err != nil:
		h.respondProviderError(w, err, "failed to issue challenge")
		return
	}

	httpserver.Respond(w, http.StatusOK, challengeResponse{
		FactorID:    factorID,
		ChallengeID: ch.ID,
		ExpiresAt:   ch.ExpiresAt,
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	var proof Proof
	if !httpserver.DecodeAndValidate(w, r, &proof) {
		return
	}

	if err := h.service.VerifyProof(r.Context(), id.AccountID, proof); err != nil {
		h.respondProviderError(w, err, "verification failed")
		return
	}

	if h.audit != nil {
		detail, _ := json.Marshal(map[string]string{"factor_id": proof.FactorID})
		h.audit.LogFromRequest(r, "verify", "mfa_challenge", detail)
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "verified"})
}

// respondProviderError maps identity provider failures onto the API error
// envelope, preserving the provider's message text for client display.
func (h *Handler) respondProviderError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, ErrInvalidCodeFormat) {
		httpserver.RespondError(w, http.StatusUnprocessableEntity, "invalid_code", ErrInvalidCodeFormat.Error())
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

	h.logger.Error("mfa operation failed", "error", err)
	httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", fallback)
}
