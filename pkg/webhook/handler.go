package webhook

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wisbric/leadping/internal/httpserver"
)

// Metrics holds the Prometheus metrics for lead webhook processing.
type Metrics struct {
	ReceivedTotal    *prometheus.CounterVec
	DispatchesTotal  *prometheus.CounterVec
	DispatchDuration prometheus.Observer
}

// Handler provides the inbound lead webhook endpoint.
type Handler struct {
	logger     *slog.Logger
	dispatcher *Dispatcher
	metrics    *Metrics
}

// NewHandler creates a webhook Handler.
func NewHandler(logger *slog.Logger, dispatcher *Dispatcher, metrics *Metrics) *Handler {
	return &Handler{logger: logger, dispatcher: dispatcher, metrics: metrics}
}

// Routes returns a chi.Router with the lead webhook mounted. The secret
// token in the path is the only authentication; see the package comment.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/lead-alert/{secretToken}", h.handleLead)
	return r
}

// readLeadBody reads the webhook body leniently. External form builders
// send whatever they like; only a byte cap is enforced.
func readLeadBody(r *http.Request) ([]byte, error) {
	const maxBody = 1 << 20 // 1 MiB
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return body, nil
}

func (h *Handler) handleLead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		if h.metrics != nil && h.metrics.DispatchDuration != nil {
			h.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
		}
	}()

	token := chi.URLParam(r, "secretToken")

	body, err := readLeadBody(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	// A malformed body still triggers a notification with empty fields
	// rather than dropping the lead.
	lead, err := ParseLead(body)
	if err != nil {
		h.logger.Warn("unparseable lead payload, dispatching with empty fields", "error", err)
		lead = LeadEvent{}
	}

	result, err := h.dispatcher.Handle(r.Context(), token, lead, body)
	switch {
	case errors.Is(err, ErrUnknownAccount):
		h.recordReceived("unknown_account")
		httpserver.RespondError(w, http.StatusNotFound, "unknown_account", "no notification config for this token")
		return
	case err != nil:
		h.recordReceived("error")
		h.logger.Error("dispatching lead", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to process lead")
		return
	}

	h.recordReceived("ok")
	h.recordDispatch(result.Status)

	// The form integration gets an ack whether or not the gateway call
	// succeeded; delivery problems are an ops concern, not the form's.
	httpserver.Respond(w, http.StatusOK, result)
}

func (h *Handler) recordReceived(outcome string) {
	if h.metrics != nil && h.metrics.ReceivedTotal != nil {
		h.metrics.ReceivedTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) recordDispatch(result string) {
	if h.metrics != nil && h.metrics.DispatchesTotal != nil {
		h.metrics.DispatchesTotal.WithLabelValues(result).Inc()
	}
}
