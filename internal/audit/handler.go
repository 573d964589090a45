package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/leadping/internal/auth"
	"github.com/wisbric/leadping/internal/httpserver"
)

// Handler provides HTTP handlers for the audit log API. Accounts can only
// read their own trail.
type Handler struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewHandler creates an audit log Handler.
func NewHandler(pool *pgxpool.Pool, logger *slog.Logger) *Handler {
	return &Handler{pool: pool, logger: logger}
}

// Routes returns a chi.Router with audit log routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	return r
}

// LogEntry is the JSON shape of one audit log row.
type LogEntry struct {
	ID        int64           `json:"id"`
	Action    string          `json:"action"`
	Resource  string          `json:"resource"`
	Detail    json.RawMessage `json:"detail"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())

	params, err := httpserver.ParseOffsetParams(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	entries, total, err := h.list(r, id.AccountID, params)
	if err != nil {
		h.logger.Error("listing audit log", "error", err, "account_id", id.AccountID)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list audit log")
		return
	}

	httpserver.Respond(w, http.StatusOK, httpserver.NewOffsetPage(entries, params, total))
}

func (h *Handler) list(r *http.Request, accountID string, params httpserver.OffsetParams) ([]LogEntry, int, error) {
	ctx := r.Context()

	var total int
	if err := h.pool.QueryRow(ctx,
		`SELECT count(*) FROM audit_log WHERE account_id = $1`, accountID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting audit log: %w", err)
	}

	rows, err := h.pool.Query(ctx,
		`SELECT id, action, resource, detail, created_at
		FROM audit_log WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountID, params.PageSize, params.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]LogEntry, 0, params.PageSize)
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Resource, &e.Detail, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning audit log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating audit log rows: %w", err)
	}

	return entries, total, nil
}
