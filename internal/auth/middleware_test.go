package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareDevFallback(t *testing.T) {
	logger := slog.Default()

	tests := []struct {
		name       string
		devMode    bool
		header     map[string]string
		wantStatus int
		wantID     string
	}{
		{
			name:       "dev header accepted in dev mode",
			devMode:    true,
			header:     map[string]string{"X-Account-ID": "acct-123"},
			wantStatus: http.StatusOK,
			wantID:     "acct-123",
		},
		{
			name:       "dev header ignored outside dev mode",
			devMode:    false,
			header:     map[string]string{"X-Account-ID": "acct-123"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no credentials rejected",
			devMode:    true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bearer without oidc configured rejected",
			devMode:    true,
			header:     map[string]string{"Authorization": "Bearer abc"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotIdentity *Identity
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotIdentity = FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := Middleware(nil, tt.devMode, logger)(RequireAuth(inner))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantID != "" {
				if gotIdentity == nil {
					t.Fatal("expected identity in context")
				}
				if gotIdentity.AccountID != tt.wantID {
					t.Errorf("AccountID = %q, want %q", gotIdentity.AccountID, tt.wantID)
				}
				if gotIdentity.Method != MethodDev {
					t.Errorf("Method = %q, want %q", gotIdentity.Method, MethodDev)
				}
			}
		})
	}
}

func TestFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := FromContext(req.Context()); id != nil {
		t.Errorf("FromContext on bare context = %+v, want nil", id)
	}
}
