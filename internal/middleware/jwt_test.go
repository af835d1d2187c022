package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/comichut/supportdesk/internal/security"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "comichut"
	testAudience = "comichut-staff"
)

func protectedHandler(t *testing.T, wantAgentID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := AgentID(r.Context()); got != wantAgentID {
			t.Errorf("expected agent id %q in context, got %q", wantAgentID, got)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestStaffJWT_ValidToken(t *testing.T) {
	token, err := security.GenerateAccess(testSecret, "agent-1", "Sue", testIssuer, testAudience, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccess: %v", err)
	}

	handler := StaffJWT(testSecret, testIssuer, testAudience)(protectedHandler(t, "agent-1"))

	req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestStaffJWT_Rejections(t *testing.T) {
	handler := StaffJWT(testSecret, testIssuer, testAudience)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a valid token")
	}))

	wrongSecret, err := security.GenerateAccess("other-secret", "agent-1", "Sue", testIssuer, testAudience, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccess: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer garbage"},
		{"wrong secret", "Bearer " + wrongSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}
