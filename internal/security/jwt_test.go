package security

import (
	"errors"
	"testing"
	"time"

	"github.com/comichut/supportdesk/internal/domain"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "comichut"
	testAudience = "comichut-staff"
)

func TestVerifyAgent_RoundTrip(t *testing.T) {
	token, err := GenerateAccess(testSecret, "agent-1", "Sue", testIssuer, testAudience, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccess: %v", err)
	}

	claims, err := VerifyAgent(token, testSecret, testIssuer, testAudience)
	if err != nil {
		t.Fatalf("VerifyAgent: %v", err)
	}
	if claims.AgentID != "agent-1" || claims.AgentName != "Sue" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestVerifyAgent_Rejections(t *testing.T) {
	valid := func(ttl time.Duration) string {
		token, err := GenerateAccess(testSecret, "agent-1", "Sue", testIssuer, testAudience, ttl)
		if err != nil {
			t.Fatalf("GenerateAccess: %v", err)
		}
		return token
	}

	tests := []struct {
		name     string
		token    string
		secret   string
		issuer   string
		audience string
	}{
		{"garbage token", "not-a-jwt", testSecret, testIssuer, testAudience},
		{"wrong secret", valid(time.Minute), "other-secret", testIssuer, testAudience},
		{"wrong issuer", valid(time.Minute), testSecret, "someone-else", testAudience},
		{"wrong audience", valid(time.Minute), testSecret, testIssuer, "other-audience"},
		{"expired", valid(-time.Minute), testSecret, testIssuer, testAudience},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyAgent(tt.token, tt.secret, tt.issuer, tt.audience)
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestRandomToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := RandomToken(24)
		if err != nil {
			t.Fatalf("RandomToken: %v", err)
		}
		if token == "" {
			t.Fatal("empty token")
		}
		if seen[token] {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[token] = true
	}
}
