package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/comichut/supportdesk/internal/domain"
)

// AgentClaims is what an agent credential carries after verification.
type AgentClaims struct {
	AgentID   string
	AgentName string
}

// GenerateAccess creates a signed HS256 JWT for a support agent. The same
// secret / issuer / audience are used by the HTTP middleware and the
// websocket agent-join path.
func GenerateAccess(secret, agentID, agentName, issuer, audience string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  agentID,
		"name": agentName,
		"iss":  issuer,
		"aud":  audience,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// VerifyAgent validates an agent credential and extracts its claims.
// Any parse, signature, expiry, issuer or audience failure maps to
// domain.ErrUnauthorized.
func VerifyAgent(tokenString, secret, issuer, audience string) (*AgentClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		// Only accept HMAC, never a key-confusion downgrade.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience))

	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, domain.ErrUnauthorized
	}

	name, _ := claims["name"].(string)

	return &AgentClaims{AgentID: sub, AgentName: name}, nil
}
