package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/comichut/supportdesk/internal/middleware"
	"github.com/comichut/supportdesk/internal/observability"
)

// RouterConfig carries the routing knobs main resolves from the environment.
type RouterConfig struct {
	ServiceName  string
	RateLimitRPM int
	JWTSecret    string
	JWTIssuer    string
	JWTAudience  string
	UploadDir    string
}

// NewRouter wires the public storefront surface, the staff surface and the
// websocket endpoint onto one chi router.
func NewRouter(cfg RouterConfig, chat *ChatHandler, upload *UploadHandler, wsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(observability.MetricsMiddleware(cfg.ServiceName))
	r.Use(middleware.Recovery())
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	r.Handle("/ws", wsHandler)

	r.Post("/api/conversations", chat.StartConversation)
	r.Get("/api/conversations/my", chat.MyConversation)
	r.Post("/api/conversations/{id}/close", chat.CloseConversation)

	r.Post("/api/uploads", upload.Upload)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	r.Group(func(staff chi.Router) {
		staff.Use(middleware.StaffJWT(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience))
		staff.Get("/api/queue", chat.Queue)
		staff.Get("/api/conversations/active", chat.MyActive)
		staff.Post("/api/conversations/{id}/claim", chat.ClaimConversation)
	})

	return otelhttp.NewHandler(r, cfg.ServiceName)
}
