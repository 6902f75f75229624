package handler

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/zhouzirui/travel-tavern/backend/internal/config"
	"github.com/zhouzirui/travel-tavern/backend/internal/handler/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/handler/page"
	"github.com/zhouzirui/travel-tavern/backend/internal/handler/stream"
	travelerHandler "github.com/zhouzirui/travel-tavern/backend/internal/handler/traveler"
	"github.com/zhouzirui/travel-tavern/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/travel-tavern/backend/internal/middleware"
	"github.com/zhouzirui/travel-tavern/backend/internal/model/traveler"
	chatService "github.com/zhouzirui/travel-tavern/backend/internal/service/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/travel"
)

// Deps bundles what the router needs.
type Deps struct {
	Server    config.ServerConfig
	Concierge *travel.Concierge
	Chat      *chatService.Service
	Travelers traveler.Store
	Assets    fs.FS
	OpenAPI   *middlewarePkg.OpenAPIValidator
	// OpenAPIDoc is served verbatim on /openapi.yaml.
	OpenAPIDoc []byte
}

// NewRouter wires HTTP routes to core services. ctx bounds background work
// such as the rate limiter sweeper.
func NewRouter(ctx context.Context, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.Server.CORSOrigins))
	r.Use(middlewarePkg.Metrics)

	chatHandler := chat.New(deps.Concierge, deps.Chat, deps.Server.SanitizeHTML)
	streamHandler := stream.New(deps.Concierge, chatHandler)
	wsHandler := ws.New(deps.Concierge, chatHandler)

	page.New(deps.Assets, deps.OpenAPIDoc, deps.Concierge.Available).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	limiter := middlewarePkg.NewRateLimiter(ctx, middlewarePkg.RateLimiterOptions{
		Limit: rate.Limit(deps.Server.RateLimitRPS),
		Burst: deps.Server.RateLimitBurst,
	})

	r.Group(func(api chi.Router) {
		if deps.OpenAPI != nil {
			api.Use(deps.OpenAPI.Middleware)
		}

		// Throttle before a session is created for the request.
		api.Group(func(limited chi.Router) {
			limited.Use(limiter.Middleware)
			limited.Use(middlewarePkg.Session(deps.Chat, deps.Server.SessionCookie))
			limited.Post("/chat", chatHandler.HandleChat)
			streamHandler.RegisterRoutes(limited)
			wsHandler.RegisterRoutes(limited)
		})

		api.Group(func(history chi.Router) {
			history.Use(middlewarePkg.OptionalSession(deps.Chat, deps.Server.SessionCookie))
			history.Get("/api/history", chatHandler.HandleHistory)
			history.Delete("/api/history", chatHandler.HandleResetHistory)
		})
	})

	travelerHandler.New(deps.Travelers).RegisterRoutes(r)

	return r
}
