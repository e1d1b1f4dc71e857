// Package api assembles the HTTP routes and middleware of the service.
package api

import (
	"net/http"

	"github.com/dvloznov/finance-assistant/internal/api/handlers"
	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/auth"
	"github.com/rs/zerolog"
)

// Handlers groups the endpoint handlers served by the router.
type Handlers struct {
	Admin    *handlers.AdminHandler
	Chat     *handlers.ChatHandler
	Insights *handlers.InsightsHandler
}

// NewRouter registers every route and wraps the mux in the middleware chain.
func NewRouter(h Handlers, verifier auth.Verifier, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(fn)
	}

	// Admin endpoints
	mux.Handle("POST /api/admin/command", admin(h.Admin.Command))
	mux.Handle("GET /api/admin/commands", admin(h.Admin.ListCommands))
	mux.Handle("GET /api/admin/commands/{id}", admin(h.Admin.GetCommand))

	// Chat and insight endpoints
	mux.HandleFunc("POST /api/chatbot", h.Chat.Chat)
	mux.Handle("POST /api/gemini/suggest-category", middleware.RequireUser(http.HandlerFunc(h.Insights.SuggestCategory)))
	mux.HandleFunc("POST /api/gemini/generate-tips", h.Insights.GenerateTips)

	// Health check endpoint
	mux.HandleFunc("GET /health", handlers.Health)

	return middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
		middleware.Authenticate(verifier, log),
	)
}
