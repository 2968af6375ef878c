package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/engine"
	"github.com/marketlens/optionchain/internal/ws"
)

// NewRouter wires the HTTP surface: REST handlers plus the WebSocket
// upgrade endpoint when a hub is provided.
func NewRouter(server *Server, hub *ws.Hub, manager *engine.Manager, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)
	r.Use(zapLoggerMiddleware(logger))

	r.Get("/health", server.handleHealth)
	r.Get("/symbols", server.handleSymbols)
	r.Get("/expiries", server.handleExpiries)

	r.Route("/chain/{symbol}/{expiry}", func(cr chi.Router) {
		cr.Get("/", server.handleChain)
		cr.Get("/stats", server.handleStats)
		cr.Get("/export.csv", server.handleExport)
		cr.Post("/refresh", server.handleRefresh)
		cr.Post("/sort", server.handleSort)
	})

	r.Get("/prefs", server.handleGetPrefs)
	r.Put("/prefs", server.handlePutPrefs)

	r.Post("/reload", server.handleReload)

	if hub != nil {
		r.Get("/ws", ws.HandleChainWS(hub, manager))
	}

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
			)
			next.ServeHTTP(w, r)
		})
	}
}
