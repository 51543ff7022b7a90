package http

import (
	"net/http"
	"time"

	"github.com/peekloop/session-service/internal/live"
	httpmw "github.com/peekloop/session-service/internal/transport/http/middleware"
	"github.com/peekloop/session-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, wsServer *ws.Server, registry *live.Registry, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID", "X-Anonymous-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// WS endpoint
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.IdentityMiddleware)
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/sessions", func(sr chi.Router) {
			sr.Post("/", h.CreateSession)
			sr.Get("/", h.ListSessions)

			sr.Route("/{id}", func(ir chi.Router) {
				ir.Get("/", h.GetSession)
				ir.Delete("/", h.DeactivateSession)
			})
		})
	})

	// health + metrics
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		conns, rooms := registry.Stats()
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:      "healthy",
			Timestamp:   time.Now(),
			Connections: conns,
			Rooms:       rooms,
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
