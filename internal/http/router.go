package httpx

import (
	"net/http"

	"oraconnect/internal/config"
	"oraconnect/internal/http/handlers"
	middlewarex "oraconnect/internal/http/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterDependencies struct {
	Config config.Cfg
	Pool   handlers.PoolHealth
}

func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", handlers.Health(deps.Pool))

	r.Group(func(r chi.Router) {
		r.Use(middlewarex.AdminAuth(deps.Config.Sec.AdminToken))
		r.Get("/stats", handlers.Stats(deps.Pool))
	})

	return r
}
