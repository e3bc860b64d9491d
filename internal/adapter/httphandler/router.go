package httphandler

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/niksmo/producthub/web"
)

const defaultRateLimit = 60

type RouterConfig struct {
	// RateLimit caps state-changing requests per client IP and minute.
	RateLimit  int
	Production bool
	// Metrics instruments every route and serves /metrics when set.
	Metrics interface {
		Middleware(http.Handler) http.Handler
		Handler() http.Handler
	}
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	limit := httprate.Limit(cfg.RateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		SecureHeaders(cfg.Production),
	)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Get("/healthz", h.Healthz)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(ClientID(cfg.Production))

		r.Get("/", h.ListPage)
		r.Get("/products/{id}", h.DetailPage)
		r.With(limit).Post("/favorites/{id}/toggle", h.ToggleFavorite)
		r.With(limit).Post("/theme/toggle", h.ToggleTheme)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(AllowJSON)

			r.Get("/products", h.APIProducts)
			r.Get("/products/{id}", h.APIProduct)
			r.Get("/categories", h.APICategories)

			r.Get("/favorites", h.APIFavorites)
			r.With(limit).Post("/favorites/{id}", h.APIAddFavorite)
			r.With(limit).Delete("/favorites/{id}", h.APIRemoveFavorite)
			r.With(limit).Post("/favorites/{id}/toggle", h.APIToggleFavorite)

			r.Get("/theme", h.APITheme)
			r.With(limit).Put("/theme", h.APISetTheme)
			r.With(limit).Post("/theme/toggle", h.APIToggleTheme)
		})
	})

	return r
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(web.Static, "static")
	if err != nil {
		panic(err) // embedded tree is fixed at build time
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
