package rest

import (
	"net/http"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/metrics"
	customMW "github.com/KotFed0t/portfolio_tracker/internal/transport/rest/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(cfg *config.Config, ctrl *Controller, sessions customMW.Sessions, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(
		customMW.RequestID,
		middleware.RealIP,
		customMW.Logger(m),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", customMW.RequestIDHeader},
			ExposedHeaders: []string{customMW.RequestIDHeader, "Content-Disposition"},
			MaxAge:         300,
		}),
	)

	r.Get("/health", ctrl.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout), customMW.Auth(sessions))

		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", ctrl.ListPortfolios)
			r.Post("/", ctrl.CreatePortfolio)

			r.Route("/{portfolioID}", func(r chi.Router) {
				r.Get("/", ctrl.GetPortfolio)
				r.Put("/", ctrl.UpdatePortfolio)
				r.Delete("/", ctrl.DeletePortfolio)

				r.Get("/positions", ctrl.GetPositions)
				r.Post("/positions", ctrl.AddPosition)
				r.Put("/positions/{ticker}", ctrl.UpdatePosition)
				r.Delete("/positions/{ticker}", ctrl.DeletePosition)

				r.Post("/import", ctrl.Import)
				r.Get("/analysis/performance", ctrl.GetPerformance)
				r.Get("/analysis/diversification", ctrl.GetDiversification)
				r.Get("/export", ctrl.Export)
			})
		})

		r.Get("/quotes", ctrl.SearchQuotes)
		r.Get("/quotes/{symbol}", ctrl.GetQuote)
	})

	return r
}
