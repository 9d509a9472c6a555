package wire

import (
	"context"
	"net/http"
	"time"

	"bondoutfit/internal/adaptor"
	"bondoutfit/internal/data/repository"
	"bondoutfit/internal/usecase"
	"bondoutfit/pkg/metrics"
	"bondoutfit/pkg/middleware"
	"bondoutfit/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the assembled HTTP surface.
type App struct {
	Router *chi.Mux
}

// Observability carries the metrics collectors and the registry they are exposed from.
type Observability struct {
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Wiring builds the handlers for service and mounts every route.
func Wiring(repo *repository.Repository, service *usecase.Service, config *utils.Config, obs Observability, logger *zap.Logger) *App {
	if obs.Metrics == nil {
		obs.Metrics = metrics.NewNop()
	}
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router: setupRouter(handler, repo, config, obs, logger),
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	obs Observability,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger, obs.Metrics))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireAuth(r, handler.Auth, repo, logger)
	wireVisit(r, handler.Visit, repo, logger)
	wireStore(r, handler.Store, repo, logger)
	wireCron(r, handler.Cron, config, logger)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := repo.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "Database unavailable", nil, nil)
			return
		}
		utils.ResponseSuccess(w, "OK", nil)
	})

	if obs.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(obs.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
