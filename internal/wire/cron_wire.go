package wire

import (
	"bondoutfit/internal/adaptor"
	"bondoutfit/pkg/middleware"
	"bondoutfit/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCron(
	r chi.Router,
	cronHandler *adaptor.CronHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	if config.Cron.Secret == "" {
		log.Warn("CRON_SECRET is not set; the sweep endpoint is unauthenticated")
	}
	r.With(middleware.CronSecret(config.Cron.Secret, log)).Get("/api/cron/missed-visits", cronHandler.MissedVisits)
}
