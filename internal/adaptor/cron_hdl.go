package adaptor

import (
	"net/http"

	"bondoutfit/internal/usecase"
	"bondoutfit/pkg/utils"

	"go.uber.org/zap"
)

type CronHandler struct {
	sweep usecase.SweepService
	log   *zap.Logger
}

func NewCronHandler(sweep usecase.SweepService, log *zap.Logger) *CronHandler {
	return &CronHandler{
		sweep: sweep,
		log:   log.With(zap.String("handler", "cron")),
	}
}

// MissedVisits handles GET /api/cron/missed-visits
func (h *CronHandler) MissedVisits(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sweep.Run(r.Context())
	if err != nil {
		handleServiceError(h.log, w, err, "run missed-visit sweep")
		return
	}

	if resp.Skipped {
		utils.ResponseSuccess(w, "Sweep already running elsewhere", resp)
		return
	}
	utils.ResponseSuccess(w, "Sweep completed", resp)
}
