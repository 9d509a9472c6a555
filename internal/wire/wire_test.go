package wire

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bondoutfit/internal/data/repository"
	"bondoutfit/internal/usecase"
	"bondoutfit/pkg/metrics"
	"bondoutfit/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRoutesRequireSession(t *testing.T) {
	reg := prometheus.NewRegistry()
	app := Wiring(&repository.Repository{}, &usecase.Service{},
		&utils.Config{Cron: utils.CronConfig{Secret: "s3cret"}},
		Observability{Metrics: metrics.New("bondoutfit", reg), Gatherer: reg},
		zap.NewNop())

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/api/visits", http.StatusUnauthorized},
		{http.MethodPost, "/api/visits", http.StatusUnauthorized},
		{http.MethodPatch, "/api/visits/abc", http.StatusUnauthorized},
		{http.MethodPost, "/api/visits/abc/scan", http.StatusUnauthorized},
		{http.MethodPost, "/api/visits/cancel-all", http.StatusUnauthorized},
		{http.MethodPost, "/api/stores/abc/staff", http.StatusUnauthorized},
		{http.MethodPost, "/api/store/scan", http.StatusUnauthorized},
		{http.MethodPost, "/api/logout", http.StatusUnauthorized},
		{http.MethodGet, "/api/cron/missed-visits", http.StatusUnauthorized},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
