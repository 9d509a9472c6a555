package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bondoutfit/internal/data/entity"
	"bondoutfit/pkg/metrics"
	"bondoutfit/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSessions struct {
	sessions map[uuid.UUID]*entity.Session
	err      error
	lookups  int
}

func (s *stubSessions) Create(context.Context, *entity.Session) error { return nil }
func (s *stubSessions) Revoke(context.Context, uuid.UUID) error       { return nil }

func (s *stubSessions) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	return s.sessions[token], nil
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	id, _ := utils.GetIdentityFromContext(r.Context())
	token, _ := utils.GetTokenFromContext(r.Context())
	w.Header().Set("X-User", id.UserID.String())
	w.Header().Set("X-Role", id.Role)
	w.Header().Set("X-Token", token)
	w.WriteHeader(http.StatusOK)
}

func TestAuthSession(t *testing.T) {
	userID := uuid.New()
	good := uuid.MustParse("6f1c2d3e-4b5a-4c6d-8e7f-9a0b1c2d3e4f")
	repo := &stubSessions{sessions: map[uuid.UUID]*entity.Session{
		good: {UserID: userID, UserRole: entity.RoleStoreStaff},
	}}

	tests := []struct {
		name    string
		header  string
		err     error
		code    int
		lookups int
	}{
		{"valid", "Bearer " + good.String(), nil, http.StatusOK, 1},
		{"missing header", "", nil, http.StatusUnauthorized, 0},
		{"wrong scheme", "Basic " + good.String(), nil, http.StatusUnauthorized, 0},
		{"empty token", "Bearer ", nil, http.StatusUnauthorized, 0},
		{"malformed token", "Bearer not-a-uuid", nil, http.StatusUnauthorized, 0},
		{"unknown token", "Bearer " + uuid.NewString(), nil, http.StatusUnauthorized, 1},
		{"store failure", "Bearer " + good.String(), errors.New("pool exhausted"), http.StatusInternalServerError, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.err = tt.err
			repo.lookups = 0
			h := AuthSession(repo, zap.NewNop())(http.HandlerFunc(echoIdentity))

			req := httptest.NewRequest(http.MethodGet, "/api/visits", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.lookups, repo.lookups)
			if tt.code == http.StatusOK {
				assert.Equal(t, userID.String(), rec.Header().Get("X-User"))
				assert.Equal(t, string(entity.RoleStoreStaff), rec.Header().Get("X-Role"))
				assert.Equal(t, good.String(), rec.Header().Get("X-Token"))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	guard := RequireRole(zap.NewNop(), string(entity.RoleStoreManager), string(entity.RoleAdmin))
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	tests := []struct {
		name string
		role string
		code int
	}{
		{"manager", string(entity.RoleStoreManager), http.StatusNoContent},
		{"admin", string(entity.RoleAdmin), http.StatusNoContent},
		{"customer", string(entity.RoleCustomer), http.StatusForbidden},
		{"anonymous", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/stores/1/staff", nil)
			if tt.role != "" {
				req = req.WithContext(utils.SetIdentityContext(req.Context(), utils.Identity{UserID: uuid.New(), Role: tt.role}))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestCronSecret(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		secret string
		header string
		code   int
	}{
		{"open when unset", "", "", http.StatusOK},
		{"matching secret", "s3cret", "Bearer s3cret", http.StatusOK},
		{"wrong secret", "s3cret", "Bearer guess", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cron/missed-visits", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			CronSecret(tt.secret, zap.NewNop())(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestLoggerRecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New("bondoutfit", reg)

	r := chi.NewRouter()
	r.Use(Logger(zap.NewNop(), m))
	r.Get("/api/visits/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/visits/"+id, nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/visits/{id}", "404")))
}

func TestRecoverWritesEnvelope(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":false`)
}

func TestCORSPreflight(t *testing.T) {
	h := CORS()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/visits", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
