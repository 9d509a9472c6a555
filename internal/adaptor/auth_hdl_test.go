package adaptor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/dto/request"
	"bondoutfit/internal/dto/response"
	"bondoutfit/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.AuthResponse), args.Error(1)
}

func (m *mockAuthService) RegisterStore(ctx context.Context, req *request.RegisterStoreRequest) (*response.StoreRegistrationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.StoreRegistrationResponse), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.AuthResponse), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func TestRegisterReturnsFieldErrors(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, zap.NewNop())

	svc.On("Register", mock.Anything, &request.RegisterRequest{Username: "sari", Email: "sari@example.com"}).
		Return(nil, apperr.New(apperr.KindValidation, "validation failed").
			With("fields", map[string]string{"password": "This field is required"}))

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"username":"sari","email":"sari@example.com"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, map[string]any{"fields": map[string]any{"password": "This field is required"}}, env.Errors)
}

func TestRegisterRejectsBrokenJSON(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"username":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeEnvelope(t, rec).Message)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, zap.NewNop())
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, apperr.New(apperr.KindUnauthorized, "invalid credentials"))

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"sari","password":"salah12345"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decodeEnvelope(t, rec).Message)
}

func TestLogoutUsesSessionToken(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, zap.NewNop())
	svc.On("Logout", mock.Anything, "token-from-session").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req = req.WithContext(utils.SetTokenContext(req.Context(), "token-from-session"))
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
