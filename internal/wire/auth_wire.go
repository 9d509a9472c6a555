package wire

import (
	"bondoutfit/internal/adaptor"
	"bondoutfit/internal/data/repository"
	"bondoutfit/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// public
	r.Post("/api/register", authHandler.Register)
	r.Post("/api/register/store", authHandler.RegisterStore)
	r.Post("/api/login", authHandler.Login)

	r.With(middleware.AuthSession(repo.Session, log)).Post("/api/logout", authHandler.Logout)
}
