package wire

import (
	"bondoutfit/internal/adaptor"
	"bondoutfit/internal/data/entity"
	"bondoutfit/internal/data/repository"
	"bondoutfit/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireStore(
	r chi.Router,
	storeHandler *adaptor.StoreHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.With(
		middleware.AuthSession(repo.Session, log),
		middleware.RequireRole(log, storeRoles...),
	).Route("/api/stores/{id}", func(r chi.Router) {
		r.Get("/visits", storeHandler.Visits)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, string(entity.RoleStoreManager), string(entity.RoleAdmin)))
			r.Post("/staff", storeHandler.AddStaff)
			r.Post("/discounts", storeHandler.CreateDiscount)
		})
	})

	r.With(
		middleware.AuthSession(repo.Session, log),
		middleware.RequireRole(log, storeRoles...),
	).Post("/api/store/scan", storeHandler.ScanQR)
}
