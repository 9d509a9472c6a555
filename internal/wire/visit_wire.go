package wire

import (
	"bondoutfit/internal/adaptor"
	"bondoutfit/internal/data/entity"
	"bondoutfit/internal/data/repository"
	"bondoutfit/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var storeRoles = []string{
	string(entity.RoleStoreStaff),
	string(entity.RoleStoreManager),
	string(entity.RoleAdmin),
}

// wireVisit mounts the visit routes. Ownership and store membership are
// checked by the service; the role guards only stop obviously wrong callers.
func wireVisit(
	r chi.Router,
	visitHandler *adaptor.VisitHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.With(middleware.AuthSession(repo.Session, log)).Route("/api/visits", func(r chi.Router) {
		r.Get("/", visitHandler.List)
		r.Get("/{id}", visitHandler.Get)
		r.Get("/{id}/qr", visitHandler.QR)
		r.Post("/{id}/cancel", visitHandler.Cancel)

		// customer side
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, string(entity.RoleCustomer), string(entity.RoleAdmin)))
			r.Post("/", visitHandler.Book)
			r.Post("/cancel-all", visitHandler.CancelAll)
			r.Post("/use-discount", visitHandler.UseDiscount)
			r.Patch("/{id}", visitHandler.Edit)
		})

		// store side
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, storeRoles...))
			r.Post("/{id}/scan", visitHandler.Scan)
			r.Post("/{id}/check-in", visitHandler.CheckIn)
			r.Post("/{id}/reschedule", visitHandler.Reschedule)
			r.Post("/{id}/status", visitHandler.UpdateStatus)
		})
	})
}
