package repository

import (
	"context"

	"bondoutfit/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Store        StoreRepository
	Discount     DiscountRepository
	Visit        VisitRepository
	Audit        AuditRepository
	Notification NotificationRepository

	db  database.PgxIface
	log *zap.Logger
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	r := newRepositories(db, log)
	r.db = db
	r.log = log
	return r
}

func newRepositories(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(q, log),
		Session:      NewSessionRepository(q, log),
		Store:        NewStoreRepository(q, log),
		Discount:     NewDiscountRepository(q, log),
		Visit:        NewVisitRepository(q, log),
		Audit:        NewAuditRepository(q, log),
		Notification: NewNotificationRepository(q, log),
	}
}

// WithTx runs fn with repositories bound to a single transaction. Without a
// database (in-memory repositories in tests) fn runs against r directly.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(newRepositories(tx, r.log))
	})
}

// Ping checks the database connection. It is a no-op without a database.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.Ping(ctx)
}
