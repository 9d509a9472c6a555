package repository

import (
	"context"
	"errors"
	"fmt"

	"bondoutfit/internal/data/entity"
	"bondoutfit/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type StoreRepository interface {
	Create(ctx context.Context, store *entity.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Store, error)
	IsStaff(ctx context.Context, storeID, userID uuid.UUID) (bool, error)
	AddStaff(ctx context.Context, storeID, userID uuid.UUID) error
}

type storeRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewStoreRepository(db database.Querier, log *zap.Logger) StoreRepository {
	return &storeRepository{
		db:  db,
		log: log.With(zap.String("repository", "store")),
	}
}

func (r *storeRepository) Create(ctx context.Context, store *entity.Store) error {
	query := `
		INSERT INTO stores (id, manager_id, name, email, phone, address, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		store.ID,
		store.ManagerID,
		store.Name,
		store.Email,
		store.Phone,
		store.Address,
		store.IsActive,
		store.CreatedAt,
		store.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create store",
			zap.Error(err),
			zap.String("name", store.Name),
			zap.String("manager_id", store.ManagerID.String()),
		)
		return fmt.Errorf("create store %s: %w", store.Name, err)
	}

	return nil
}

func (r *storeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Store, error) {
	query := `
		SELECT id, manager_id, name, email, phone, address, is_active, created_at, updated_at
		FROM stores
		WHERE id = $1
	`

	var store entity.Store
	err := r.db.QueryRow(ctx, query, id).Scan(
		&store.ID,
		&store.ManagerID,
		&store.Name,
		&store.Email,
		&store.Phone,
		&store.Address,
		&store.IsActive,
		&store.CreatedAt,
		&store.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find store by ID",
			zap.Error(err),
			zap.String("store_id", id.String()),
		)
		return nil, fmt.Errorf("find store by ID %s: %w", id.String(), err)
	}

	return &store, nil
}

// IsStaff reports whether userID may act for the store: its manager or a
// registered staff member.
func (r *storeRepository) IsStaff(ctx context.Context, storeID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM stores WHERE id = $1 AND manager_id = $2
			UNION ALL
			SELECT 1 FROM store_staff WHERE store_id = $1 AND user_id = $2
		)
	`

	var ok bool
	if err := r.db.QueryRow(ctx, query, storeID, userID).Scan(&ok); err != nil {
		r.log.Error("Failed to check store staff",
			zap.Error(err),
			zap.String("store_id", storeID.String()),
			zap.String("user_id", userID.String()),
		)
		return false, fmt.Errorf("check staff %s of store %s: %w", userID.String(), storeID.String(), err)
	}

	return ok, nil
}

func (r *storeRepository) AddStaff(ctx context.Context, storeID, userID uuid.UUID) error {
	query := `
		INSERT INTO store_staff (store_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (store_id, user_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, storeID, userID); err != nil {
		r.log.Error("Failed to add store staff",
			zap.Error(err),
			zap.String("store_id", storeID.String()),
			zap.String("user_id", userID.String()),
		)
		return fmt.Errorf("add staff %s to store %s: %w", userID.String(), storeID.String(), err)
	}

	return nil
}
