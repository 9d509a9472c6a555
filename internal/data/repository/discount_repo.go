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

type DiscountRepository interface {
	Create(ctx context.Context, discount *entity.Discount) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Discount, error)
}

type discountRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewDiscountRepository(db database.Querier, log *zap.Logger) DiscountRepository {
	return &discountRepository{
		db:  db,
		log: log.With(zap.String("repository", "discount")),
	}
}

func (r *discountRepository) Create(ctx context.Context, discount *entity.Discount) error {
	query := `
		INSERT INTO discounts (id, store_id, title, percentage, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		discount.ID,
		discount.StoreID,
		discount.Title,
		discount.Percentage,
		discount.IsActive,
		discount.CreatedAt,
		discount.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create discount",
			zap.Error(err),
			zap.String("store_id", discount.StoreID.String()),
		)
		return fmt.Errorf("create discount for store %s: %w", discount.StoreID.String(), err)
	}

	return nil
}

func (r *discountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Discount, error) {
	query := `
		SELECT id, store_id, title, percentage, is_active, created_at, updated_at
		FROM discounts
		WHERE id = $1
	`

	var discount entity.Discount
	err := r.db.QueryRow(ctx, query, id).Scan(
		&discount.ID,
		&discount.StoreID,
		&discount.Title,
		&discount.Percentage,
		&discount.IsActive,
		&discount.CreatedAt,
		&discount.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find discount by ID",
			zap.Error(err),
			zap.String("discount_id", id.String()),
		)
		return nil, fmt.Errorf("find discount by ID %s: %w", id.String(), err)
	}

	return &discount, nil
}
