package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
	"bondoutfit/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// VisitFilter narrows list queries. Zero fields are ignored.
type VisitFilter struct {
	CustomerID *uuid.UUID
	StoreID    *uuid.UUID
	Status     *entity.VisitStatus
	Date       *time.Time
}

type VisitRepository interface {
	Create(ctx context.Context, visit *entity.Visit) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Visit, error)
	FindAll(ctx context.Context, filter VisitFilter, limit, offset int) ([]*entity.Visit, error)
	Count(ctx context.Context, filter VisitFilter) (int64, error)

	// Lifecycle queries
	FindScheduledByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Visit, error)
	FindSweepCandidates(ctx context.Context, onOrBefore time.Time) ([]*entity.Visit, error)
	FindStaleCheckedIn(ctx context.Context, checkedInBefore time.Time) ([]*entity.Visit, error)
	UpdateGuarded(ctx context.Context, visit *entity.Visit, expectStatus entity.VisitStatus, expectVersion time.Time) error
	MarkDiscountUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type visitRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewVisitRepository(db database.Querier, log *zap.Logger) VisitRepository {
	return &visitRepository{
		db:  db,
		log: log.With(zap.String("repository", "visit")),
	}
}

const visitColumns = `
	id, customer_id, store_id, discount_id, scheduled_date, scheduled_time, number_of_people,
	customer_notes, special_requests, status, checked_in, checked_in_at, last_scan_at, completed_at,
	cancelled_at, cancelled_by, cancellation_reason, missed_at, rescheduled_at, rescheduled_by,
	reschedule_notes, discount_unlocked, discount_used, discount_code, discount_used_at,
	created_at, updated_at`

func scanVisit(row pgx.Row) (*entity.Visit, error) {
	var v entity.Visit
	err := row.Scan(
		&v.ID,
		&v.CustomerID,
		&v.StoreID,
		&v.DiscountID,
		&v.ScheduledDate,
		&v.ScheduledTime,
		&v.NumberOfPeople,
		&v.CustomerNotes,
		&v.SpecialRequests,
		&v.Status,
		&v.CheckedIn,
		&v.CheckedInAt,
		&v.LastScanAt,
		&v.CompletedAt,
		&v.CancelledAt,
		&v.CancelledBy,
		&v.CancellationReason,
		&v.MissedAt,
		&v.RescheduledAt,
		&v.RescheduledBy,
		&v.RescheduleNotes,
		&v.DiscountUnlocked,
		&v.DiscountUsed,
		&v.DiscountCode,
		&v.DiscountUsedAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *visitRepository) Create(ctx context.Context, v *entity.Visit) error {
	query := `
		INSERT INTO visits (id, customer_id, store_id, discount_id, scheduled_date, scheduled_time,
		                    number_of_people, customer_notes, special_requests, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		v.ID,
		v.CustomerID,
		v.StoreID,
		v.DiscountID,
		v.ScheduledDate,
		v.ScheduledTime,
		v.NumberOfPeople,
		v.CustomerNotes,
		v.SpecialRequests,
		v.Status,
		v.CreatedAt,
		v.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create visit",
			zap.Error(err),
			zap.String("customer_id", v.CustomerID.String()),
			zap.String("store_id", v.StoreID.String()),
		)
		return fmt.Errorf("create visit for customer %s: %w", v.CustomerID.String(), err)
	}

	return nil
}

func (r *visitRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`

	v, err := scanVisit(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find visit by ID",
			zap.Error(err),
			zap.String("visit_id", id.String()),
		)
		return nil, fmt.Errorf("find visit by ID %s: %w", id.String(), err)
	}

	return v, nil
}

func (f VisitFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.CustomerID != nil {
		add("customer_id = $%d", *f.CustomerID)
	}
	if f.StoreID != nil {
		add("store_id = $%d", *f.StoreID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.Date != nil {
		add("scheduled_date = $%d", *f.Date)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// FindAll retrieves a page of visits, latest slot first.
func (r *visitRepository) FindAll(ctx context.Context, filter VisitFilter, limit, offset int) ([]*entity.Visit, error) {
	where, args := filter.where()
	query := fmt.Sprintf(`SELECT %s FROM visits%s ORDER BY scheduled_date DESC, scheduled_time DESC LIMIT $%d OFFSET $%d`,
		visitColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	visits, err := r.query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list visits",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find visits limit %d offset %d: %w", limit, offset, err)
	}

	return visits, nil
}

func (r *visitRepository) Count(ctx context.Context, filter VisitFilter) (int64, error) {
	where, args := filter.where()
	query := `SELECT COUNT(*) FROM visits` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Database error counting visits", zap.Error(err))
		return 0, fmt.Errorf("count visits: %w", err)
	}

	return count, nil
}

// FindScheduledByCustomer returns the customer's visits that have not started.
func (r *visitRepository) FindScheduledByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE customer_id = $1 AND status = 'SCHEDULED' AND NOT checked_in
		ORDER BY scheduled_date, scheduled_time
	`

	visits, err := r.query(ctx, query, customerID)
	if err != nil {
		r.log.Error("Failed to find scheduled visits",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
		)
		return nil, fmt.Errorf("find scheduled visits of customer %s: %w", customerID.String(), err)
	}

	return visits, nil
}

// FindSweepCandidates returns scheduled, unattended visits dated on or before
// the given day. The caller decides per row using the full scheduled instant.
func (r *visitRepository) FindSweepCandidates(ctx context.Context, onOrBefore time.Time) ([]*entity.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE status = 'SCHEDULED'
		  AND NOT checked_in
		  AND cancelled_at IS NULL
		  AND scheduled_date <= $1
		ORDER BY scheduled_date, scheduled_time
	`

	visits, err := r.query(ctx, query, onOrBefore)
	if err != nil {
		r.log.Error("Failed to find sweep candidates", zap.Error(err))
		return nil, fmt.Errorf("find sweep candidates: %w", err)
	}

	return visits, nil
}

// FindStaleCheckedIn returns checked-in visits never completed since before the cutoff.
func (r *visitRepository) FindStaleCheckedIn(ctx context.Context, checkedInBefore time.Time) ([]*entity.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE status = 'CHECKED_IN'
		  AND checked_in
		  AND completed_at IS NULL
		  AND checked_in_at < $1
		ORDER BY checked_in_at
	`

	visits, err := r.query(ctx, query, checkedInBefore)
	if err != nil {
		r.log.Error("Failed to find stale check-ins", zap.Error(err))
		return nil, fmt.Errorf("find stale check-ins: %w", err)
	}

	return visits, nil
}

// UpdateGuarded writes every mutable column of visit, but only if the stored
// row still has expectStatus and expectVersion. A lost race is a conflict.
func (r *visitRepository) UpdateGuarded(ctx context.Context, v *entity.Visit, expectStatus entity.VisitStatus, expectVersion time.Time) error {
	query := `
		UPDATE visits
		SET scheduled_date = $4, scheduled_time = $5, number_of_people = $6,
		    customer_notes = $7, special_requests = $8, status = $9,
		    checked_in = $10, checked_in_at = $11, last_scan_at = $12, completed_at = $13,
		    cancelled_at = $14, cancelled_by = $15, cancellation_reason = $16, missed_at = $17,
		    rescheduled_at = $18, rescheduled_by = $19, reschedule_notes = $20,
		    discount_unlocked = $21, discount_used = $22, discount_code = COALESCE(discount_code, $23),
		    discount_used_at = $24, updated_at = $25
		WHERE id = $1 AND status = $2 AND updated_at = $3
	`

	result, err := r.db.Exec(ctx, query,
		v.ID,
		expectStatus,
		expectVersion,
		v.ScheduledDate,
		v.ScheduledTime,
		v.NumberOfPeople,
		v.CustomerNotes,
		v.SpecialRequests,
		v.Status,
		v.CheckedIn,
		v.CheckedInAt,
		v.LastScanAt,
		v.CompletedAt,
		v.CancelledAt,
		v.CancelledBy,
		v.CancellationReason,
		v.MissedAt,
		v.RescheduledAt,
		v.RescheduledBy,
		v.RescheduleNotes,
		v.DiscountUnlocked,
		v.DiscountUsed,
		v.DiscountCode,
		v.DiscountUsedAt,
		v.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update visit",
			zap.Error(err),
			zap.String("visit_id", v.ID.String()),
			zap.String("status", string(v.Status)),
		)
		return fmt.Errorf("update visit %s: %w", v.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		r.log.Warn("Guarded visit update lost",
			zap.String("visit_id", v.ID.String()),
			zap.String("expected_status", string(expectStatus)),
		)
		return apperr.New(apperr.KindConflict, "visit changed concurrently, reload and retry").
			With("visit_id", v.ID.String())
	}

	return nil
}

// MarkDiscountUsed redeems the discount in one conditional statement. It
// reports false when the discount was not unlocked or already used.
func (r *visitRepository) MarkDiscountUsed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE visits
		SET discount_used = TRUE, discount_used_at = $2, updated_at = $2
		WHERE id = $1 AND discount_unlocked AND NOT discount_used
	`

	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to mark discount used",
			zap.Error(err),
			zap.String("visit_id", id.String()),
		)
		return false, fmt.Errorf("mark discount used for visit %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *visitRepository) query(ctx context.Context, query string, args ...any) ([]*entity.Visit, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []*entity.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit row: %w", err)
		}
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visit rows: %w", err)
	}

	return visits, nil
}
