package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"bondoutfit/internal/data/entity"
	"bondoutfit/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuditRepository interface {
	Create(ctx context.Context, audit *entity.VisitAudit) error
	FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*entity.VisitAudit, error)
}

type auditRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewAuditRepository(db database.Querier, log *zap.Logger) AuditRepository {
	return &auditRepository{
		db:  db,
		log: log.With(zap.String("repository", "visit_audit")),
	}
}

func (r *auditRepository) Create(ctx context.Context, a *entity.VisitAudit) error {
	changes, err := json.Marshal(a.Changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes for visit %s: %w", a.VisitID.String(), err)
	}

	query := `
		INSERT INTO visit_audit_logs (id, visit_id, actor_id, action, changes, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
	`

	_, err = r.db.Exec(ctx, query,
		a.ID,
		a.VisitID,
		a.ActorID,
		a.Action,
		string(changes),
		a.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create visit audit",
			zap.Error(err),
			zap.String("visit_id", a.VisitID.String()),
			zap.String("action", string(a.Action)),
		)
		return fmt.Errorf("create audit for visit %s: %w", a.VisitID.String(), err)
	}

	return nil
}

// FindByVisit returns the audit trail of a visit, oldest first.
func (r *auditRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*entity.VisitAudit, error) {
	query := `
		SELECT id, visit_id, actor_id, action, changes, created_at
		FROM visit_audit_logs
		WHERE visit_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, visitID)
	if err != nil {
		r.log.Error("Failed to find visit audit",
			zap.Error(err),
			zap.String("visit_id", visitID.String()),
		)
		return nil, fmt.Errorf("find audit of visit %s: %w", visitID.String(), err)
	}
	defer rows.Close()

	var audits []*entity.VisitAudit
	for rows.Next() {
		var (
			a   entity.VisitAudit
			raw []byte
		)
		if err := rows.Scan(&a.ID, &a.VisitID, &a.ActorID, &a.Action, &raw, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		if err := json.Unmarshal(raw, &a.Changes); err != nil {
			return nil, fmt.Errorf("decode audit changes %s: %w", a.ID.String(), err)
		}
		audits = append(audits, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}

	return audits, nil
}
