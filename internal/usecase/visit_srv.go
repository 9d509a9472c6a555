package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
	"bondoutfit/internal/data/repository"
	"bondoutfit/internal/dto/request"
	"bondoutfit/internal/dto/response"
	"bondoutfit/internal/lifecycle"
	"bondoutfit/pkg/metrics"
	"bondoutfit/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type VisitService interface {
	Book(ctx context.Context, identity utils.Identity, req *request.CreateVisitRequest) (*response.VisitResponse, error)
	ListMine(ctx context.Context, identity utils.Identity, req *request.VisitListRequest) (*response.PaginatedResponse[response.VisitResponse], error)
	ListStore(ctx context.Context, identity utils.Identity, storeID string, req *request.VisitListRequest) (*response.PaginatedResponse[response.VisitResponse], error)
	Get(ctx context.Context, identity utils.Identity, visitID string) (*response.VisitDetailResponse, error)
	QR(ctx context.Context, identity utils.Identity, visitID string) (*response.QRResponse, error)

	// Store side
	Scan(ctx context.Context, identity utils.Identity, visitID string, req *request.ScanRequest) (*response.ScanResponse, error)
	ScanQR(ctx context.Context, identity utils.Identity, req *request.ScanQRRequest) (*response.ScanResponse, error)
	CheckIn(ctx context.Context, identity utils.Identity, visitID string) (*response.ScanResponse, error)
	Reschedule(ctx context.Context, identity utils.Identity, visitID string, req *request.RescheduleVisitRequest) (*response.VisitResponse, error)
	UpdateStatus(ctx context.Context, identity utils.Identity, visitID string, req *request.UpdateVisitStatusRequest) (*response.VisitResponse, error)

	// Customer side
	Cancel(ctx context.Context, identity utils.Identity, visitID string, req *request.CancelVisitRequest) (*response.VisitResponse, error)
	CancelAll(ctx context.Context, identity utils.Identity, req *request.CancelAllVisitsRequest) (*response.CancelAllResponse, error)
	Edit(ctx context.Context, identity utils.Identity, visitID string, req *request.EditVisitRequest) (*response.EditVisitResponse, error)
	UseDiscount(ctx context.Context, identity utils.Identity, req *request.UseDiscountRequest) (*response.UseDiscountResponse, error)
}

type visitService struct {
	repo     *repository.Repository
	policy   lifecycle.Policy
	notifier *Notifier
	metrics  *metrics.Metrics
	clock    func() time.Time
	log      *zap.Logger
}

func NewVisitService(
	repo *repository.Repository,
	policy lifecycle.Policy,
	notifier *Notifier,
	m *metrics.Metrics,
	clock func() time.Time,
	log *zap.Logger,
) VisitService {
	return &visitService{
		repo:     repo,
		policy:   policy,
		notifier: notifier,
		metrics:  m,
		clock:    clock,
		log:      log.With(zap.String("service", "visit")),
	}
}

func (s *visitService) Book(ctx context.Context, identity utils.Identity, req *request.CreateVisitRequest) (*response.VisitResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Book visit validation failed", zap.Any("errors", errs))
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid store ID")
	}
	store, err := s.repo.Store.FindByID(ctx, storeID)
	if err != nil {
		return nil, s.internal(err, "failed to find store")
	}
	if store == nil || !store.IsActive {
		return nil, apperr.Newf(apperr.KindNotFound, "store %s not found", req.StoreID)
	}

	var discountID *uuid.UUID
	if req.DiscountID != nil {
		id, err := uuid.Parse(*req.DiscountID)
		if err != nil {
			return nil, apperr.New(apperr.KindValidation, "invalid discount ID")
		}
		discount, err := s.repo.Discount.FindByID(ctx, id)
		if err != nil {
			return nil, s.internal(err, "failed to find discount")
		}
		if discount == nil || discount.StoreID != storeID || !discount.IsActive {
			return nil, apperr.New(apperr.KindValidation, "discount is not available at this store").
				With("fields", map[string]string{"discount_id": "not an active discount of the store"})
		}
		discountID = &discount.ID
	}

	date, err := time.Parse(utils.DateLayout, req.ScheduledDate)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid scheduled date")
	}
	now := stamp(s.clock)
	at, err := entity.CombineDateTime(date, req.ScheduledTime, s.policy.Location)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "invalid scheduled time")
	}
	if !at.After(now) {
		return nil, apperr.New(apperr.KindValidation, "visit must be scheduled in the future").
			With("scheduled_at", at)
	}

	visit := &entity.Visit{
		BaseNoDelete:    entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		CustomerID:      identity.UserID,
		StoreID:         storeID,
		DiscountID:      discountID,
		ScheduledDate:   date,
		ScheduledTime:   req.ScheduledTime,
		NumberOfPeople:  req.NumberOfPeople,
		CustomerNotes:   req.CustomerNotes,
		SpecialRequests: req.SpecialRequests,
		Status:          entity.VisitStatusScheduled,
	}

	if err := s.repo.Visit.Create(ctx, visit); err != nil {
		return nil, s.internal(err, "failed to book visit")
	}
	s.metrics.IncTransition(string(visit.Status), "book")

	s.log.Info("Visit booked",
		zap.String("visit_id", visit.ID.String()),
		zap.String("store_id", storeID.String()),
		zap.Time("scheduled_at", at))

	resp := response.VisitToResponse(visit)
	return &resp, nil
}

func (s *visitService) ListMine(ctx context.Context, identity utils.Identity, req *request.VisitListRequest) (*response.PaginatedResponse[response.VisitResponse], error) {
	customerID := identity.UserID
	return s.list(ctx, repository.VisitFilter{CustomerID: &customerID}, req)
}

func (s *visitService) ListStore(ctx context.Context, identity utils.Identity, storeID string, req *request.VisitListRequest) (*response.PaginatedResponse[response.VisitResponse], error) {
	id, err := uuid.Parse(storeID)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid store ID")
	}
	if err := s.requireStaff(ctx, identity, id, "view visits of"); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.VisitFilter{StoreID: &id}, req)
}

func (s *visitService) list(ctx context.Context, filter repository.VisitFilter, req *request.VisitListRequest) (*response.PaginatedResponse[response.VisitResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = 10
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}
	if req.Status != "" {
		status := entity.VisitStatus(req.Status)
		filter.Status = &status
	}
	if req.Date != "" {
		date, err := time.Parse(utils.DateLayout, req.Date)
		if err != nil {
			return nil, apperr.New(apperr.KindValidation, "invalid date filter")
		}
		filter.Date = &date
	}

	visits, err := s.repo.Visit.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, s.internal(err, "failed to list visits")
	}
	total, err := s.repo.Visit.Count(ctx, filter)
	if err != nil {
		return nil, s.internal(err, "failed to count visits")
	}

	data := make([]response.VisitResponse, 0, len(visits))
	for _, v := range visits {
		data = append(data, response.VisitToResponse(v))
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *visitService) Get(ctx context.Context, identity utils.Identity, visitID string) (*response.VisitDetailResponse, error) {
	v, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.CustomerID != identity.UserID {
		if err := s.requireStaff(ctx, identity, v.StoreID, "view visits of"); err != nil {
			return nil, err
		}
	}

	audits, err := s.repo.Audit.FindByVisit(ctx, v.ID)
	if err != nil {
		return nil, s.internal(err, "failed to load visit history")
	}
	history := make([]response.AuditResponse, 0, len(audits))
	for _, a := range audits {
		history = append(history, response.AuditToResponse(a))
	}

	return &response.VisitDetailResponse{
		VisitResponse: response.VisitToResponse(v),
		History:       history,
	}, nil
}

// QR returns the payload a store scans at the door.
func (s *visitService) QR(ctx context.Context, identity utils.Identity, visitID string) (*response.QRResponse, error) {
	v, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(identity, v); err != nil {
		return nil, err
	}
	if v.Status.IsTerminal() {
		return nil, apperr.Newf(apperr.KindInvalidState, "visit is %s, no QR code available", v.Status).
			With("status", v.Status)
	}

	payload := response.VisitToQRPayload(v)
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, s.internal(err, "failed to encode QR payload")
	}
	return &response.QRResponse{QRData: string(data), Payload: payload}, nil
}

func (s *visitService) Scan(ctx context.Context, identity utils.Identity, visitID string, req *request.ScanRequest) (*response.ScanResponse, error) {
	action, err := lifecycle.ParseScanAction(req.Action)
	if err != nil {
		return nil, err
	}
	v, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, identity, v.StoreID, "scan visits of"); err != nil {
		return nil, err
	}
	return s.applyScan(ctx, identity, v, action)
}

func (s *visitService) ScanQR(ctx context.Context, identity utils.Identity, req *request.ScanQRRequest) (*response.ScanResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	var payload response.QRPayload
	if err := json.Unmarshal([]byte(req.QRData), &payload); err != nil || payload.VisitID == "" {
		return nil, apperr.New(apperr.KindValidation, "invalid QR code")
	}

	v, err := s.load(ctx, payload.VisitID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, identity, v.StoreID, "scan visits of"); err != nil {
		return nil, err
	}
	if payload.StoreID != "" && payload.StoreID != v.StoreID.String() {
		return nil, apperr.New(apperr.KindValidation, "QR code does not match this visit")
	}
	return s.applyScan(ctx, identity, v, lifecycle.ScanAuto)
}

func (s *visitService) CheckIn(ctx context.Context, identity utils.Identity, visitID string) (*response.ScanResponse, error) {
	return s.Scan(ctx, identity, visitID, &request.ScanRequest{Action: string(lifecycle.ScanCheckIn)})
}

func (s *visitService) applyScan(ctx context.Context, identity utils.Identity, v *entity.Visit, action lifecycle.ScanAction) (*response.ScanResponse, error) {
	now := stamp(s.clock)
	prevStatus, prevVersion := v.Status, v.UpdatedAt

	done, err := s.policy.Scan(v, action, now)
	if err != nil {
		s.log.Info("Scan rejected",
			zap.String("visit_id", v.ID.String()),
			zap.String("action", string(action)),
			zap.String("reason", apperr.MessageOf(err)))
		return nil, err
	}

	v.UpdatedAt = now
	if err := s.persist(ctx, v, prevStatus, prevVersion, nil); err != nil {
		return nil, err
	}
	s.metrics.IncTransition(string(v.Status), "scan")

	s.log.Info("Visit scanned",
		zap.String("visit_id", v.ID.String()),
		zap.String("action", string(done)),
		zap.String("status", string(v.Status)),
		zap.String("staff_id", identity.UserID.String()))

	return &response.ScanResponse{
		Action:           string(done),
		Visit:            response.VisitToResponse(v),
		DiscountUnlocked: v.DiscountUnlocked,
		DiscountCode:     v.DiscountCode,
	}, nil
}

func (s *visitService) Cancel(ctx context.Context, identity utils.Identity, visitID string, req *request.CancelVisitRequest) (*response.VisitResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	v, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}

	by := entity.CancelledByCustomer
	if v.CustomerID != identity.UserID {
		if err := s.requireStaff(ctx, identity, v.StoreID, "cancel visits of"); err != nil {
			return nil, err
		}
		by = entity.CancelledByStore
	}

	now := stamp(s.clock)
	prevStatus, prevVersion := v.Status, v.UpdatedAt
	if err := s.policy.Cancel(v, by, req.Reason, now); err != nil {
		return nil, err
	}
	v.UpdatedAt = now

	audit := newAudit(v, identity, entity.AuditActionCancel, cancelChanges(prevStatus, v), now)
	if err := s.persist(ctx, v, prevStatus, prevVersion, audit); err != nil {
		return nil, err
	}
	s.metrics.IncTransition(string(v.Status), "cancel")

	if by == entity.CancelledByCustomer {
		s.notifier.Dispatch(cancelledNotice(v, entity.AudienceStore))
	} else {
		s.notifier.Dispatch(cancelledNotice(v, entity.AudienceCustomer))
	}

	s.log.Info("Visit cancelled",
		zap.String("visit_id", v.ID.String()),
		zap.String("cancelled_by", string(by)))

	resp := response.VisitToResponse(v)
	return &resp, nil
}

// CancelAll cancels every upcoming visit of the customer that still has the
// bulk lead time. Each visit is its own guarded update; one failure does not
// stop the rest.
func (s *visitService) CancelAll(ctx context.Context, identity utils.Identity, req *request.CancelAllVisitsRequest) (*response.CancelAllResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	visits, err := s.repo.Visit.FindScheduledByCustomer(ctx, identity.UserID)
	if err != nil {
		return nil, s.internal(err, "failed to load scheduled visits")
	}
	if len(visits) == 0 {
		return nil, apperr.New(apperr.KindInvalidState, "no scheduled visits to cancel")
	}

	now := stamp(s.clock)
	resp := &response.CancelAllResponse{
		Cancelled:   []response.CancelledVisit{},
		NotEligible: []response.IneligibleVisit{},
		Failed:      []response.FailedVisit{},
	}

	var eligible []*entity.Visit
	for _, v := range visits {
		if err := s.policy.BulkCancelEligible(v, now); err != nil {
			hours, _ := apperr.DetailsOf(err)["hours_remaining"].(float64)
			resp.NotEligible = append(resp.NotEligible, response.IneligibleVisit{
				VisitID:        v.ID.String(),
				ScheduledDate:  v.ScheduledDate.Format(utils.DateLayout),
				ScheduledTime:  v.ScheduledTime,
				HoursRemaining: hours,
				Reason:         apperr.MessageOf(err),
			})
			continue
		}
		eligible = append(eligible, v)
	}

	if len(eligible) == 0 {
		return nil, apperr.New(apperr.KindInvalidState, "no visits are eligible for cancellation").
			With("not_eligible", resp.NotEligible)
	}

	for _, v := range eligible {
		prevStatus, prevVersion := v.Status, v.UpdatedAt
		if err := s.policy.Cancel(v, entity.CancelledByCustomer, req.Reason, now); err != nil {
			resp.Failed = append(resp.Failed, response.FailedVisit{VisitID: v.ID.String(), Error: apperr.MessageOf(err)})
			continue
		}
		v.UpdatedAt = now

		audit := newAudit(v, identity, entity.AuditActionCancel, cancelChanges(prevStatus, v), now)
		if err := s.persist(ctx, v, prevStatus, prevVersion, audit); err != nil {
			s.log.Warn("Bulk cancel item failed", zap.Error(err), zap.String("visit_id", v.ID.String()))
			resp.Failed = append(resp.Failed, response.FailedVisit{VisitID: v.ID.String(), Error: apperr.MessageOf(err)})
			continue
		}

		s.metrics.IncTransition(string(v.Status), "cancel_all")
		resp.Cancelled = append(resp.Cancelled, response.CancelledVisit{VisitID: v.ID.String(), StoreID: v.StoreID.String()})
		s.notifier.Dispatch(bulkCancelledStoreNotice(v))
	}

	if len(resp.Cancelled) > 0 {
		s.notifier.Dispatch(bulkCancelledCustomerNotice(identity.UserID, len(resp.Cancelled)))
	}

	s.log.Info("Bulk cancel finished",
		zap.String("customer_id", identity.UserID.String()),
		zap.Int("cancelled", len(resp.Cancelled)),
		zap.Int("not_eligible", len(resp.NotEligible)),
		zap.Int("failed", len(resp.Failed)))

	return resp, nil
}

func (s *visitService) Edit(ctx context.Context, identity utils.Identity, visitID string, req *request.EditVisitRequest) (*response.EditVisitResponse, error) {
	v, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(identity, v); err != nil {
		return nil, err
	}
	if err := lifecycle.CheckEditKeys(req.Keys); err != nil {
		return nil, err
	}

	patch := lifecycle.EditPatch{
		ScheduledDate:   req.ScheduledDate,
		ScheduledTime:   req.ScheduledTime,
		NumberOfPeople:  req.NumberOfPeople,
		CustomerNotes:   req.CustomerNotes,
		SpecialRequests: req.SpecialRequests,
	}
	if patch.IsEmpty() {
		return nil, apperr.New(apperr.KindValidation, "no editable fields provided").
			With("allowed_fields", lifecycle.EditableFields())
	}

	now := stamp(s.clock)
	prevStatus, prevVersion := v.Status, v.UpdatedAt
	changes, err := s.policy.Edit(v, patch, now)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return &response.EditVisitResponse{Visit: response.VisitToResponse(v), Changes: changes}, nil
	}
	v.UpdatedAt = now

	audit := newAudit(v, identity, entity.AuditActionEdit, changes, now)
	if err := s.persist(ctx, v, prevStatus, prevVersion, audit); err != nil {
		return nil, err
	}

	s.log.Info("Visit edited",
		zap.String("visit_id", v.ID.String()),
		zap.Int("changed_fields", len(changes)))

	return &response.EditVisitResponse{Visit: response.VisitToResponse(v), Changes: changes}, nil
}

func (s *visitService) Reschedule(ctx context.Context, identity utils.Identity, visitID string, req *request.RescheduleVisitRequest) (*response.VisitResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	v, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, identity, v.StoreID, "reschedule visits of"); err != nil {
		return nil, err
	}
	if v.Status != entity.VisitStatusScheduled {
		return nil, apperr.Newf(apperr.KindNotFound, "scheduled visit %s not found", visitID)
	}

	by := req.RescheduledBy
	if by == "" {
		by = entity.RescheduledByStore
	}

	now := stamp(s.clock)
	prevStatus, prevVersion := v.Status, v.UpdatedAt
	changes, err := s.policy.Reschedule(v, req.NewDate, req.NewTime, by, req.Notes, now)
	if err != nil {
		return nil, err
	}
	v.UpdatedAt = now

	audit := newAudit(v, identity, entity.AuditActionReschedule, changes, now)
	if err := s.persist(ctx, v, prevStatus, prevVersion, audit); err != nil {
		return nil, err
	}
	s.metrics.IncTransition(string(v.Status), "reschedule")
	s.notifier.Dispatch(rescheduledNotice(v))

	s.log.Info("Visit rescheduled",
		zap.String("visit_id", v.ID.String()),
		zap.String("slot", slot(v)))

	resp := response.VisitToResponse(v)
	return &resp, nil
}

// UpdateStatus is the manual override used by store staff.
func (s *visitService) UpdateStatus(ctx context.Context, identity utils.Identity, visitID string, req *request.UpdateVisitStatusRequest) (*response.VisitResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	v, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, identity, v.StoreID, "change visits of"); err != nil {
		return nil, err
	}

	now := stamp(s.clock)
	prevStatus, prevVersion := v.Status, v.UpdatedAt
	to := entity.VisitStatus(req.Status)
	if err := s.policy.Override(v, to, now); err != nil {
		return nil, err
	}
	v.UpdatedAt = now

	changes := map[string]entity.FieldChange{"status": {From: prevStatus, To: v.Status}}
	audit := newAudit(v, identity, entity.AuditActionOverride, changes, now)
	if err := s.persist(ctx, v, prevStatus, prevVersion, audit); err != nil {
		return nil, err
	}
	s.metrics.IncTransition(string(v.Status), "override")

	if v.Status == entity.VisitStatusCancelled {
		s.notifier.Dispatch(cancelledNotice(v, entity.AudienceCustomer))
	}

	s.log.Info("Visit status overridden",
		zap.String("visit_id", v.ID.String()),
		zap.String("from", string(prevStatus)),
		zap.String("to", string(v.Status)))

	resp := response.VisitToResponse(v)
	return &resp, nil
}

func (s *visitService) UseDiscount(ctx context.Context, identity utils.Identity, req *request.UseDiscountRequest) (*response.UseDiscountResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	v, err := s.load(ctx, req.VisitID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(identity, v); err != nil {
		return nil, err
	}

	now := stamp(s.clock)
	if err := s.policy.UseDiscount(v, now); err != nil {
		return nil, err
	}

	used, err := s.repo.Visit.MarkDiscountUsed(ctx, v.ID, now)
	if err != nil {
		return nil, s.internal(err, "failed to use discount")
	}
	if !used {
		// another request redeemed it between our read and write
		return nil, apperr.New(apperr.KindInvalidState, "discount already used")
	}

	s.log.Info("Discount used",
		zap.String("visit_id", v.ID.String()),
		zap.Stringp("discount_code", v.DiscountCode))

	return &response.UseDiscountResponse{
		VisitID:      v.ID.String(),
		DiscountCode: v.DiscountCode,
		UsedAt:       now,
	}, nil
}

// ==================== HELPER METHODS ====================

func (s *visitService) load(ctx context.Context, visitID string) (*entity.Visit, error) {
	id, err := uuid.Parse(visitID)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid visit ID")
	}

	v, err := s.repo.Visit.FindByID(ctx, id)
	if err != nil {
		return nil, s.internal(err, "failed to find visit")
	}
	if v == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "visit %s not found", visitID)
	}
	return v, nil
}

// requireStaff passes admins, the store manager and the store's staff members.
func (s *visitService) requireStaff(ctx context.Context, identity utils.Identity, storeID uuid.UUID, action string) error {
	if identity.Role == string(entity.RoleAdmin) {
		return nil
	}
	ok, err := s.repo.Store.IsStaff(ctx, storeID, identity.UserID)
	if err != nil {
		return s.internal(err, "failed to check store membership")
	}
	if !ok {
		return apperr.Newf(apperr.KindForbidden, "only staff of this store can %s it", action)
	}
	return nil
}

func requireOwner(identity utils.Identity, v *entity.Visit) error {
	if v.CustomerID != identity.UserID {
		return apperr.New(apperr.KindForbidden, "visit belongs to another customer")
	}
	return nil
}

// persist writes v guarded by its previous status and version, together with
// the audit entry when there is one.
func (s *visitService) persist(ctx context.Context, v *entity.Visit, prevStatus entity.VisitStatus, prevVersion time.Time, audit *entity.VisitAudit) error {
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Visit.UpdateGuarded(ctx, v, prevStatus, prevVersion); err != nil {
			return err
		}
		if audit != nil {
			return tx.Audit.Create(ctx, audit)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			s.log.Warn("Lost visit update", zap.String("visit_id", v.ID.String()))
		}
		return s.internal(err, "failed to update visit")
	}
	return nil
}

// internal passes classified errors through and wraps the rest.
func (s *visitService) internal(err error, message string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	s.log.Error(message, zap.Error(err))
	return apperr.Wrap(apperr.KindInternal, err, message)
}

func newAudit(v *entity.Visit, identity utils.Identity, action entity.AuditAction, changes map[string]entity.FieldChange, now time.Time) *entity.VisitAudit {
	audit := &entity.VisitAudit{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
		VisitID:    v.ID,
		Action:     action,
		Changes:    changes,
	}
	if !identity.IsZero() {
		actor := identity.UserID
		audit.ActorID = &actor
	}
	return audit
}

func cancelChanges(prev entity.VisitStatus, v *entity.Visit) map[string]entity.FieldChange {
	changes := map[string]entity.FieldChange{
		"status": {From: prev, To: v.Status},
	}
	if v.CancellationReason != nil {
		changes["cancellation_reason"] = entity.FieldChange{From: nil, To: *v.CancellationReason}
	}
	return changes
}
