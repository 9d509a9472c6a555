package response

import (
	"time"

	"bondoutfit/internal/data/entity"
	"bondoutfit/pkg/utils"
)

type VisitResponse struct {
	ID              string             `json:"id"`
	CustomerID      string             `json:"customer_id"`
	StoreID         string             `json:"store_id"`
	DiscountID      *string            `json:"discount_id,omitempty"`
	ScheduledDate   string             `json:"scheduled_date"`
	ScheduledTime   string             `json:"scheduled_time"`
	NumberOfPeople  int                `json:"number_of_people"`
	CustomerNotes   *string            `json:"customer_notes,omitempty"`
	SpecialRequests *string            `json:"special_requests,omitempty"`
	Status          entity.VisitStatus `json:"status"`

	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	LastScanAt  *time.Time `json:"last_scan_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancelledBy        *entity.CancelledBy `json:"cancelled_by,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	MissedAt           *time.Time          `json:"missed_at,omitempty"`

	RescheduledAt   *time.Time `json:"rescheduled_at,omitempty"`
	RescheduledBy   *string    `json:"rescheduled_by,omitempty"`
	RescheduleNotes *string    `json:"reschedule_notes,omitempty"`

	DiscountUnlocked bool       `json:"discount_unlocked"`
	DiscountUsed     bool       `json:"discount_used"`
	DiscountCode     *string    `json:"discount_code,omitempty"`
	DiscountUsedAt   *time.Time `json:"discount_used_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuditResponse struct {
	ID        string                        `json:"id"`
	ActorID   *string                       `json:"actor_id,omitempty"`
	Action    entity.AuditAction            `json:"action"`
	Changes   map[string]entity.FieldChange `json:"changes"`
	CreatedAt time.Time                     `json:"created_at"`
}

type VisitDetailResponse struct {
	VisitResponse
	History []AuditResponse `json:"history"`
}

type EditVisitResponse struct {
	Visit   VisitResponse                 `json:"visit"`
	Changes map[string]entity.FieldChange `json:"changes"`
}

type ScanResponse struct {
	Action           string        `json:"action"`
	Visit            VisitResponse `json:"visit"`
	DiscountUnlocked bool          `json:"discount_unlocked"`
	DiscountCode     *string       `json:"discount_code,omitempty"`
}

// QRPayload is the unsigned JSON encoded into a visit's QR code.
type QRPayload struct {
	VisitID       string `json:"visit_id"`
	StoreID       string `json:"store_id"`
	CustomerID    string `json:"customer_id"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	People        int    `json:"number_of_people"`
}

type QRResponse struct {
	QRData  string    `json:"qr_data"`
	Payload QRPayload `json:"payload"`
}

type CancelledVisit struct {
	VisitID string `json:"visit_id"`
	StoreID string `json:"store_id"`
}

type IneligibleVisit struct {
	VisitID        string  `json:"visit_id"`
	ScheduledDate  string  `json:"scheduled_date"`
	ScheduledTime  string  `json:"scheduled_time"`
	HoursRemaining float64 `json:"hours_remaining"`
	Reason         string  `json:"reason"`
}

type FailedVisit struct {
	VisitID string `json:"visit_id"`
	Error   string `json:"error"`
}

type CancelAllResponse struct {
	Cancelled   []CancelledVisit  `json:"cancelled"`
	NotEligible []IneligibleVisit `json:"not_eligible"`
	Failed      []FailedVisit     `json:"failed"`
}

type UseDiscountResponse struct {
	VisitID      string    `json:"visit_id"`
	DiscountCode *string   `json:"discount_code,omitempty"`
	UsedAt       time.Time `json:"used_at"`
}

func VisitToResponse(v *entity.Visit) VisitResponse {
	resp := VisitResponse{
		ID:                 v.ID.String(),
		CustomerID:         v.CustomerID.String(),
		StoreID:            v.StoreID.String(),
		ScheduledDate:      v.ScheduledDate.Format(utils.DateLayout),
		ScheduledTime:      v.ScheduledTime,
		NumberOfPeople:     v.NumberOfPeople,
		CustomerNotes:      v.CustomerNotes,
		SpecialRequests:    v.SpecialRequests,
		Status:             v.Status,
		CheckedIn:          v.CheckedIn,
		CheckedInAt:        v.CheckedInAt,
		LastScanAt:         v.LastScanAt,
		CompletedAt:        v.CompletedAt,
		CancelledAt:        v.CancelledAt,
		CancelledBy:        v.CancelledBy,
		CancellationReason: v.CancellationReason,
		MissedAt:           v.MissedAt,
		RescheduledAt:      v.RescheduledAt,
		RescheduledBy:      v.RescheduledBy,
		RescheduleNotes:    v.RescheduleNotes,
		DiscountUnlocked:   v.DiscountUnlocked,
		DiscountUsed:       v.DiscountUsed,
		DiscountCode:       v.DiscountCode,
		DiscountUsedAt:     v.DiscountUsedAt,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}

	if v.DiscountID != nil {
		id := v.DiscountID.String()
		resp.DiscountID = &id
	}

	return resp
}

func AuditToResponse(a *entity.VisitAudit) AuditResponse {
	resp := AuditResponse{
		ID:        a.ID.String(),
		Action:    a.Action,
		Changes:   a.Changes,
		CreatedAt: a.CreatedAt,
	}
	if a.ActorID != nil {
		id := a.ActorID.String()
		resp.ActorID = &id
	}
	return resp
}

func VisitToQRPayload(v *entity.Visit) QRPayload {
	return QRPayload{
		VisitID:       v.ID.String(),
		StoreID:       v.StoreID.String(),
		CustomerID:    v.CustomerID.String(),
		ScheduledDate: v.ScheduledDate.Format(utils.DateLayout),
		ScheduledTime: v.ScheduledTime,
		People:        v.NumberOfPeople,
	}
}
