package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type VisitStatus string

const (
	VisitStatusScheduled VisitStatus = "SCHEDULED"
	VisitStatusCheckedIn VisitStatus = "CHECKED_IN"
	VisitStatusCompleted VisitStatus = "COMPLETED"
	VisitStatusMissed    VisitStatus = "MISSED"
	VisitStatusCancelled VisitStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition can leave the status.
func (s VisitStatus) IsTerminal() bool {
	switch s {
	case VisitStatusCompleted, VisitStatusMissed, VisitStatusCancelled:
		return true
	default:
		return false
	}
}

func (s VisitStatus) IsValid() bool {
	switch s {
	case VisitStatusScheduled, VisitStatusCheckedIn, VisitStatusCompleted, VisitStatusMissed, VisitStatusCancelled:
		return true
	default:
		return false
	}
}

type CancelledBy string

const (
	CancelledByCustomer CancelledBy = "CUSTOMER"
	CancelledByStore    CancelledBy = "STORE"
)

// RescheduledByStore is recorded when staff reschedule without naming who asked.
const RescheduledByStore = "STORE"

type Visit struct {
	BaseNoDelete
	CustomerID uuid.UUID  `db:"customer_id"`
	StoreID    uuid.UUID  `db:"store_id"`
	DiscountID *uuid.UUID `db:"discount_id"`

	ScheduledDate   time.Time `db:"scheduled_date"`
	ScheduledTime   string    `db:"scheduled_time"`
	NumberOfPeople  int       `db:"number_of_people"`
	CustomerNotes   *string   `db:"customer_notes"`
	SpecialRequests *string   `db:"special_requests"`

	Status VisitStatus `db:"status"`

	CheckedIn   bool       `db:"checked_in"`
	CheckedInAt *time.Time `db:"checked_in_at"`
	LastScanAt  *time.Time `db:"last_scan_at"`
	CompletedAt *time.Time `db:"completed_at"`

	CancelledAt        *time.Time   `db:"cancelled_at"`
	CancelledBy        *CancelledBy `db:"cancelled_by"`
	CancellationReason *string      `db:"cancellation_reason"`

	MissedAt *time.Time `db:"missed_at"`

	RescheduledAt   *time.Time `db:"rescheduled_at"`
	RescheduledBy   *string    `db:"rescheduled_by"`
	RescheduleNotes *string    `db:"reschedule_notes"`

	DiscountUnlocked bool       `db:"discount_unlocked"`
	DiscountUsed     bool       `db:"discount_used"`
	DiscountCode     *string    `db:"discount_code"`
	DiscountUsedAt   *time.Time `db:"discount_used_at"`
}

// ScheduledAt combines the scheduled date and HH:MM time into an instant in loc.
func (v *Visit) ScheduledAt(loc *time.Location) (time.Time, error) {
	return CombineDateTime(v.ScheduledDate, v.ScheduledTime, loc)
}

// CombineDateTime interprets date's calendar day and an HH:MM clock in loc.
func CombineDateTime(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scheduled time %q: %w", clock, err)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
}
