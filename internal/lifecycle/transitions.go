package lifecycle

import (
	"fmt"
	"math"
	"strings"
	"time"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
	"bondoutfit/pkg/utils"
)

type ScanAction string

const (
	ScanAuto     ScanAction = ""
	ScanCheckIn  ScanAction = "check-in"
	ScanComplete ScanAction = "complete"
)

func ParseScanAction(s string) (ScanAction, error) {
	switch ScanAction(strings.TrimSpace(s)) {
	case ScanAuto:
		return ScanAuto, nil
	case ScanCheckIn:
		return ScanCheckIn, nil
	case ScanComplete:
		return ScanComplete, nil
	default:
		return "", apperr.Newf(apperr.KindValidation, "invalid scan action %q", s).
			With("allowed", []string{string(ScanCheckIn), string(ScanComplete)})
	}
}

// Scan applies a QR scan: an explicit action, or the next step for the visit
// when action is ScanAuto (first scan checks in, second completes).
func (p Policy) Scan(v *entity.Visit, action ScanAction, now time.Time) (ScanAction, error) {
	if action == ScanAuto {
		action = ScanCheckIn
		if v.CheckedIn {
			action = ScanComplete
		}
	}

	switch action {
	case ScanCheckIn:
		return action, p.CheckIn(v, now)
	case ScanComplete:
		return action, p.Complete(v, now)
	default:
		return action, apperr.Newf(apperr.KindValidation, "invalid scan action %q", action)
	}
}

// CheckIn marks the customer as arrived and unlocks the visit discount.
func (p Policy) CheckIn(v *entity.Visit, now time.Time) error {
	if v.CheckedIn || v.Status == entity.VisitStatusCheckedIn {
		err := apperr.New(apperr.KindInvalidState, "visit already checked in")
		if v.CheckedInAt != nil {
			err.With("checked_in_at", v.CheckedInAt.UTC())
		}
		return err
	}
	if v.Status != entity.VisitStatusScheduled {
		return apperr.Newf(apperr.KindInvalidState, "cannot check in a %s visit", v.Status).
			With("status", v.Status)
	}

	at, err := p.ScheduledAt(v)
	if err != nil {
		return err
	}
	offset := now.Sub(at)
	if offset < -p.CheckInWindow {
		return apperr.New(apperr.KindInvalidState, "check-in is not open yet").
			With("scheduled_at", at).
			With("minutes_early", int(math.Ceil(-offset.Minutes()))).
			With("window_minutes", int(p.CheckInWindow.Minutes()))
	}
	if offset > p.CheckInWindow {
		return apperr.New(apperr.KindInvalidState, "check-in window has closed").
			With("scheduled_at", at).
			With("minutes_late", int(math.Floor(offset.Minutes()))).
			With("window_minutes", int(p.CheckInWindow.Minutes()))
	}

	v.CheckedIn = true
	v.CheckedInAt = timePtr(now)
	v.LastScanAt = timePtr(now)
	v.Status = entity.VisitStatusCheckedIn
	if p.SingleScan {
		v.Status = entity.VisitStatusCompleted
		v.CompletedAt = timePtr(now)
	}
	p.unlockDiscount(v)
	return nil
}

func (p Policy) unlockDiscount(v *entity.Visit) {
	if v.DiscountID == nil || v.DiscountUnlocked {
		return
	}
	if v.DiscountCode == nil {
		v.DiscountCode = strPtr(utils.GenerateDiscountCode(p.DiscountCodePrefix, v.ID))
	}
	v.DiscountUnlocked = true
}

// Complete closes a checked-in visit (second scan).
func (p Policy) Complete(v *entity.Visit, now time.Time) error {
	if v.Status == entity.VisitStatusScheduled && !v.CheckedIn {
		return apperr.New(apperr.KindInvalidState, "visit has not been checked in yet").
			With("status", v.Status)
	}
	if v.Status != entity.VisitStatusCheckedIn || !v.CheckedIn {
		return apperr.Newf(apperr.KindInvalidState, "cannot complete a %s visit", v.Status).
			With("status", v.Status)
	}

	v.Status = entity.VisitStatusCompleted
	v.CompletedAt = timePtr(now)
	v.LastScanAt = timePtr(now)
	return nil
}

// Cancel cancels a visit that has not started. Customers are bound by
// CancelLead; stores are not.
func (p Policy) Cancel(v *entity.Visit, by entity.CancelledBy, reason *string, now time.Time) error {
	if v.Status.IsTerminal() {
		return apperr.Newf(apperr.KindInvalidState, "visit is already %s", v.Status).
			With("status", v.Status)
	}
	if v.CheckedIn || v.Status == entity.VisitStatusCheckedIn {
		return apperr.New(apperr.KindInvalidState, "checked-in visits cannot be cancelled").
			With("status", v.Status)
	}

	if by == entity.CancelledByCustomer {
		if err := p.requireLead(v, now, p.CancelLead, "cancel"); err != nil {
			return err
		}
	}

	v.Status = entity.VisitStatusCancelled
	v.CancelledAt = timePtr(now)
	cancelledBy := by
	v.CancelledBy = &cancelledBy
	if reason != nil && strings.TrimSpace(*reason) != "" {
		v.CancellationReason = strPtr(strings.TrimSpace(*reason))
	}
	return nil
}

// BulkCancelEligible checks the stricter lead time used by cancel-all.
func (p Policy) BulkCancelEligible(v *entity.Visit, now time.Time) error {
	if v.Status != entity.VisitStatusScheduled || v.CheckedIn {
		return apperr.Newf(apperr.KindInvalidState, "visit is %s", v.Status).With("status", v.Status)
	}
	return p.requireLead(v, now, p.BulkCancelLead, "cancel")
}

func (p Policy) requireLead(v *entity.Visit, now time.Time, lead time.Duration, action string) error {
	at, err := p.ScheduledAt(v)
	if err != nil {
		return err
	}
	if at.Sub(now) < lead {
		return apperr.Newf(apperr.KindInvalidState,
			"visits can only be %sed at least %s before the scheduled time", action, formatLead(lead)).
			With("hours_remaining", hoursBetween(now, at)).
			With("required_hours", lead.Hours())
	}
	return nil
}

// formatLead renders d at minute precision, e.g. "30m", "1h30m", "2h".
func formatLead(d time.Duration) string {
	d = d.Truncate(time.Minute)
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// UseDiscount redeems an unlocked discount once.
func (p Policy) UseDiscount(v *entity.Visit, now time.Time) error {
	if !v.DiscountUnlocked {
		return apperr.New(apperr.KindInvalidState, "discount is not unlocked for this visit")
	}
	if v.DiscountUsed {
		err := apperr.New(apperr.KindInvalidState, "discount already used")
		if v.DiscountUsedAt != nil {
			err.With("used_at", v.DiscountUsedAt.UTC())
		}
		return err
	}
	v.DiscountUsed = true
	v.DiscountUsedAt = timePtr(now)
	return nil
}

// Override forces a transition chosen by store staff, with the same stamps the
// automatic transitions would set. The check-in window is not enforced.
func (p Policy) Override(v *entity.Visit, to entity.VisitStatus, now time.Time) error {
	if !to.IsValid() {
		return apperr.Newf(apperr.KindValidation, "unknown status %q", to)
	}
	if !p.CanTransition(v.Status, to) {
		return apperr.Newf(apperr.KindInvalidState, "cannot change status from %s to %s", v.Status, to).
			With("from", v.Status).
			With("to", to)
	}

	switch to {
	case entity.VisitStatusCheckedIn:
		v.CheckedIn = true
		v.CheckedInAt = timePtr(now)
		v.LastScanAt = timePtr(now)
		p.unlockDiscount(v)
	case entity.VisitStatusCompleted:
		if !v.CheckedIn {
			v.CheckedIn = true
			v.CheckedInAt = timePtr(now)
			p.unlockDiscount(v)
		}
		v.CompletedAt = timePtr(now)
	case entity.VisitStatusMissed:
		v.MissedAt = timePtr(now)
	case entity.VisitStatusCancelled:
		return p.Cancel(v, entity.CancelledByStore, nil, now)
	}
	v.Status = to
	return nil
}
