package lifecycle

import (
	"time"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
)

type SweepAction int

const (
	SweepNone SweepAction = iota
	SweepWarn
	SweepMarkMissed
	SweepAutoComplete
)

func (a SweepAction) String() string {
	switch a {
	case SweepWarn:
		return "warn"
	case SweepMarkMissed:
		return "mark_missed"
	case SweepAutoComplete:
		return "auto_complete"
	default:
		return "none"
	}
}

// Classify decides what the periodic sweep should do with v at now.
func (p Policy) Classify(v *entity.Visit, now time.Time) SweepAction {
	switch {
	case v.Status == entity.VisitStatusScheduled && !v.CheckedIn && v.CancelledAt == nil:
		at, err := p.ScheduledAt(v)
		if err != nil {
			return SweepNone
		}
		elapsed := now.Sub(at)
		if elapsed > p.MissedAfter {
			return SweepMarkMissed
		}
		if elapsed >= p.WarnAfter {
			return SweepWarn
		}
	case v.Status == entity.VisitStatusCheckedIn && v.CheckedInAt != nil && v.CompletedAt == nil:
		if now.Sub(*v.CheckedInAt) > p.StaleCheckInAfter {
			return SweepAutoComplete
		}
	}
	return SweepNone
}

// MarkMissed closes a no-show visit.
func (p Policy) MarkMissed(v *entity.Visit, now time.Time) error {
	if v.Status != entity.VisitStatusScheduled || v.CheckedIn || v.CancelledAt != nil {
		return apperr.Newf(apperr.KindInvalidState, "cannot mark a %s visit as missed", v.Status).
			With("status", v.Status)
	}
	v.Status = entity.VisitStatusMissed
	v.MissedAt = timePtr(now)
	return nil
}

// AutoComplete closes a visit whose customer checked in but never scanned out.
func (p Policy) AutoComplete(v *entity.Visit, now time.Time) error {
	if v.Status != entity.VisitStatusCheckedIn || !v.CheckedIn {
		return apperr.Newf(apperr.KindInvalidState, "cannot auto-complete a %s visit", v.Status).
			With("status", v.Status)
	}
	v.Status = entity.VisitStatusCompleted
	v.CompletedAt = timePtr(now)
	return nil
}
