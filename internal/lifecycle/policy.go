// Package lifecycle decides which visit transitions are legal and applies
// their side effects to an in-memory visit. It never touches storage; callers
// persist the result with a guarded update.
package lifecycle

import (
	"math"
	"time"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
	"bondoutfit/pkg/utils"
)

const (
	MinPeople = 1
	MaxPeople = 20
)

// Policy holds the time bounds of the visit lifecycle.
type Policy struct {
	CheckInWindow      time.Duration
	EditLead           time.Duration
	BulkCancelLead     time.Duration
	CancelLead         time.Duration
	MissedAfter        time.Duration
	WarnAfter          time.Duration
	StaleCheckInAfter  time.Duration
	SingleScan         bool
	DiscountCodePrefix string
	Location           *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		CheckInWindow:      2 * time.Hour,
		EditLead:           2 * time.Hour,
		BulkCancelLead:     1 * time.Hour,
		CancelLead:         0,
		MissedAfter:        2 * time.Hour,
		WarnAfter:          30 * time.Minute,
		StaleCheckInAfter:  4 * time.Hour,
		DiscountCodePrefix: "SVD-",
		Location:           time.UTC,
	}
}

// PolicyFromConfig builds a policy from configuration, falling back to the
// defaults for unset durations.
func PolicyFromConfig(cfg utils.VisitConfig, loc *time.Location) Policy {
	p := DefaultPolicy()
	if cfg.CheckInWindow > 0 {
		p.CheckInWindow = cfg.CheckInWindow
	}
	if cfg.EditLead > 0 {
		p.EditLead = cfg.EditLead
	}
	if cfg.BulkCancelLead > 0 {
		p.BulkCancelLead = cfg.BulkCancelLead
	}
	if cfg.CancelLead > 0 {
		p.CancelLead = cfg.CancelLead
	}
	if cfg.MissedAfter > 0 {
		p.MissedAfter = cfg.MissedAfter
	}
	if cfg.WarnAfter > 0 {
		p.WarnAfter = cfg.WarnAfter
	}
	if cfg.StaleCheckInAfter > 0 {
		p.StaleCheckInAfter = cfg.StaleCheckInAfter
	}
	if cfg.DiscountCodePrefix != "" {
		p.DiscountCodePrefix = cfg.DiscountCodePrefix
	}
	p.SingleScan = cfg.SingleScan
	if loc != nil {
		p.Location = loc
	}
	return p
}

// ScheduledAt returns the visit's scheduled instant in the policy timezone.
func (p Policy) ScheduledAt(v *entity.Visit) (time.Time, error) {
	at, err := v.ScheduledAt(p.Location)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.KindValidation, err, "visit has an invalid scheduled time")
	}
	return at, nil
}

// CanTransition reports whether from -> to is an edge of the state machine.
// SCHEDULED -> COMPLETED exists only under the single-scan policy.
func (p Policy) CanTransition(from, to entity.VisitStatus) bool {
	for _, s := range p.transitions()[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (p Policy) transitions() map[entity.VisitStatus][]entity.VisitStatus {
	scheduled := []entity.VisitStatus{
		entity.VisitStatusCheckedIn,
		entity.VisitStatusMissed,
		entity.VisitStatusCancelled,
	}
	if p.SingleScan {
		scheduled = append(scheduled, entity.VisitStatusCompleted)
	}
	return map[entity.VisitStatus][]entity.VisitStatus{
		entity.VisitStatusScheduled: scheduled,
		entity.VisitStatusCheckedIn: {entity.VisitStatusCompleted},
		entity.VisitStatusCompleted: nil,
		entity.VisitStatusMissed:    nil,
		entity.VisitStatusCancelled: nil,
	}
}

func hoursBetween(from, to time.Time) float64 {
	return math.Round(to.Sub(from).Hours()*100) / 100
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func strPtr(s string) *string {
	return &s
}
