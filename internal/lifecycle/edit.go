package lifecycle

import (
	"sort"
	"strings"
	"time"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
	"bondoutfit/pkg/utils"
)

const (
	FieldScheduledDate   = "scheduled_date"
	FieldScheduledTime   = "scheduled_time"
	FieldNumberOfPeople  = "number_of_people"
	FieldCustomerNotes   = "customer_notes"
	FieldSpecialRequests = "special_requests"
)

var editableFields = map[string]bool{
	FieldScheduledDate:   true,
	FieldScheduledTime:   true,
	FieldNumberOfPeople:  true,
	FieldCustomerNotes:   true,
	FieldSpecialRequests: true,
}

// EditableFields lists the fields a customer may change, sorted.
func EditableFields() []string {
	out := make([]string, 0, len(editableFields))
	for f := range editableFields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// CheckEditKeys rejects any key outside the allow-list, naming all of them.
func CheckEditKeys(keys []string) error {
	var bad []string
	for _, k := range keys {
		if !editableFields[k] {
			bad = append(bad, k)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return apperr.Newf(apperr.KindValidation, "fields not editable: %s", strings.Join(bad, ", ")).
		With("disallowed_fields", bad).
		With("allowed_fields", EditableFields())
}

// EditPatch holds the allowed fields of a customer edit. Nil means unchanged.
type EditPatch struct {
	ScheduledDate   *string
	ScheduledTime   *string
	NumberOfPeople  *int
	CustomerNotes   *string
	SpecialRequests *string
}

func (e EditPatch) IsEmpty() bool {
	return e.ScheduledDate == nil && e.ScheduledTime == nil && e.NumberOfPeople == nil &&
		e.CustomerNotes == nil && e.SpecialRequests == nil
}

// Edit validates and applies a customer edit, returning the changed fields.
// On error v is left untouched.
func (p Policy) Edit(v *entity.Visit, patch EditPatch, now time.Time) (map[string]entity.FieldChange, error) {
	if v.Status != entity.VisitStatusScheduled || v.CheckedIn {
		return nil, apperr.Newf(apperr.KindInvalidState, "only scheduled visits can be edited, visit is %s", v.Status).
			With("status", v.Status)
	}
	if err := p.requireLead(v, now, p.EditLead, "edit"); err != nil {
		return nil, err
	}

	fieldErrs := map[string]string{}
	date := v.ScheduledDate
	clock := v.ScheduledTime

	if patch.ScheduledDate != nil {
		d, err := time.ParseInLocation(utils.DateLayout, *patch.ScheduledDate, p.Location)
		if err != nil {
			fieldErrs[FieldScheduledDate] = "must be a date in YYYY-MM-DD format"
		} else {
			date = d
		}
	}
	if patch.ScheduledTime != nil {
		if !utils.IsClockTime(*patch.ScheduledTime) {
			fieldErrs[FieldScheduledTime] = "must be a time in HH:MM format"
		} else {
			clock = *patch.ScheduledTime
		}
	}
	if patch.NumberOfPeople != nil && (*patch.NumberOfPeople < MinPeople || *patch.NumberOfPeople > MaxPeople) {
		fieldErrs[FieldNumberOfPeople] = "must be between 1 and 20"
	}
	if len(fieldErrs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "invalid visit changes").With("fields", fieldErrs)
	}

	if patch.ScheduledDate != nil || patch.ScheduledTime != nil {
		at, err := entity.CombineDateTime(date, clock, p.Location)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, err, "invalid scheduled time")
		}
		if !at.After(now) {
			return nil, apperr.New(apperr.KindValidation, "new schedule must be in the future").
				With("scheduled_at", at)
		}
	}

	changes := map[string]entity.FieldChange{}
	oldDate := v.ScheduledDate.Format(utils.DateLayout)
	if newDate := date.Format(utils.DateLayout); newDate != oldDate {
		changes[FieldScheduledDate] = entity.FieldChange{From: oldDate, To: newDate}
		v.ScheduledDate = date
	}
	if clock != v.ScheduledTime {
		changes[FieldScheduledTime] = entity.FieldChange{From: v.ScheduledTime, To: clock}
		v.ScheduledTime = clock
	}
	if patch.NumberOfPeople != nil && *patch.NumberOfPeople != v.NumberOfPeople {
		changes[FieldNumberOfPeople] = entity.FieldChange{From: v.NumberOfPeople, To: *patch.NumberOfPeople}
		v.NumberOfPeople = *patch.NumberOfPeople
	}
	if patch.CustomerNotes != nil && deref(v.CustomerNotes) != *patch.CustomerNotes {
		changes[FieldCustomerNotes] = entity.FieldChange{From: v.CustomerNotes, To: *patch.CustomerNotes}
		v.CustomerNotes = strPtr(*patch.CustomerNotes)
	}
	if patch.SpecialRequests != nil && deref(v.SpecialRequests) != *patch.SpecialRequests {
		changes[FieldSpecialRequests] = entity.FieldChange{From: v.SpecialRequests, To: *patch.SpecialRequests}
		v.SpecialRequests = strPtr(*patch.SpecialRequests)
	}
	return changes, nil
}

// Reschedule moves a scheduled visit to a new future slot. Staff and
// customers share this path; who asked is recorded in RescheduledBy.
func (p Policy) Reschedule(v *entity.Visit, newDate, newTime string, by string, notes *string, now time.Time) (map[string]entity.FieldChange, error) {
	if v.Status != entity.VisitStatusScheduled || v.CheckedIn {
		return nil, apperr.Newf(apperr.KindInvalidState, "only scheduled visits can be rescheduled, visit is %s", v.Status).
			With("status", v.Status)
	}

	fieldErrs := map[string]string{}
	date, err := time.ParseInLocation(utils.DateLayout, newDate, p.Location)
	if err != nil {
		fieldErrs["new_date"] = "must be a date in YYYY-MM-DD format"
	}
	if !utils.IsClockTime(newTime) {
		fieldErrs["new_time"] = "must be a time in HH:MM format"
	}
	if len(fieldErrs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "invalid reschedule request").With("fields", fieldErrs)
	}

	at, err := entity.CombineDateTime(date, newTime, p.Location)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "invalid scheduled time")
	}
	if !at.After(now) {
		return nil, apperr.New(apperr.KindValidation, "new schedule must be in the future").
			With("scheduled_at", at)
	}

	changes := map[string]entity.FieldChange{}
	oldDate := v.ScheduledDate.Format(utils.DateLayout)
	if newDate != oldDate {
		changes[FieldScheduledDate] = entity.FieldChange{From: oldDate, To: newDate}
	}
	if newTime != v.ScheduledTime {
		changes[FieldScheduledTime] = entity.FieldChange{From: v.ScheduledTime, To: newTime}
	}

	v.ScheduledDate = date
	v.ScheduledTime = newTime
	v.RescheduledAt = timePtr(now)
	if by = strings.TrimSpace(by); by != "" {
		v.RescheduledBy = strPtr(by)
	}
	if notes != nil && strings.TrimSpace(*notes) != "" {
		v.RescheduleNotes = strPtr(strings.TrimSpace(*notes))
	}
	return changes, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
