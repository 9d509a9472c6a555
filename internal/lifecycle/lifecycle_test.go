package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
)

var slot = time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

func newVisit(withDiscount bool) *entity.Visit {
	v := &entity.Visit{
		CustomerID:     uuid.New(),
		StoreID:        uuid.New(),
		ScheduledDate:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		ScheduledTime:  "14:00",
		NumberOfPeople: 2,
		Status:         entity.VisitStatusScheduled,
	}
	v.ID = uuid.MustParse("3f2a9c1b-0000-4000-8000-000000000001")
	if withDiscount {
		id := uuid.New()
		v.DiscountID = &id
	}
	return v
}

func TestCanTransition(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name  string
		from  entity.VisitStatus
		to    entity.VisitStatus
		allow bool
	}{
		{"scheduled to checked in", entity.VisitStatusScheduled, entity.VisitStatusCheckedIn, true},
		{"scheduled to missed", entity.VisitStatusScheduled, entity.VisitStatusMissed, true},
		{"scheduled to cancelled", entity.VisitStatusScheduled, entity.VisitStatusCancelled, true},
		{"checked in to completed", entity.VisitStatusCheckedIn, entity.VisitStatusCompleted, true},
		{"scheduled to completed needs single scan", entity.VisitStatusScheduled, entity.VisitStatusCompleted, false},
		{"checked in to cancelled", entity.VisitStatusCheckedIn, entity.VisitStatusCancelled, false},
		{"completed is terminal", entity.VisitStatusCompleted, entity.VisitStatusScheduled, false},
		{"missed is terminal", entity.VisitStatusMissed, entity.VisitStatusCheckedIn, false},
		{"cancelled is terminal", entity.VisitStatusCancelled, entity.VisitStatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allow, p.CanTransition(tt.from, tt.to))
		})
	}

	p.SingleScan = true
	assert.True(t, p.CanTransition(entity.VisitStatusScheduled, entity.VisitStatusCompleted))
}

func TestCheckInWindow(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		offset time.Duration
		ok     bool
	}{
		{"on time", 0, true},
		{"early edge", -2 * time.Hour, true},
		{"late edge", 2 * time.Hour, true},
		{"too early", -2*time.Hour - time.Minute, false},
		{"too late", 2*time.Hour + time.Minute, false},
		{"half hour late", 30 * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVisit(false)
			err := p.CheckIn(v, slot.Add(tt.offset))
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, entity.VisitStatusCheckedIn, v.Status)
				assert.True(t, v.CheckedIn)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
			assert.False(t, v.CheckedIn)
			assert.Equal(t, entity.VisitStatusScheduled, v.Status)
		})
	}
}

func TestCheckInUnlocksDiscount(t *testing.T) {
	p := DefaultPolicy()
	now := slot.Add(30 * time.Minute)
	v := newVisit(true)

	require.NoError(t, p.CheckIn(v, now))

	assert.True(t, v.DiscountUnlocked)
	require.NotNil(t, v.DiscountCode)
	assert.Equal(t, "SVD-3F2A9C1B", *v.DiscountCode)
	require.NotNil(t, v.CheckedInAt)
	assert.Equal(t, now, *v.CheckedInAt)
	assert.Equal(t, now, *v.LastScanAt)
}

func TestCheckInWithoutDiscount(t *testing.T) {
	p := DefaultPolicy()
	v := newVisit(false)

	require.NoError(t, p.CheckIn(v, slot))

	assert.False(t, v.DiscountUnlocked)
	assert.Nil(t, v.DiscountCode)
}

func TestCheckInTwice(t *testing.T) {
	p := DefaultPolicy()
	v := newVisit(true)
	first := slot.Add(-10 * time.Minute)
	require.NoError(t, p.CheckIn(v, first))
	code := *v.DiscountCode

	err := p.CheckIn(v, slot)
	require.Error(t, err)
	assert.Equal(t, "visit already checked in", apperr.MessageOf(err))
	assert.Equal(t, first.UTC(), apperr.DetailsOf(err)["checked_in_at"])
	assert.Equal(t, first, *v.CheckedInAt)
	assert.Equal(t, code, *v.DiscountCode)
}

func TestCheckInTerminalVisit(t *testing.T) {
	p := DefaultPolicy()
	for _, s := range []entity.VisitStatus{entity.VisitStatusCancelled, entity.VisitStatusMissed, entity.VisitStatusCompleted} {
		v := newVisit(false)
		v.Status = s
		err := p.CheckIn(v, slot)
		require.Error(t, err, s)
		assert.ErrorIs(t, err, apperr.InvalidState)
	}
}

func TestSingleScanCompletesOnCheckIn(t *testing.T) {
	p := DefaultPolicy()
	p.SingleScan = true
	v := newVisit(true)

	require.NoError(t, p.CheckIn(v, slot))

	assert.Equal(t, entity.VisitStatusCompleted, v.Status)
	assert.True(t, v.CheckedIn)
	assert.Equal(t, slot, *v.CompletedAt)
	assert.True(t, v.DiscountUnlocked)
}

func TestScanAutoAction(t *testing.T) {
	p := DefaultPolicy()
	v := newVisit(true)

	action, err := p.Scan(v, ScanAuto, slot)
	require.NoError(t, err)
	assert.Equal(t, ScanCheckIn, action)
	assert.Equal(t, entity.VisitStatusCheckedIn, v.Status)

	action, err = p.Scan(v, ScanAuto, slot.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ScanComplete, action)
	assert.Equal(t, entity.VisitStatusCompleted, v.Status)
	assert.True(t, v.DiscountUnlocked)

	_, err = p.Scan(v, ScanAuto, slot.Add(2*time.Hour))
	assert.ErrorIs(t, err, apperr.InvalidState)
}

func TestCompleteBeforeCheckIn(t *testing.T) {
	p := DefaultPolicy()
	v := newVisit(false)

	err := p.Complete(v, slot)
	require.Error(t, err)
	assert.Equal(t, "visit has not been checked in yet", apperr.MessageOf(err))
	assert.Equal(t, entity.VisitStatusScheduled, v.Status)
}

func TestParseScanAction(t *testing.T) {
	a, err := ParseScanAction("")
	require.NoError(t, err)
	assert.Equal(t, ScanAuto, a)

	a, err = ParseScanAction("complete")
	require.NoError(t, err)
	assert.Equal(t, ScanComplete, a)

	_, err = ParseScanAction("teleport")
	assert.ErrorIs(t, err, apperr.Validation)
}

func TestCancel(t *testing.T) {
	p := DefaultPolicy()
	now := slot.Add(-3 * time.Hour)
	reason := "  sick  "
	v := newVisit(false)

	require.NoError(t, p.Cancel(v, entity.CancelledByCustomer, &reason, now))

	assert.Equal(t, entity.VisitStatusCancelled, v.Status)
	assert.Equal(t, now, *v.CancelledAt)
	assert.Equal(t, entity.CancelledByCustomer, *v.CancelledBy)
	assert.Equal(t, "sick", *v.CancellationReason)

	err := p.Cancel(v, entity.CancelledByCustomer, nil, now)
	assert.ErrorIs(t, err, apperr.InvalidState)
}

func TestCancelRejectsCheckedIn(t *testing.T) {
	p := DefaultPolicy()
	v := newVisit(false)
	require.NoError(t, p.CheckIn(v, slot))

	err := p.Cancel(v, entity.CancelledByStore, nil, slot.Add(time.Minute))
	require.Error(t, err)
	assert.Equal(t, entity.VisitStatusCheckedIn, v.Status)
	assert.Nil(t, v.CancelledAt)
}

func TestCancelLeadAppliesToCustomersOnly(t *testing.T) {
	p := DefaultPolicy()
	p.CancelLead = time.Hour
	now := slot.Add(-30 * time.Minute)

	v := newVisit(false)
	err := p.Cancel(v, entity.CancelledByCustomer, nil, now)
	require.Error(t, err)
	assert.Equal(t, 0.5, apperr.DetailsOf(err)["hours_remaining"])

	require.NoError(t, p.Cancel(v, entity.CancelledByStore, nil, now))
	assert.Equal(t, entity.CancelledByStore, *v.CancelledBy)
}

func TestBulkCancelEligible(t *testing.T) {
	p := DefaultPolicy()

	v := newVisit(false)
	assert.NoError(t, p.BulkCancelEligible(v, slot.Add(-2*time.Hour)))
	assert.NoError(t, p.BulkCancelEligible(v, slot.Add(-time.Hour)))

	err := p.BulkCancelEligible(v, slot.Add(-30*time.Minute))
	require.Error(t, err)
	assert.Equal(t, 0.5, apperr.DetailsOf(err)["hours_remaining"])
}

func TestLeadMessageKeepsMinutes(t *testing.T) {
	tests := []struct {
		lead time.Duration
		want string
	}{
		{30 * time.Minute, "at least 30m before"},
		{90 * time.Minute, "at least 1h30m before"},
		{2 * time.Hour, "at least 2h before"},
		{10 * time.Minute, "at least 10m before"},
	}

	for _, tt := range tests {
		t.Run(tt.lead.String(), func(t *testing.T) {
			p := DefaultPolicy()
			p.BulkCancelLead = tt.lead

			err := p.BulkCancelEligible(newVisit(false), slot.Add(-time.Minute))
			require.Error(t, err)
			assert.Contains(t, apperr.MessageOf(err), tt.want)
		})
	}

	assert.Equal(t, "0m", formatLead(0))
	assert.Equal(t, "1h5m", formatLead(65*time.Minute+20*time.Second))
}

func TestEditLeadTime(t *testing.T) {
	p := DefaultPolicy()
	people := 3

	v := newVisit(false)
	_, err := p.Edit(v, EditPatch{NumberOfPeople: &people}, slot.Add(-90*time.Minute))
	require.Error(t, err)
	assert.Equal(t, 1.5, apperr.DetailsOf(err)["hours_remaining"])
	assert.Equal(t, 2, v.NumberOfPeople)

	changes, err := p.Edit(v, EditPatch{NumberOfPeople: &people}, slot.Add(-3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, v.NumberOfPeople)
	assert.Equal(t, entity.FieldChange{From: 2, To: 3}, changes[FieldNumberOfPeople])
}

func TestEditValidation(t *testing.T) {
	p := DefaultPolicy()
	now := slot.Add(-24 * time.Hour)
	badTime := "25:00"
	badDate := "06/02/2024"
	tooMany := 21

	v := newVisit(false)
	_, err := p.Edit(v, EditPatch{ScheduledTime: &badTime, ScheduledDate: &badDate, NumberOfPeople: &tooMany}, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.Validation)
	fields := apperr.DetailsOf(err)["fields"].(map[string]string)
	assert.Contains(t, fields, FieldScheduledTime)
	assert.Contains(t, fields, FieldScheduledDate)
	assert.Contains(t, fields, FieldNumberOfPeople)
	assert.Equal(t, "14:00", v.ScheduledTime)

	past := "2024-05-01"
	_, err = p.Edit(v, EditPatch{ScheduledDate: &past}, now)
	assert.ErrorIs(t, err, apperr.Validation)
}

func TestEditRecordsOnlyChangedFields(t *testing.T) {
	p := DefaultPolicy()
	now := slot.Add(-24 * time.Hour)
	sameTime := "14:00"
	newDate := "2024-06-03"
	notes := "bring the blue jacket"

	v := newVisit(false)
	changes, err := p.Edit(v, EditPatch{ScheduledTime: &sameTime, ScheduledDate: &newDate, CustomerNotes: &notes}, now)
	require.NoError(t, err)

	assert.Len(t, changes, 2)
	assert.NotContains(t, changes, FieldScheduledTime)
	assert.Equal(t, entity.FieldChange{From: "2024-06-01", To: "2024-06-03"}, changes[FieldScheduledDate])
	assert.Equal(t, notes, *v.CustomerNotes)
	assert.Equal(t, "2024-06-03", v.ScheduledDate.Format("2006-01-02"))
}

func TestCheckEditKeys(t *testing.T) {
	assert.NoError(t, CheckEditKeys([]string{"scheduled_time", "customer_notes"}))

	err := CheckEditKeys([]string{"status", "scheduled_time", "discount_used"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.Validation)
	assert.Equal(t, []string{"discount_used", "status"}, apperr.DetailsOf(err)["disallowed_fields"])
}

func TestReschedule(t *testing.T) {
	p := DefaultPolicy()
	now := slot.Add(-time.Hour)
	notes := "store closed for inventory"

	v := newVisit(true)
	changes, err := p.Reschedule(v, "2024-06-05", "10:30", "STORE", &notes, now)
	require.NoError(t, err)

	assert.Equal(t, entity.VisitStatusScheduled, v.Status)
	assert.Equal(t, "10:30", v.ScheduledTime)
	assert.Equal(t, now, *v.RescheduledAt)
	assert.Equal(t, "STORE", *v.RescheduledBy)
	assert.Equal(t, notes, *v.RescheduleNotes)
	assert.Len(t, changes, 2)

	_, err = p.Reschedule(v, "2024-05-01", "10:30", "STORE", nil, now)
	assert.ErrorIs(t, err, apperr.Validation)

	v.Status = entity.VisitStatusCancelled
	_, err = p.Reschedule(v, "2024-06-06", "10:30", "STORE", nil, now)
	assert.ErrorIs(t, err, apperr.InvalidState)
}

func TestUseDiscount(t *testing.T) {
	p := DefaultPolicy()
	v := newVisit(true)

	err := p.UseDiscount(v, slot)
	assert.Equal(t, "discount is not unlocked for this visit", apperr.MessageOf(err))

	require.NoError(t, p.CheckIn(v, slot))
	require.NoError(t, p.UseDiscount(v, slot.Add(time.Minute)))
	assert.True(t, v.DiscountUsed)

	err = p.UseDiscount(v, slot.Add(2*time.Minute))
	require.Error(t, err)
	assert.Equal(t, "discount already used", apperr.MessageOf(err))
	assert.Equal(t, slot.Add(time.Minute), *v.DiscountUsedAt)
}

func TestOverride(t *testing.T) {
	p := DefaultPolicy()

	v := newVisit(true)
	require.NoError(t, p.Override(v, entity.VisitStatusCheckedIn, slot.Add(-5*time.Hour)))
	assert.True(t, v.CheckedIn)
	assert.True(t, v.DiscountUnlocked)

	require.NoError(t, p.Override(v, entity.VisitStatusCompleted, slot))
	assert.Equal(t, entity.VisitStatusCompleted, v.Status)

	err := p.Override(v, entity.VisitStatusScheduled, slot)
	assert.ErrorIs(t, err, apperr.InvalidState)

	err = p.Override(newVisit(false), "LOST", slot)
	assert.ErrorIs(t, err, apperr.Validation)

	c := newVisit(false)
	require.NoError(t, p.Override(c, entity.VisitStatusCancelled, slot))
	assert.Equal(t, entity.CancelledByStore, *c.CancelledBy)
}

func TestClassify(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		mutate func(v *entity.Visit)
		now    time.Time
		want   SweepAction
	}{
		{"future visit", nil, slot.Add(-time.Hour), SweepNone},
		{"just started", nil, slot.Add(10 * time.Minute), SweepNone},
		{"warn threshold", nil, slot.Add(30 * time.Minute), SweepWarn},
		{"inside warn band", nil, slot.Add(90 * time.Minute), SweepWarn},
		{"missed edge is still warn", nil, slot.Add(2 * time.Hour), SweepWarn},
		{"missed", nil, slot.Add(2*time.Hour + time.Second), SweepMarkMissed},
		{"cancelled", func(v *entity.Visit) {
			v.Status = entity.VisitStatusCancelled
			at := slot
			v.CancelledAt = &at
		}, slot.Add(5 * time.Hour), SweepNone},
		{"stale check in", func(v *entity.Visit) {
			v.Status = entity.VisitStatusCheckedIn
			v.CheckedIn = true
			at := slot
			v.CheckedInAt = &at
		}, slot.Add(4*time.Hour + time.Minute), SweepAutoComplete},
		{"fresh check in", func(v *entity.Visit) {
			v.Status = entity.VisitStatusCheckedIn
			v.CheckedIn = true
			at := slot
			v.CheckedInAt = &at
		}, slot.Add(3 * time.Hour), SweepNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVisit(false)
			if tt.mutate != nil {
				tt.mutate(v)
			}
			assert.Equal(t, tt.want, p.Classify(v, tt.now))
		})
	}
}

func TestMarkMissedAndAutoComplete(t *testing.T) {
	p := DefaultPolicy()
	now := slot.Add(3 * time.Hour)

	v := newVisit(false)
	require.NoError(t, p.MarkMissed(v, now))
	assert.Equal(t, entity.VisitStatusMissed, v.Status)
	assert.Equal(t, now, *v.MissedAt)
	assert.Error(t, p.MarkMissed(v, now))

	c := newVisit(false)
	require.NoError(t, p.CheckIn(c, slot))
	require.NoError(t, p.AutoComplete(c, slot.Add(5*time.Hour)))
	assert.Equal(t, entity.VisitStatusCompleted, c.Status)
	assert.Error(t, p.AutoComplete(c, slot.Add(6*time.Hour)))
}

func TestCheckInUsesPolicyLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	p := DefaultPolicy()
	p.Location = jakarta
	v := newVisit(false)

	// 14:00 WIB is 07:00 UTC.
	assert.Error(t, p.CheckIn(v, slot))
	require.NoError(t, p.CheckIn(v, time.Date(2024, 6, 1, 7, 30, 0, 0, time.UTC)))
}
