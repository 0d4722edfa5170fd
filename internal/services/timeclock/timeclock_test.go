package timeclock

import (
	"context"
	"testing"
	"time"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
	"github.com/smena/smena_backend/internal/services/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tp(t time.Time) *time.Time { return &t }

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestDeriveStatus(t *testing.T) {
	in := base
	brStart := base.Add(2 * time.Hour)
	brEnd := base.Add(2*time.Hour + 30*time.Minute)
	out := base.Add(8 * time.Hour)

	cases := []struct {
		name string
		ts   *models.Timesheet
		want Status
	}{
		{"nil timesheet", nil, StatusScheduled},
		{"empty timesheet", &models.Timesheet{}, StatusScheduled},
		{"clocked in", &models.Timesheet{ClockInTime: &in}, StatusActive},
		{"on break", &models.Timesheet{ClockInTime: &in, StartBreakTime: &brStart}, StatusOnBreak},
		{"break finished", &models.Timesheet{ClockInTime: &in, StartBreakTime: &brStart, EndBreakTime: &brEnd}, StatusActive},
		{"clocked out", &models.Timesheet{ClockInTime: &in, ClockOutTime: &out}, StatusCompleted},
		{"clocked out after break", &models.Timesheet{ClockInTime: &in, StartBreakTime: &brStart, EndBreakTime: &brEnd, ClockOutTime: &out}, StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.ts))
		})
	}
}

func TestTransitionsHappyPath(t *testing.T) {
	ts := &models.Timesheet{ShiftID: 1}

	require.NoError(t, ClockIn(ts, base))
	assert.Equal(t, StatusActive, DeriveStatus(ts))

	require.NoError(t, StartBreak(ts, base.Add(2*time.Hour)))
	assert.Equal(t, StatusOnBreak, DeriveStatus(ts))

	require.NoError(t, EndBreak(ts, base.Add(150*time.Minute)))
	assert.Equal(t, StatusActive, DeriveStatus(ts))

	require.NoError(t, ClockOut(ts, base.Add(8*time.Hour)))
	assert.Equal(t, StatusCompleted, DeriveStatus(ts))
}

func TestTransitionsGuarded(t *testing.T) {
	t.Run("double clock-in keeps first mark", func(t *testing.T) {
		ts := &models.Timesheet{}
		require.NoError(t, ClockIn(ts, base))

		err := ClockIn(ts, base.Add(time.Hour))
		var invalid *apperrors.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, base, *ts.ClockInTime)
	})

	t.Run("break before clock-in", func(t *testing.T) {
		ts := &models.Timesheet{}
		err := StartBreak(ts, base)
		var invalid *apperrors.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Nil(t, ts.StartBreakTime)
	})

	t.Run("end break without break", func(t *testing.T) {
		ts := &models.Timesheet{ClockInTime: tp(base)}
		err := EndBreak(ts, base.Add(time.Hour))
		var invalid *apperrors.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("clock-out during break", func(t *testing.T) {
		ts := &models.Timesheet{ClockInTime: tp(base), StartBreakTime: tp(base.Add(time.Hour))}
		err := ClockOut(ts, base.Add(2*time.Hour))
		var invalid *apperrors.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Nil(t, ts.ClockOutTime)
	})

	t.Run("clock-out before clock-in", func(t *testing.T) {
		ts := &models.Timesheet{ClockInTime: tp(base)}
		err := ClockOut(ts, base.Add(-time.Minute))
		var validation *apperrors.ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("second break not supported", func(t *testing.T) {
		ts := &models.Timesheet{
			ClockInTime:    tp(base),
			StartBreakTime: tp(base.Add(time.Hour)),
			EndBreakTime:   tp(base.Add(90 * time.Minute)),
		}
		err := StartBreak(ts, base.Add(3*time.Hour))
		var invalid *apperrors.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		// отметки первого перерыва нетронуты, порядок start <= end сохранён
		assert.Equal(t, base.Add(time.Hour), *ts.StartBreakTime)
		assert.Equal(t, base.Add(90*time.Minute), *ts.EndBreakTime)
	})

	t.Run("anything after clock-out", func(t *testing.T) {
		ts := &models.Timesheet{ClockInTime: tp(base), ClockOutTime: tp(base.Add(8 * time.Hour))}
		var invalid *apperrors.InvalidTransitionError
		require.ErrorAs(t, StartBreak(ts, base.Add(9*time.Hour)), &invalid)
		require.ErrorAs(t, ClockOut(ts, base.Add(9*time.Hour)), &invalid)
	})
}

// --- фейки для сервиса ---

type fakeShiftStore struct {
	shifts map[int]*models.Shift
	ended  []models.Shift
}

func (f *fakeShiftStore) GetShift(_ context.Context, id int) (*models.Shift, error) {
	s, ok := f.shifts[id]
	if !ok {
		return nil, apperrors.NewNotFound("shift", id)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeShiftStore) FindEndedUnclosed(_ context.Context, before time.Time) ([]models.Shift, error) {
	var out []models.Shift
	for _, s := range f.ended {
		if s.EndTime.Before(before) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeTimesheetStore struct {
	byShift map[int]*models.Timesheet
	saved   int
}

func (f *fakeTimesheetStore) GetByShiftID(_ context.Context, shiftID int) (*models.Timesheet, error) {
	ts, ok := f.byShift[shiftID]
	if !ok {
		return nil, nil
	}
	cp := *ts
	return &cp, nil
}

func (f *fakeTimesheetStore) Save(_ context.Context, ts *models.Timesheet) error {
	cp := *ts
	f.byShift[ts.ShiftID] = &cp
	f.saved++
	return nil
}

type fakeBus struct {
	published []events.Event
	targets   []int
}

func (f *fakeBus) PublishToWorkspace(workspaceID int, event events.Event) {
	f.targets = append(f.targets, workspaceID)
	f.published = append(f.published, event)
}

type fakePresence struct {
	statuses map[int]Status
}

func (f *fakePresence) SetStatus(_ context.Context, _, userID, _ int, status Status) error {
	if f.statuses == nil {
		f.statuses = make(map[int]Status)
	}
	f.statuses[userID] = status
	return nil
}

func newTestService(shifts *fakeShiftStore, sheets *fakeTimesheetStore, now time.Time) (*Service, *fakeBus, *fakePresence) {
	bus := &fakeBus{}
	pres := &fakePresence{}
	svc := NewService(shifts, sheets, bus, pres)
	svc.Now = func() time.Time { return now }
	return svc, bus, pres
}

func TestServiceClockInCreatesTimesheet(t *testing.T) {
	shifts := &fakeShiftStore{shifts: map[int]*models.Shift{
		7: {ID: 7, WorkspaceID: 3, UserID: 42, StartTime: base, EndTime: base.Add(8 * time.Hour)},
	}}
	sheets := &fakeTimesheetStore{byShift: map[int]*models.Timesheet{}}
	svc, bus, pres := newTestService(shifts, sheets, base.Add(5*time.Minute))

	ts, err := svc.ClockIn(context.Background(), 42, 7)
	require.NoError(t, err)
	require.NotNil(t, ts.ClockInTime)
	assert.Equal(t, base.Add(5*time.Minute), *ts.ClockInTime)

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.EventShiftUpdated, bus.published[0].Type)
	assert.Equal(t, []int{3}, bus.targets)
	assert.Equal(t, StatusActive, pres.statuses[42])
}

func TestServiceRejectsForeignShift(t *testing.T) {
	shifts := &fakeShiftStore{shifts: map[int]*models.Shift{
		7: {ID: 7, WorkspaceID: 3, UserID: 42},
	}}
	sheets := &fakeTimesheetStore{byShift: map[int]*models.Timesheet{}}
	svc, bus, _ := newTestService(shifts, sheets, base)

	_, err := svc.ClockIn(context.Background(), 99, 7)
	var authz *apperrors.AuthorizationError
	require.ErrorAs(t, err, &authz)
	assert.Empty(t, bus.published)
	assert.Zero(t, sheets.saved)
}

func TestServiceInvalidTransitionDoesNotSave(t *testing.T) {
	shifts := &fakeShiftStore{shifts: map[int]*models.Shift{
		7: {ID: 7, WorkspaceID: 3, UserID: 42},
	}}
	sheets := &fakeTimesheetStore{byShift: map[int]*models.Timesheet{}}
	svc, bus, _ := newTestService(shifts, sheets, base)

	_, err := svc.ClockOut(context.Background(), 42, 7)
	var invalid *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Zero(t, sheets.saved)
	assert.Empty(t, bus.published)
}

func TestSweepClosesExpiredShifts(t *testing.T) {
	end := base.Add(8 * time.Hour)
	now := end.Add(SweepGracePeriod + time.Hour)

	active := models.Shift{ID: 1, WorkspaceID: 3, UserID: 10, StartTime: base, EndTime: end}
	onBreak := models.Shift{ID: 2, WorkspaceID: 3, UserID: 11, StartTime: base, EndTime: end}

	shifts := &fakeShiftStore{
		shifts: map[int]*models.Shift{1: &active, 2: &onBreak},
		ended:  []models.Shift{active, onBreak},
	}
	sheets := &fakeTimesheetStore{byShift: map[int]*models.Timesheet{
		1: {ShiftID: 1, ClockInTime: tp(base)},
		2: {ShiftID: 2, ClockInTime: tp(base), StartBreakTime: tp(base.Add(4 * time.Hour))},
	}}
	svc, bus, pres := newTestService(shifts, sheets, now)

	closed, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, closed)

	ts1 := sheets.byShift[1]
	require.NotNil(t, ts1.ClockOutTime)
	assert.Equal(t, end, *ts1.ClockOutTime)

	ts2 := sheets.byShift[2]
	require.NotNil(t, ts2.EndBreakTime)
	require.NotNil(t, ts2.ClockOutTime)
	assert.Equal(t, end, *ts2.EndBreakTime)
	assert.Equal(t, end, *ts2.ClockOutTime)

	assert.Len(t, bus.published, 2)
	assert.Equal(t, StatusCompleted, pres.statuses[10])
	assert.Equal(t, StatusCompleted, pres.statuses[11])
}

func TestSweepRespectsGracePeriod(t *testing.T) {
	end := base.Add(8 * time.Hour)
	shift := models.Shift{ID: 1, WorkspaceID: 3, UserID: 10, StartTime: base, EndTime: end}

	shifts := &fakeShiftStore{
		shifts: map[int]*models.Shift{1: &shift},
		ended:  []models.Shift{shift},
	}
	sheets := &fakeTimesheetStore{byShift: map[int]*models.Timesheet{
		1: {ShiftID: 1, ClockInTime: tp(base)},
	}}
	// смена закончилась 10 минут назад, грейс ещё не вышел
	svc, _, _ := newTestService(shifts, sheets, end.Add(10*time.Minute))

	closed, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, closed)
	assert.Nil(t, sheets.byShift[1].ClockOutTime)
}

func TestSweepUsesLateClockIn(t *testing.T) {
	end := base.Add(8 * time.Hour)
	lateIn := end.Add(10 * time.Minute) // отметился уже после планового конца
	shift := models.Shift{ID: 1, WorkspaceID: 3, UserID: 10, StartTime: base, EndTime: end}

	shifts := &fakeShiftStore{
		shifts: map[int]*models.Shift{1: &shift},
		ended:  []models.Shift{shift},
	}
	sheets := &fakeTimesheetStore{byShift: map[int]*models.Timesheet{
		1: {ShiftID: 1, ClockInTime: tp(lateIn)},
	}}
	svc, _, _ := newTestService(shifts, sheets, end.Add(SweepGracePeriod+time.Hour))

	closed, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.Equal(t, lateIn, *sheets.byShift[1].ClockOutTime)
}
