package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
	"github.com/smena/smena_backend/internal/services/events"
	"github.com/smena/smena_backend/internal/services/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

func ip(v int) *int { return &v }

// --- фейки ---

type fakeShifts struct {
	shifts map[int]*models.Shift
}

func (f *fakeShifts) GetShift(_ context.Context, id int) (*models.Shift, error) {
	s, ok := f.shifts[id]
	if !ok {
		return nil, apperrors.NewNotFound("shift", id)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeShifts) FindShiftsForUser(_ context.Context, workspaceID, userID int) ([]models.Shift, error) {
	var out []models.Shift
	for _, s := range f.shifts {
		if s.WorkspaceID == workspaceID && s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

// checkNoOverlaps воспроизводит ограничение shifts_no_overlap: ни у кого
// нет двух пересекающихся смен в одном пространстве.
func (f *fakeShifts) checkNoOverlaps() error {
	all := make([]*models.Shift, 0, len(f.shifts))
	for _, s := range f.shifts {
		all = append(all, s)
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if a.WorkspaceID == b.WorkspaceID && a.UserID == b.UserID &&
				scheduling.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
				return apperrors.NewConflict("shift interval overlaps an existing shift")
			}
		}
	}
	return nil
}

type fakeRequests struct {
	shifts   *fakeShifts
	requests map[int]*models.ShiftRequest
	nextID   int
	applyErr error
	// вызывается перед записью решения принимающего — для имитации
	// параллельного решения второй стороны
	beforeSetRequested func()
}

func (f *fakeRequests) GetRequest(_ context.Context, id int) (*models.ShiftRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, apperrors.NewNotFound("request", id)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequests) CreateRequest(_ context.Context, req *models.ShiftRequest) error {
	f.nextID++
	req.ID = f.nextID
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRequests) SetRequestedDecision(_ context.Context, id int, decision models.Decision) error {
	if f.beforeSetRequested != nil {
		hook := f.beforeSetRequested
		f.beforeSetRequested = nil
		hook()
	}
	stored := f.requests[id]
	if stored.ApprovedByRequested != models.DecisionPending {
		return apperrors.NewInvalidTransition("the requested user has already decided")
	}
	stored.ApprovedByRequested = decision
	return nil
}

func (f *fakeRequests) SetManagerDecision(_ context.Context, id int, decision models.Decision) error {
	stored := f.requests[id]
	if stored.ApprovedByManager != models.DecisionPending {
		return apperrors.NewInvalidTransition("the manager has already decided")
	}
	stored.ApprovedByManager = decision
	return nil
}

func (f *fakeRequests) SetFailureReason(_ context.Context, id int, reason string) error {
	f.requests[id].FailureReason = &reason
	return nil
}

func (f *fakeRequests) ApplyExchange(_ context.Context, req *models.ShiftRequest, assignments map[int]int) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	// сначала все переназначения, потом проверка пересечений — как
	// отложенное ограничение БД, срабатывающее на коммите
	original := map[int]int{}
	for shiftID, userID := range assignments {
		original[shiftID] = f.shifts.shifts[shiftID].UserID
		f.shifts.shifts[shiftID].UserID = userID
	}
	if err := f.shifts.checkNoOverlaps(); err != nil {
		for shiftID, userID := range original {
			f.shifts.shifts[shiftID].UserID = userID
		}
		return err
	}
	stored := f.requests[req.ID]
	stored.Applied = true
	return nil
}

type fakeMembers struct {
	roles map[int]string
}

func (f *fakeMembers) Role(_ context.Context, _, userID int) (string, error) {
	return f.roles[userID], nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) PublishToWorkspace(_ int, event events.Event) {
	f.published = append(f.published, event)
}

type fixture struct {
	svc      *Service
	shifts   *fakeShifts
	requests *fakeRequests
	bus      *fakeBus
}

// newFixture: пользователь 1 (инициатор) владеет сменой 101 (9-13),
// пользователь 2 (принимающий) — сменой 102 (14-18), пользователь 9 —
// менеджер. Всё в пространстве 1.
func newFixture() *fixture {
	shifts := &fakeShifts{shifts: map[int]*models.Shift{
		101: {ID: 101, WorkspaceID: 1, UserID: 1, StartTime: at(9), EndTime: at(13)},
		102: {ID: 102, WorkspaceID: 1, UserID: 2, StartTime: at(14), EndTime: at(18)},
	}}
	requests := &fakeRequests{shifts: shifts, requests: map[int]*models.ShiftRequest{}}
	members := &fakeMembers{roles: map[int]string{1: models.RoleMember, 2: models.RoleMember, 9: models.RoleManager}}
	bus := &fakeBus{}
	return &fixture{
		svc:      NewService(requests, shifts, members, bus),
		shifts:   shifts,
		requests: requests,
		bus:      bus,
	}
}

func (f *fixture) createCover(t *testing.T) *models.ShiftRequest {
	t.Helper()
	req, err := f.svc.Create(context.Background(), 1, CreateInput{
		WorkspaceID: 1, LendedShiftID: 101, RequestedUserID: 2,
	})
	require.NoError(t, err)
	return req
}

func TestStateOf(t *testing.T) {
	reason := "overlap"
	cases := []struct {
		name string
		req  models.ShiftRequest
		want RequestState
	}{
		{"fresh", models.ShiftRequest{ApprovedByRequested: models.DecisionPending, ApprovedByManager: models.DecisionPending}, StatePendingBoth},
		{"worker approved", models.ShiftRequest{ApprovedByRequested: models.DecisionApproved, ApprovedByManager: models.DecisionPending}, StateAwaitingManager},
		{"manager approved", models.ShiftRequest{ApprovedByRequested: models.DecisionPending, ApprovedByManager: models.DecisionApproved}, StateAwaitingRequested},
		{"both approved", models.ShiftRequest{ApprovedByRequested: models.DecisionApproved, ApprovedByManager: models.DecisionApproved}, StateBothApproved},
		{"worker rejected", models.ShiftRequest{ApprovedByRequested: models.DecisionRejected, ApprovedByManager: models.DecisionApproved}, StateRejected},
		{"manager rejected", models.ShiftRequest{ApprovedByRequested: models.DecisionPending, ApprovedByManager: models.DecisionRejected}, StateRejected},
		{"applied", models.ShiftRequest{ApprovedByRequested: models.DecisionApproved, ApprovedByManager: models.DecisionApproved, Applied: true}, StateApplied},
		{"apply failed", models.ShiftRequest{ApprovedByRequested: models.DecisionApproved, ApprovedByManager: models.DecisionApproved, FailureReason: &reason}, StateRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StateOf(&tc.req))
		})
	}

	assert.True(t, Terminal(StateRejected))
	assert.True(t, Terminal(StateApplied))
	assert.False(t, Terminal(StatePendingBoth))
	assert.False(t, Terminal(StateBothApproved))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("not the owner", func(t *testing.T) {
		_, err := f.svc.Create(ctx, 2, CreateInput{WorkspaceID: 1, LendedShiftID: 101, RequestedUserID: 1})
		var authz *apperrors.AuthorizationError
		require.ErrorAs(t, err, &authz)
	})

	t.Run("self request", func(t *testing.T) {
		_, err := f.svc.Create(ctx, 1, CreateInput{WorkspaceID: 1, LendedShiftID: 101, RequestedUserID: 1})
		var validation *apperrors.ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("wrong workspace", func(t *testing.T) {
		_, err := f.svc.Create(ctx, 1, CreateInput{WorkspaceID: 2, LendedShiftID: 101, RequestedUserID: 2})
		var notFound *apperrors.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("trade with foreign shift", func(t *testing.T) {
		// смена 102 принадлежит пользователю 2, а запрошен пользователь 3
		_, err := f.svc.Create(ctx, 1, CreateInput{WorkspaceID: 1, LendedShiftID: 101, RequestedUserID: 3, RequestedShiftID: ip(102)})
		var validation *apperrors.ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("trade with the same shift", func(t *testing.T) {
		_, err := f.svc.Create(ctx, 1, CreateInput{WorkspaceID: 1, LendedShiftID: 101, RequestedUserID: 2, RequestedShiftID: ip(101)})
		var validation *apperrors.ValidationError
		require.ErrorAs(t, err, &validation)
	})
}

func TestDualApprovalOrderDoesNotMatter(t *testing.T) {
	ctx := context.Background()

	orders := []struct {
		name  string
		first func(f *fixture, id int) (*models.ShiftRequest, error)
		then  func(f *fixture, id int) (*models.ShiftRequest, error)
	}{
		{
			"worker then manager",
			func(f *fixture, id int) (*models.ShiftRequest, error) {
				return f.svc.DecideAsRequestedUser(ctx, 2, id, models.DecisionApproved)
			},
			func(f *fixture, id int) (*models.ShiftRequest, error) {
				return f.svc.DecideAsManager(ctx, 9, id, models.DecisionApproved)
			},
		},
		{
			"manager then worker",
			func(f *fixture, id int) (*models.ShiftRequest, error) {
				return f.svc.DecideAsManager(ctx, 9, id, models.DecisionApproved)
			},
			func(f *fixture, id int) (*models.ShiftRequest, error) {
				return f.svc.DecideAsRequestedUser(ctx, 2, id, models.DecisionApproved)
			},
		},
	}

	for _, order := range orders {
		t.Run(order.name, func(t *testing.T) {
			f := newFixture()
			req := f.createCover(t)

			mid, err := order.first(f, req.ID)
			require.NoError(t, err)
			assert.False(t, Terminal(StateOf(mid)))
			assert.False(t, mid.Applied)
			// после первого одобрения смена ещё у инициатора
			assert.Equal(t, 1, f.shifts.shifts[101].UserID)

			final, err := order.then(f, req.ID)
			require.NoError(t, err)
			assert.Equal(t, StateApplied, StateOf(final))
			assert.Equal(t, 2, f.shifts.shifts[101].UserID)
		})
	}
}

func TestRejectionIsTerminal(t *testing.T) {
	ctx := context.Background()

	t.Run("worker rejects", func(t *testing.T) {
		f := newFixture()
		req := f.createCover(t)

		rejected, err := f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.DecisionRejected)
		require.NoError(t, err)
		assert.Equal(t, StateRejected, StateOf(rejected))

		// менеджер уже не может ничего решить
		_, err = f.svc.DecideAsManager(ctx, 9, req.ID, models.DecisionApproved)
		var invalid *apperrors.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 1, f.shifts.shifts[101].UserID)
	})

	t.Run("manager rejects", func(t *testing.T) {
		f := newFixture()
		req := f.createCover(t)

		rejected, err := f.svc.DecideAsManager(ctx, 9, req.ID, models.DecisionRejected)
		require.NoError(t, err)
		assert.Equal(t, StateRejected, StateOf(rejected))

		_, err = f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.DecisionApproved)
		var invalid *apperrors.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
	})
}

func TestDecisionAuthorization(t *testing.T) {
	f := newFixture()
	req := f.createCover(t)
	ctx := context.Background()

	// посторонний пользователь вместо принимающего
	_, err := f.svc.DecideAsRequestedUser(ctx, 3, req.ID, models.DecisionApproved)
	var authz *apperrors.AuthorizationError
	require.ErrorAs(t, err, &authz)

	// рядовой участник вместо менеджера
	_, err = f.svc.DecideAsManager(ctx, 2, req.ID, models.DecisionApproved)
	require.ErrorAs(t, err, &authz)

	// решение вне словаря
	_, err = f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.Decision("MAYBE"))
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)

	// повторное решение той же стороны
	_, err = f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.DecisionApproved)
	require.NoError(t, err)
	_, err = f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.DecisionRejected)
	var invalid *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestApplyFailureOnConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// у принимающего появляется смена, пересекающаяся с передаваемой
	f.shifts.shifts[103] = &models.Shift{ID: 103, WorkspaceID: 1, UserID: 2, StartTime: at(10), EndTime: at(12)}

	req := f.createCover(t)
	_, err := f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.DecisionApproved)
	require.NoError(t, err)

	final, err := f.svc.DecideAsManager(ctx, 9, req.ID, models.DecisionApproved)
	var applyErr *apperrors.ApplyFailureError
	require.ErrorAs(t, err, &applyErr)

	require.NotNil(t, final)
	assert.Equal(t, StateRejected, StateOf(final))
	require.NotNil(t, final.FailureReason)
	assert.False(t, final.Applied)
	// смена осталась у инициатора
	assert.Equal(t, 1, f.shifts.shifts[101].UserID)

	// причина провала сохранена
	stored, err := f.requests.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FailureReason)
}

func TestApplyFailureOnStoreRace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.createCover(t)

	_, err := f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.DecisionApproved)
	require.NoError(t, err)

	// проверка прошла, но транзакция упёрлась в EXCLUDE-ограничение
	f.requests.applyErr = apperrors.NewConflict("overlapping shift created concurrently")

	final, err := f.svc.DecideAsManager(ctx, 9, req.ID, models.DecisionApproved)
	var applyErr *apperrors.ApplyFailureError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, StateRejected, StateOf(final))
	assert.Equal(t, 1, f.shifts.shifts[101].UserID)
}

func TestTradeSwapsBothShifts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.svc.Create(ctx, 1, CreateInput{
		WorkspaceID: 1, LendedShiftID: 101, RequestedUserID: 2, RequestedShiftID: ip(102),
	})
	require.NoError(t, err)
	assert.True(t, req.IsTrade())

	_, err = f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.DecisionApproved)
	require.NoError(t, err)
	final, err := f.svc.DecideAsManager(ctx, 9, req.ID, models.DecisionApproved)
	require.NoError(t, err)

	assert.Equal(t, StateApplied, StateOf(final))
	assert.Equal(t, 2, f.shifts.shifts[101].UserID)
	assert.Equal(t, 1, f.shifts.shifts[102].UserID)
}

// Обмениваемые смены исключаются из контрольной проверки: прямой обмен
// не должен споткнуться о сами обмениваемые интервалы.
func TestTradeExcludesSwappedShifts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// пересекающиеся интервалы у двух владельцев — валидный обмен
	f.shifts.shifts[101].StartTime = at(9)
	f.shifts.shifts[101].EndTime = at(13)
	f.shifts.shifts[102].StartTime = at(10)
	f.shifts.shifts[102].EndTime = at(14)

	req, err := f.svc.Create(ctx, 1, CreateInput{
		WorkspaceID: 1, LendedShiftID: 101, RequestedUserID: 2, RequestedShiftID: ip(102),
	})
	require.NoError(t, err)

	_, err = f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.DecisionApproved)
	require.NoError(t, err)
	final, err := f.svc.DecideAsManager(ctx, 9, req.ID, models.DecisionApproved)
	require.NoError(t, err)
	assert.Equal(t, StateApplied, StateOf(final))
}

// Решение одной стороны не должно затирать параллельное решение другой:
// каждая пишет только свою колонку, а состояние перечитывается после записи.
func TestConcurrentDecisionsDoNotClobber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.createCover(t)

	// менеджер успевает одобрить, пока решение сотрудника ещё в полёте:
	// сотрудник уже прочитал заявку в состоянии PENDING/PENDING
	f.requests.beforeSetRequested = func() {
		mid, err := f.svc.DecideAsManager(ctx, 9, req.ID, models.DecisionApproved)
		require.NoError(t, err)
		assert.Equal(t, StateAwaitingRequested, StateOf(mid))
	}

	final, err := f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.DecisionApproved)
	require.NoError(t, err)

	// одобрение менеджера не потеряно, обмен применён
	assert.Equal(t, StateApplied, StateOf(final))
	assert.Equal(t, 2, f.shifts.shifts[101].UserID)
}

// То же для отказа: параллельный отказ менеджера не может быть стёрт
// записью одобрения сотрудника.
func TestConcurrentRejectionSurvives(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.createCover(t)

	f.requests.beforeSetRequested = func() {
		_, err := f.svc.DecideAsManager(ctx, 9, req.ID, models.DecisionRejected)
		require.NoError(t, err)
	}

	final, err := f.svc.DecideAsRequestedUser(ctx, 2, req.ID, models.DecisionApproved)
	require.NoError(t, err)

	assert.Equal(t, StateRejected, StateOf(final))
	assert.False(t, final.Applied)
	assert.Equal(t, 1, f.shifts.shifts[101].UserID)
}
