package flow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"concierge/config"
	"concierge/internal/domains/availability"
	"concierge/internal/domains/flow"
	leadMocks "concierge/internal/domains/lead/mocks"
	"concierge/internal/domains/scheduling"
	schedulingMocks "concierge/internal/domains/scheduling/mocks"
	"concierge/internal/events"
	"concierge/shared/constant"
	"concierge/shared/timezone"
)

func nextMonth() string {
	return timezone.Now().AddDate(0, 1, 0).Format(constant.MonthFormat)
}

func newTestManager(t *testing.T) (*flow.Manager, *schedulingMocks.MockGateway, events.Bus) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockGateway := schedulingMocks.NewMockGateway(ctrl)
	bus := events.New()

	cfg := &config.Config{}

	manager := flow.NewManager(cfg, mockGateway, leadMocks.NewMockLeadService(ctrl), bus)
	t.Cleanup(manager.Shutdown)

	return manager, mockGateway, bus
}

func TestOrchestratorLoadMonth(t *testing.T) {
	manager, mockGateway, _ := newTestManager(t)

	orch := manager.Create()
	month := nextMonth()

	monthStart, err := time.ParseInLocation(constant.MonthFormat, month, timezone.GetLocation())
	assert.NoError(t, err)

	withSlots := availability.DayOf(monthStart.AddDate(0, 0, 4))
	checkedEmpty := availability.DayOf(monthStart.AddDate(0, 0, 5))

	mockGateway.EXPECT().
		FetchAvailability(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(availability.Availability{
			withSlots:    {withSlots.Time(timezone.GetLocation()).Add(9 * time.Hour)},
			checkedEmpty: {},
		}, nil)

	view, err := orch.LoadMonth(context.Background(), month)

	assert.NoError(t, err)
	assert.False(t, view.Degraded)
	assert.Len(t, view.Days, 2)

	assert.True(t, orch.HasAvailability(withSlots))
	assert.False(t, orch.HasAvailability(checkedEmpty))
	assert.Len(t, orch.SlotsFor(withSlots), 1)
}

func TestOrchestratorLoadMonthInvalidMonth(t *testing.T) {
	manager, _, _ := newTestManager(t)

	orch := manager.Create()

	_, err := orch.LoadMonth(context.Background(), "september")

	assert.Error(t, err)
}

func TestOrchestratorDegradedSticks(t *testing.T) {
	manager, mockGateway, bus := newTestManager(t)

	degraded := make(chan events.Event, 1)
	bus.Subscribe(events.TopicDegraded, func(event events.Event) {
		degraded <- event
	})

	orch := manager.Create()

	// Exactly one fetch: after the first unavailable answer every further
	// month navigation stays local.
	mockGateway.EXPECT().
		FetchAvailability(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, scheduling.Unavailable()).
		Times(1)

	view, err := orch.LoadMonth(context.Background(), nextMonth())

	assert.NoError(t, err)
	assert.True(t, view.Degraded)
	assert.True(t, orch.Degraded())

	select {
	case event := <-degraded:
		assert.Equal(t, orch.ID(), event.FlowID)
	case <-time.After(time.Second):
		t.Fatal("degraded event was never published")
	}

	view, err = orch.LoadMonth(context.Background(), timezone.Now().AddDate(0, 2, 0).Format(constant.MonthFormat))

	assert.NoError(t, err)
	assert.True(t, view.Degraded)
	assert.Empty(t, view.Days)
}

func TestOrchestratorDegradedStillBooks(t *testing.T) {
	manager, mockGateway, _ := newTestManager(t)

	orch := manager.Create()

	mockGateway.EXPECT().
		FetchAvailability(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, scheduling.Unavailable())

	_, err := orch.LoadMonth(context.Background(), nextMonth())
	assert.NoError(t, err)
	assert.True(t, orch.Degraded())

	// The selection steps stay usable while degraded; only availability
	// lookups went dark.
	day := availability.DayOf(timezone.Now().AddDate(0, 0, 7))

	assert.NoError(t, orch.SelectDate(day))
	assert.NoError(t, orch.SelectTime(day.Time(time.UTC).Add(10*time.Hour)))
	assert.Equal(t, flow.StepForm, orch.Snapshot().Step)
}

func TestOrchestratorStaleFetchIsDiscarded(t *testing.T) {
	manager, mockGateway, _ := newTestManager(t)

	orch := manager.Create()
	month := nextMonth()

	monthStart, err := time.ParseInLocation(constant.MonthFormat, month, timezone.GetLocation())
	assert.NoError(t, err)

	day := availability.DayOf(monthStart.AddDate(0, 0, 4))

	firstIssued := make(chan struct{})
	release := make(chan struct{})

	stale := availability.Availability{
		day: {day.Time(timezone.GetLocation()).Add(9 * time.Hour)},
	}
	fresh := availability.Availability{
		day: {
			day.Time(timezone.GetLocation()).Add(9 * time.Hour),
			day.Time(timezone.GetLocation()).Add(10 * time.Hour),
		},
	}

	gomock.InOrder(
		mockGateway.EXPECT().
			FetchAvailability(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, time.Time, time.Time) (availability.Availability, error) {
				close(firstIssued)
				<-release

				return stale, nil
			}),
		mockGateway.EXPECT().
			FetchAvailability(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(fresh, nil),
	)

	firstDone := make(chan struct{})

	go func() {
		defer close(firstDone)

		_, _ = orch.LoadMonth(context.Background(), month)
	}()

	<-firstIssued

	// A newer navigation supersedes the in-flight fetch.
	_, err = orch.LoadMonth(context.Background(), month)
	assert.NoError(t, err)

	close(release)
	<-firstDone

	// The late answer from the first fetch must not overwrite the newer one.
	assert.Len(t, orch.SlotsFor(day), 2)
}

func TestManagerLifecycle(t *testing.T) {
	manager, _, _ := newTestManager(t)

	orch := manager.Create()

	found, err := manager.Get(orch.ID())
	assert.NoError(t, err)
	assert.Equal(t, orch.ID(), found.ID())

	_, err = manager.Get("does-not-exist")
	assert.Error(t, err)

	assert.NoError(t, manager.Close(orch.ID()))
	assert.Error(t, manager.Close(orch.ID()))

	_, err = manager.Get(orch.ID())
	assert.Error(t, err)
}

func TestClosedFlowRefusesLateWork(t *testing.T) {
	manager, _, _ := newTestManager(t)

	orch := manager.Create()
	assert.NoError(t, manager.Close(orch.ID()))

	_, err := orch.LoadMonth(context.Background(), nextMonth())
	assert.Error(t, err)

	day := availability.DayOf(timezone.Now().AddDate(0, 0, 7))
	assert.Error(t, orch.SelectDate(day))
	assert.Error(t, orch.SelectTime(day.Time(time.UTC).Add(9*time.Hour)))
	assert.Error(t, orch.Submit(context.Background(), validAttendee(), "", ""))
}

func TestTwoFlowsAreIsolated(t *testing.T) {
	manager, mockGateway, _ := newTestManager(t)

	first := manager.Create()
	second := manager.Create()

	mockGateway.EXPECT().
		FetchAvailability(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, scheduling.Unavailable()).
		Times(1)

	_, err := first.LoadMonth(context.Background(), nextMonth())
	assert.NoError(t, err)

	// Degrading one widget's flow leaves the other untouched.
	assert.True(t, first.Degraded())
	assert.False(t, second.Degraded())
}
