package search_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/engine"
	"github.com/tartampluch/go-idlookup/internal/search"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockLookup simulates the remote identifier service.
type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) ValidateIDFormat(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockLookup) ValidateAndSearch(ctx context.Context, id string) (*engine.SearchResponse, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*engine.SearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLookup) GetHolidaysForYear(ctx context.Context, year int) (*engine.CalendarResult, error) {
	args := m.Called(ctx, year)
	if r := args.Get(0); r != nil {
		return r.(*engine.CalendarResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// FakeClock fires timers synchronously from Advance.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	when    time.Time
	f       func()
	stopped bool
	fired   bool
}

func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) engine.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Pending counts timers that are scheduled and neither fired nor stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.when.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// RecordingNotifier keeps every notification it receives.
type RecordingNotifier struct {
	mu  sync.Mutex
	got []search.Notification
}

func (r *RecordingNotifier) Notify(n search.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *RecordingNotifier) All() []search.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]search.Notification(nil), r.got...)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

const validID = "8001014800086"

type fixture struct {
	svc      *MockLookup
	clock    *FakeClock
	notifier *RecordingNotifier
	comp     *search.Component
}

func newFixture(t *testing.T, opts ...search.Option) *fixture {
	t.Helper()
	f := &fixture{
		svc:      new(MockLookup),
		clock:    NewFakeClock(),
		notifier: &RecordingNotifier{},
	}
	all := append([]search.Option{
		search.WithClock(f.clock),
		search.WithNotifier(f.notifier),
	}, opts...)
	f.comp = search.New(f.svc, all...)
	t.Cleanup(f.comp.Close)
	return f
}

// confirm types id and lets the debounced format check complete with valid.
func (f *fixture) confirm(id string, valid bool) {
	f.svc.On("ValidateIDFormat", mock.Anything, id).Return(valid, nil).Once()
	f.comp.OnInput(id)
	f.clock.Advance(config.DebounceDelay)
}

func identity1980() *engine.IdentityRecord {
	return &engine.IdentityRecord{
		BirthYear:         1980,
		DateOfBirth:       "1980-01-01",
		Gender:            config.GenderMale,
		IsCitizen:         true,
		FormattedIDNumber: "800101 4800 08 6",
	}
}

func holidays1980() *engine.CalendarResult {
	return &engine.CalendarResult{
		Success: true,
		Events: []engine.Event{
			{Date: "1980-01-01", Name: "New Year's Day", Type: "public"},
			{Date: "1980-04-04", Name: "Good Friday", Type: "public"},
		},
	}
}

// -----------------------------------------------------------------------------
// Debouncer
// -----------------------------------------------------------------------------

func TestOnInput_ShortInputNeverCallsService(t *testing.T) {
	for _, input := range []string{"", "8", "80010", "800101480"} {
		t.Run(input, func(t *testing.T) {
			f := newFixture(t)

			f.comp.OnInput(input)
			st := f.comp.State()
			assert.False(t, st.Input.IsValidating)
			assert.False(t, st.Input.IsConfirmedValid)
			assert.Equal(t, input, st.Input.RawValue)
			if input == "" {
				assert.Empty(t, st.Input.Message)
				assert.Equal(t, search.PhaseIdle, st.Phase())
			} else {
				assert.Equal(t, config.FallbackTooShort, st.Input.Message)
				assert.Equal(t, search.PhaseInvalid, st.Phase())
			}

			f.clock.Advance(2 * config.DebounceDelay)
			assert.Zero(t, f.clock.Pending())
			f.svc.AssertNotCalled(t, "ValidateIDFormat", mock.Anything, mock.Anything)
		})
	}
}

func TestOnInput_ThresholdSchedulesFormatCheck(t *testing.T) {
	f := newFixture(t)
	f.svc.On("ValidateIDFormat", mock.Anything, "8001014800").Return(false, nil).Once()

	f.comp.OnInput("8001014800")
	st := f.comp.State()
	assert.True(t, st.Input.IsValidating)
	assert.Equal(t, config.FallbackTooShort, st.Input.Message)
	assert.Equal(t, search.PhaseValidating, st.Phase())
	assert.Equal(t, 1, f.clock.Pending())

	// Nothing happens before the delay elapses.
	f.clock.Advance(config.DebounceDelay - time.Millisecond)
	f.svc.AssertNotCalled(t, "ValidateIDFormat", mock.Anything, mock.Anything)

	f.clock.Advance(time.Millisecond)
	f.svc.AssertExpectations(t)

	st = f.comp.State()
	assert.False(t, st.Input.IsValidating)
	assert.False(t, st.Input.IsConfirmedValid)
	assert.True(t, st.Checked)
	assert.Equal(t, config.FallbackInvalidFormat, st.Input.Message)
	assert.Equal(t, search.PhaseInvalid, st.Phase())
}

func TestOnInput_DebounceCoalescing(t *testing.T) {
	f := newFixture(t)
	f.svc.On("ValidateIDFormat", mock.Anything, validID).Return(true, nil).Once()

	for i := 10; i <= len(validID); i++ {
		f.comp.OnInput(validID[:i])
		f.clock.Advance(config.DebounceDelay / 5)
		assert.LessOrEqual(t, f.clock.Pending(), 1, "only one timer may be pending")
	}
	f.clock.Advance(config.DebounceDelay)

	f.svc.AssertNumberOfCalls(t, "ValidateIDFormat", 1)
	f.svc.AssertExpectations(t)

	st := f.comp.State()
	assert.True(t, st.Input.IsConfirmedValid)
	assert.Equal(t, config.FallbackValidFormat, st.Input.Message)
	assert.Equal(t, search.PhaseValid, st.Phase())
}

func TestOnInput_FormatCheckFailureIsRecovered(t *testing.T) {
	f := newFixture(t)
	f.svc.On("ValidateIDFormat", mock.Anything, validID).Return(false, errors.New("connection refused")).Once()

	f.comp.OnInput(validID)
	f.clock.Advance(config.DebounceDelay)

	st := f.comp.State()
	assert.False(t, st.Input.IsConfirmedValid)
	assert.False(t, st.Input.IsValidating)
	assert.Equal(t, config.FallbackValidateError, st.Input.Message)
	assert.Empty(t, f.notifier.All())
}

func TestOnInput_ClearsSearchError(t *testing.T) {
	f := newFixture(t)
	f.confirm(validID, true)
	f.svc.On("ValidateAndSearch", mock.Anything, validID).
		Return(&engine.SearchResponse{IsValid: false, ErrorMessage: "Checksum mismatch"}, nil).Once()

	f.comp.HandleSearch(context.Background())
	require.True(t, f.comp.State().Outcome.HasError())

	f.comp.OnInput("800101")
	st := f.comp.State()
	assert.Equal(t, search.OutcomeIdle, st.Outcome.Kind)
	assert.False(t, st.Input.IsConfirmedValid)
}

// -----------------------------------------------------------------------------
// Reset & Close
// -----------------------------------------------------------------------------

func TestReset_CancelsPendingTimer(t *testing.T) {
	f := newFixture(t)

	f.comp.OnInput(validID)
	require.Equal(t, 1, f.clock.Pending())

	f.comp.Reset()
	f.clock.Advance(2 * config.DebounceDelay)

	f.svc.AssertNotCalled(t, "ValidateIDFormat", mock.Anything, mock.Anything)
	assert.Equal(t, search.State{}, f.comp.State())
	assert.Equal(t, search.Results{}, f.comp.CurrentResults())
}

func TestReset_ClearsResults(t *testing.T) {
	f := newFixture(t)
	f.confirm(validID, true)
	f.svc.On("ValidateAndSearch", mock.Anything, validID).
		Return(&engine.SearchResponse{IsValid: true, IdentityRecord: &engine.IdentityRecord{DateOfBirth: "1980-01-01"}}, nil).Once()

	f.comp.HandleSearch(context.Background())
	require.True(t, f.comp.CurrentResults().HasResults)

	f.comp.Reset()
	assert.Equal(t, search.State{}, f.comp.State())
	assert.Equal(t, search.PhaseIdle, f.comp.State().Phase())
}

func TestReset_DiscardsInFlightFormatCheck(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.svc.On("ValidateIDFormat", mock.Anything, validID).Return(true, nil).Once().
		Run(func(mock.Arguments) {
			close(started)
			<-release
		})

	f.comp.OnInput(validID)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.clock.Advance(config.DebounceDelay)
	}()

	<-started
	f.comp.Reset()
	close(release)
	<-done

	assert.Equal(t, search.State{}, f.comp.State())
}

func TestReset_DiscardsInFlightSearch(t *testing.T) {
	f := newFixture(t)
	f.confirm(validID, true)

	started := make(chan struct{})
	release := make(chan struct{})
	f.svc.On("ValidateAndSearch", mock.Anything, validID).Return(nil, errors.New("timeout")).Once().
		Run(func(mock.Arguments) {
			close(started)
			<-release
		})

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.comp.HandleSearch(context.Background())
	}()

	<-started
	assert.Equal(t, search.PhaseSearching, f.comp.State().Phase())
	f.comp.Reset()
	close(release)
	<-done

	assert.Equal(t, search.State{}, f.comp.State())
	assert.Empty(t, f.notifier.All(), "late failures must not notify")
}

func TestClose_IgnoresFurtherInput(t *testing.T) {
	f := newFixture(t)
	f.comp.OnInput(validID)

	f.comp.Close()
	f.comp.Close()
	f.comp.OnInput(validID)
	f.clock.Advance(2 * config.DebounceDelay)

	f.svc.AssertNotCalled(t, "ValidateIDFormat", mock.Anything, mock.Anything)
	assert.Equal(t, search.State{}, f.comp.State())
}

// -----------------------------------------------------------------------------
// Search
// -----------------------------------------------------------------------------

func TestHandleSearch_Success_RetrievesHolidays(t *testing.T) {
	f := newFixture(t)
	f.confirm(validID, true)
	require.True(t, f.comp.State().Input.IsConfirmedValid)

	f.svc.On("ValidateAndSearch", mock.Anything, validID).Return(&engine.SearchResponse{
		IsValid:        true,
		IdentityRecord: identity1980(),
		CalendarResult: &engine.CalendarResult{Success: true},
		SearchCount:    3,
	}, nil).Once()
	f.svc.On("GetHolidaysForYear", mock.Anything, 1980).Return(holidays1980(), nil).Once()

	f.comp.HandleSearch(context.Background())
	f.comp.Wait()

	f.svc.AssertExpectations(t)

	st := f.comp.State()
	assert.True(t, st.Outcome.HasResults())
	assert.False(t, st.Outcome.HasError())
	assert.False(t, st.Outcome.IsSearching())

	res := f.comp.CurrentResults()
	assert.True(t, res.HasResults)
	assert.True(t, res.IsValid)
	assert.Equal(t, 3, res.SearchCount)
	require.NotNil(t, res.Identity)
	assert.Equal(t, 1980, res.Identity.BirthYear)
	require.NotNil(t, res.Calendar)
	assert.Len(t, res.Calendar.Events, 2)

	xref := st.Outcome.Result.CrossReference()
	require.Len(t, xref, 1)
	assert.Equal(t, "New Year's Day", xref[0].Name)

	notes := f.notifier.All()
	require.Len(t, notes, 1)
	assert.Equal(t, search.SeveritySuccess, notes[0].Severity)
	assert.Equal(t, "Public holidays loaded for 1980.", notes[0].Message)
}

func TestHandleSearch_NoBirthYearSkipsHolidays(t *testing.T) {
	f := newFixture(t)
	f.confirm(validID, true)
	f.svc.On("ValidateAndSearch", mock.Anything, validID).
		Return(&engine.SearchResponse{IsValid: true}, nil).Once()

	f.comp.HandleSearch(context.Background())
	f.comp.Wait()

	assert.True(t, f.comp.CurrentResults().HasResults)
	f.svc.AssertNotCalled(t, "GetHolidaysForYear", mock.Anything, mock.Anything)
}

func TestHandleSearch_UnsuccessfulCalendarDoesNotNotify(t *testing.T) {
	f := newFixture(t)
	f.confirm(validID, true)
	f.svc.On("ValidateAndSearch", mock.Anything, validID).
		Return(&engine.SearchResponse{IsValid: true, IdentityRecord: identity1980()}, nil).Once()
	f.svc.On("GetHolidaysForYear", mock.Anything, 1980).
		Return(&engine.CalendarResult{Success: false, Events: []engine.Event{}}, nil).Once()

	f.comp.HandleSearch(context.Background())
	f.comp.Wait()

	res := f.comp.CurrentResults()
	require.NotNil(t, res.Calendar)
	assert.False(t, res.Calendar.Success)
	assert.Empty(t, f.notifier.All())
}

func TestHandleSearch_TransportFailure(t *testing.T) {
	f := newFixture(t)
	f.confirm(validID, true)
	f.svc.On("ValidateAndSearch", mock.Anything, validID).Return(nil, errors.New("boom")).Once()

	f.comp.HandleSearch(context.Background())
	f.comp.Wait()

	st := f.comp.State()
	assert.True(t, st.Outcome.HasError())
	assert.False(t, st.Outcome.IsSearching())
	assert.False(t, st.Outcome.HasResults())
	assert.Equal(t, config.FallbackSearchFailed, st.Outcome.Message)
	assert.Equal(t, search.PhaseSearchError, st.Phase())

	notes := f.notifier.All()
	require.Len(t, notes, 1)
	assert.Equal(t, search.SeverityError, notes[0].Severity)
	f.svc.AssertNotCalled(t, "GetHolidaysForYear", mock.Anything, mock.Anything)
}

func TestHandleSearch_BusinessRejection(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{"Server Message", "Checksum mismatch", "Checksum mismatch"},
		{"Default Message", "", config.FallbackSearchInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.confirm(validID, true)
			f.svc.On("ValidateAndSearch", mock.Anything, validID).
				Return(&engine.SearchResponse{IsValid: false, ErrorMessage: tt.message}, nil).Once()

			f.comp.HandleSearch(context.Background())

			st := f.comp.State()
			assert.True(t, st.Outcome.HasError())
			assert.False(t, st.Outcome.IsSearching())
			assert.Equal(t, tt.expected, st.Outcome.Message)
			assert.Empty(t, f.notifier.All())
		})
	}
}

func TestHandleSearch_HolidayFailureKeepsResults(t *testing.T) {
	f := newFixture(t)
	f.confirm(validID, true)

	initial := &engine.CalendarResult{Success: true, Events: []engine.Event{
		{Date: "1980-06-16", Name: "Youth Day"},
	}}
	f.svc.On("ValidateAndSearch", mock.Anything, validID).Return(&engine.SearchResponse{
		IsValid:        true,
		IdentityRecord: identity1980(),
		CalendarResult: initial,
	}, nil).Once()
	f.svc.On("GetHolidaysForYear", mock.Anything, 1980).Return(nil, errors.New("calendar down")).Once()

	f.comp.HandleSearch(context.Background())
	f.comp.Wait()

	st := f.comp.State()
	assert.True(t, st.Outcome.HasResults())
	assert.False(t, st.Outcome.HasError())
	assert.Equal(t, initial.Events, st.Outcome.Result.Calendar.Events)
	assert.Empty(t, st.Outcome.Result.CrossReference())

	notes := f.notifier.All()
	require.Len(t, notes, 1)
	assert.Equal(t, search.SeverityWarning, notes[0].Severity)
	assert.Equal(t, config.FallbackHolidaysError, notes[0].Message)
}

func TestHandleSearch_IsIdempotentWhileInFlight(t *testing.T) {
	f := newFixture(t)
	f.confirm(validID, true)

	started := make(chan struct{})
	release := make(chan struct{})
	f.svc.On("ValidateAndSearch", mock.Anything, validID).
		Return(&engine.SearchResponse{IsValid: true}, nil).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		})

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.comp.HandleSearch(context.Background())
	}()

	<-started
	f.comp.HandleSearch(context.Background())
	close(release)
	<-done

	f.svc.AssertNumberOfCalls(t, "ValidateAndSearch", 1)
	assert.True(t, f.comp.State().Outcome.HasResults())
}

func TestHandleSearch_Guards(t *testing.T) {
	t.Run("Not Confirmed", func(t *testing.T) {
		f := newFixture(t)
		f.confirm(validID, false)
		f.comp.HandleSearch(context.Background())
		f.svc.AssertNotCalled(t, "ValidateAndSearch", mock.Anything, mock.Anything)
	})

	t.Run("Still Validating", func(t *testing.T) {
		f := newFixture(t)
		f.confirm(validID, true)
		f.comp.OnInput("8001014800087")
		f.comp.HandleSearch(context.Background())
		f.svc.AssertNotCalled(t, "ValidateAndSearch", mock.Anything, mock.Anything)
	})

	t.Run("Closed", func(t *testing.T) {
		f := newFixture(t)
		f.confirm(validID, true)
		f.comp.Close()
		f.comp.HandleSearch(context.Background())
		f.svc.AssertNotCalled(t, "ValidateAndSearch", mock.Anything, mock.Anything)
	})
}

func TestHandleSearch_PanicIsContained(t *testing.T) {
	f := newFixture(t)
	f.confirm(validID, true)
	f.svc.On("ValidateAndSearch", mock.Anything, validID).Panic("kaboom").Once()

	assert.NotPanics(t, func() { f.comp.HandleSearch(context.Background()) })

	st := f.comp.State()
	assert.True(t, st.Outcome.HasError())
	assert.False(t, st.Outcome.IsSearching())
	assert.False(t, st.Input.IsValidating)
	assert.Equal(t, config.FallbackReload, st.Outcome.Message)

	notes := f.notifier.All()
	require.Len(t, notes, 1)
	assert.Equal(t, config.FallbackNotifFatal, notes[0].Title)
	assert.Equal(t, search.SeverityError, notes[0].Severity)
}

func TestHandleSearch_PanickingNotifierIsContained(t *testing.T) {
	svc := new(MockLookup)
	clock := NewFakeClock()
	comp := search.New(svc,
		search.WithClock(clock),
		search.WithNotifier(search.NotifierFunc(func(search.Notification) { panic("toast failed") })),
	)
	defer comp.Close()

	svc.On("ValidateIDFormat", mock.Anything, validID).Return(true, nil).Once()
	svc.On("ValidateAndSearch", mock.Anything, validID).Return(nil, errors.New("boom")).Once()

	comp.OnInput(validID)
	clock.Advance(config.DebounceDelay)
	assert.NotPanics(t, func() { comp.HandleSearch(context.Background()) })

	st := comp.State()
	assert.True(t, st.Outcome.HasError())
	assert.Equal(t, config.FallbackSearchFailed, st.Outcome.Message)
}

// -----------------------------------------------------------------------------
// Public API
// -----------------------------------------------------------------------------

func TestSearchWithIdentifier(t *testing.T) {
	t.Run("Valid Identifier", func(t *testing.T) {
		f := newFixture(t)
		f.svc.On("ValidateIDFormat", mock.Anything, validID).Return(true, nil).Once()
		f.svc.On("ValidateAndSearch", mock.Anything, validID).
			Return(&engine.SearchResponse{IsValid: true, IdentityRecord: identity1980(), SearchCount: 1}, nil).Once()
		f.svc.On("GetHolidaysForYear", mock.Anything, 1980).Return(holidays1980(), nil).Once()

		res := f.comp.SearchWithIdentifier(context.Background(), validID)

		f.svc.AssertExpectations(t)
		assert.True(t, res.IsValid)
		assert.True(t, res.HasResults)
		assert.Equal(t, 1, res.SearchCount)
		require.NotNil(t, res.Calendar)
		assert.Len(t, res.Calendar.Events, 2)
		assert.Zero(t, f.clock.Pending(), "no debounce timer for programmatic searches")
	})

	t.Run("Invalid Format", func(t *testing.T) {
		f := newFixture(t)
		f.svc.On("ValidateIDFormat", mock.Anything, validID).Return(false, nil).Once()

		res := f.comp.SearchWithIdentifier(context.Background(), validID)

		assert.False(t, res.IsValid)
		assert.False(t, res.HasResults)
		f.svc.AssertNotCalled(t, "ValidateAndSearch", mock.Anything, mock.Anything)
	})

	t.Run("Too Short", func(t *testing.T) {
		f := newFixture(t)

		res := f.comp.SearchWithIdentifier(context.Background(), "123")

		assert.False(t, res.IsValid)
		f.svc.AssertNotCalled(t, "ValidateIDFormat", mock.Anything, mock.Anything)
		assert.Equal(t, "123", f.comp.State().Input.RawValue)
	})
}

func TestOptions_TranslatorAndOnChange(t *testing.T) {
	var changes atomic.Int32
	tr := func(key string, _ map[string]interface{}) string {
		if key == config.TKeyMsgTooShort {
			return "Te kort"
		}
		return ""
	}
	f := newFixture(t,
		search.WithTranslator(tr),
		search.WithOnChange(func() { changes.Add(1) }),
		search.WithDebounceDelay(time.Second),
	)
	f.svc.On("ValidateIDFormat", mock.Anything, "8001014800").Return(false, nil).Once()

	f.comp.OnInput("8001014800")
	assert.Equal(t, "Te kort", f.comp.State().Input.Message)

	f.clock.Advance(config.DebounceDelay)
	f.svc.AssertNotCalled(t, "ValidateIDFormat", mock.Anything, mock.Anything)

	f.clock.Advance(time.Second)
	f.svc.AssertExpectations(t)
	// Falls back to English for keys the translator does not know.
	assert.Equal(t, config.FallbackInvalidFormat, f.comp.State().Input.Message)
	assert.GreaterOrEqual(t, changes.Load(), int32(2))
}
