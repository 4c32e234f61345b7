// Package search implements the identifier lookup component: a debounced remote
// format check while the user types, a guarded search once the identifier is
// confirmed valid, and a dependent holiday retrieval that enriches the result.
//
// All state is owned by one Component and guarded by a single mutex; remote calls
// run without the lock. Completions that arrive after a newer input, a newer search,
// Reset or Close are discarded by comparing sequence and generation counters.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/engine"
)

// Metrics receives the outcome of every remote call. Results are the config.Result* values.
type Metrics interface {
	ValidationCompleted(result string)
	SearchCompleted(result string)
	HolidaysCompleted(result string)
}

type noopMetrics struct{}

func (noopMetrics) ValidationCompleted(string) {}
func (noopMetrics) SearchCompleted(string)     {}
func (noopMetrics) HolidaysCompleted(string)   {}

// Option configures a Component.
type Option func(*Component)

// WithClock replaces the real clock, typically with a fake in tests.
func WithClock(clock engine.Clock) Option {
	return func(c *Component) { c.clock = clock }
}

// WithNotifier sets the sink for user-visible notifications.
func WithNotifier(n Notifier) Option {
	return func(c *Component) { c.notifier = n }
}

// WithTranslator sets the message translator.
func WithTranslator(tr Translator) Option {
	return func(c *Component) { c.tr = tr }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(c *Component) { c.metrics = m }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Component) { c.log = l.With(config.LogKeyComponent, config.CompSearch) }
}

// WithOnChange registers a callback invoked (outside the lock) after every state change.
// Front-ends use it to re-render; it may be called from any goroutine.
func WithOnChange(fn func()) Option {
	return func(c *Component) { c.onChange = fn }
}

// WithDebounceDelay overrides config.DebounceDelay.
func WithDebounceDelay(d time.Duration) Option {
	return func(c *Component) { c.delay = d }
}

// Component is the identifier lookup state machine.
type Component struct {
	svc      engine.LookupService
	clock    engine.Clock
	notifier Notifier
	tr       Translator
	metrics  Metrics
	log      *slog.Logger
	onChange func()
	delay    time.Duration

	// ctx lives as long as the component; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	input      InputState
	checked    bool
	outcome    Outcome
	timer      engine.Timer
	inputSeq   uint64
	searchSeq  uint64
	generation uint64
	closed     bool

	// pending tracks dependent holiday retrievals.
	pending sync.WaitGroup
}

// New creates a component bound to a lookup service.
func New(svc engine.LookupService, opts ...Option) *Component {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Component{
		svc:      svc,
		clock:    engine.RealClock{},
		notifier: LogNotifier{},
		metrics:  noopMetrics{},
		log:      slog.With(config.LogKeyComponent, config.CompSearch),
		delay:    config.DebounceDelay,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnInput records new text from the user and schedules the debounced format check.
// It never calls the service synchronously.
func (c *Component) OnInput(text string) {
	defer c.recoverBoundary()

	scheduled, ok := c.scheduleInput(text)
	if !ok {
		return
	}
	if scheduled {
		c.log.Debug(config.MsgValidateSchedule, config.LogKeyLength, utf8.RuneCountInString(text))
	}
	c.changed()
}

// scheduleInput applies text and, when it is long enough, replaces the pending timer.
func (c *Component) scheduleInput(text string) (scheduled, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, false
	}
	seq, eligible := c.applyInputLocked(text)
	if eligible {
		gen := c.generation
		c.timer = c.clock.AfterFunc(c.delay, func() { c.onDebounceFired(seq, gen) })
	}
	return eligible, true
}

// applyInputLocked is the state transition shared by typing and SearchWithIdentifier.
// It cancels the pending timer and reports whether the text is long enough for a format check.
func (c *Component) applyInputLocked(text string) (seq uint64, eligible bool) {
	c.stopTimerLocked()
	c.inputSeq++

	c.input.RawValue = text
	c.input.Message = ""
	c.checked = false
	if c.outcome.HasError() {
		c.outcome = Outcome{}
	}

	n := utf8.RuneCountInString(text)
	if n > 0 && n < config.IDNumberLength {
		c.input.Message = c.text(config.TKeyMsgTooShort, nil)
	}
	if n >= config.MinValidationLength {
		c.input.IsValidating = true
		return c.inputSeq, true
	}

	c.input.IsConfirmedValid = false
	c.input.IsValidating = false
	return c.inputSeq, false
}

func (c *Component) onDebounceFired(seq, gen uint64) {
	defer c.recoverBoundary()

	c.mu.Lock()
	stale := c.isStaleInputLocked(seq, gen)
	if !stale {
		c.timer = nil
	}
	c.mu.Unlock()

	if stale {
		c.log.Debug(config.MsgStaleDiscarded, config.LogKeyReason, "debounce")
		return
	}
	c.performRealtimeValidation(c.ctx, seq, gen)
}

func (c *Component) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Component) isStaleInputLocked(seq, gen uint64) bool {
	return c.closed || seq != c.inputSeq || gen != c.generation
}

func (c *Component) isStaleSearchLocked(seq, gen uint64) bool {
	return c.closed || seq != c.searchSeq || gen != c.generation
}

// Reset restores every field to its initial value and cancels the pending timer.
// In-flight remote calls are not interrupted; their completions are discarded.
func (c *Component) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	c.log.Info(config.MsgComponentReset)
	c.changed()
}

func (c *Component) resetLocked() {
	c.stopTimerLocked()
	c.generation++
	c.inputSeq++
	c.input = InputState{}
	c.checked = false
	c.outcome = Outcome{}
}

// Close tears the component down. Late completions are discarded and the component
// context is cancelled. Close is idempotent.
func (c *Component) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.log.Info(config.MsgComponentClosed)
}

// Wait blocks until every dependent holiday retrieval has settled.
func (c *Component) Wait() {
	c.pending.Wait()
}

// State returns a consistent snapshot.
func (c *Component) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Input: c.input, Outcome: c.outcome, Checked: c.checked}
}

// View projects the current state for display.
func (c *Component) View() View {
	return Project(c.State(), c.tr)
}

// CurrentResults returns the synchronous snapshot exposed to external callers.
func (c *Component) CurrentResults() Results {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := Results{
		IsValid:    c.input.IsConfirmedValid,
		HasResults: c.outcome.HasResults(),
	}
	if r := c.outcome.Result; r != nil {
		res.Identity = r.Identity
		res.Calendar = r.Calendar
		res.SearchCount = r.SearchCount
	}
	return res
}

func (c *Component) text(key string, data map[string]interface{}) string {
	return translate(c.tr, key, data)
}

// changed runs the change callback; a panicking callback is logged and ignored.
func (c *Component) changed() {
	if c.onChange == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error(config.ErrPanicRecovered, config.LogKeyPanic, fmt.Sprint(r))
		}
	}()
	c.onChange()
}

// notify delivers to the sink without letting it disturb the component.
func (c *Component) notify(n Notification) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error(config.ErrPanicRecovered, config.LogKeyPanic, fmt.Sprint(r))
		}
	}()
	c.notifier.Notify(n)
}

// recoverBoundary is deferred by every entry point and goroutine. An unexpected panic
// is turned into an error outcome with a notification asking the user to reload.
func (c *Component) recoverBoundary() {
	r := recover()
	if r == nil {
		return
	}
	c.log.Error(config.ErrPanicRecovered,
		config.LogKeyPanic, fmt.Sprint(r),
		"stack", string(debug.Stack()),
	)

	reload := c.text(config.TKeyMsgReload, nil)
	c.mu.Lock()
	c.stopTimerLocked()
	c.input.IsValidating = false
	c.outcome = Outcome{Kind: OutcomeError, Message: reload}
	c.mu.Unlock()

	c.changed()
	c.notify(Notification{
		Title:    c.text(config.TKeyNotifFatal, nil),
		Message:  reload,
		Severity: SeverityError,
	})
}
