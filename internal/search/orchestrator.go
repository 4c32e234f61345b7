package search

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/engine"
)

// performRealtimeValidation runs the remote format check for the input identified by
// (seq, gen) and reports whether the identifier is now confirmed valid.
// A failing call is recovered: the identifier is treated as invalid.
func (c *Component) performRealtimeValidation(ctx context.Context, seq, gen uint64) bool {
	c.mu.Lock()
	if c.isStaleInputLocked(seq, gen) {
		c.mu.Unlock()
		return false
	}
	id := c.input.RawValue
	c.input.IsValidating = true
	c.mu.Unlock()

	start := c.clock.Now()
	valid, err := c.svc.ValidateIDFormat(ctx, id)
	elapsed := c.clock.Now().Sub(start).Milliseconds()

	var msg string
	switch {
	case err != nil:
		c.metrics.ValidationCompleted(config.ResultError)
		c.log.Warn(config.MsgValidateFailed, config.LogKeyError, err, config.LogKeyDuration, elapsed)
		valid = false
		msg = c.text(config.TKeyMsgValidateError, nil)
	case valid:
		c.metrics.ValidationCompleted(config.ResultValid)
		msg = c.text(config.TKeyMsgValidFormat, nil)
	default:
		c.metrics.ValidationCompleted(config.ResultInvalid)
		msg = c.text(config.TKeyMsgInvalidFormat, nil)
	}

	c.mu.Lock()
	if c.isStaleInputLocked(seq, gen) {
		c.mu.Unlock()
		c.metrics.ValidationCompleted(config.ResultStale)
		c.log.Debug(config.MsgStaleDiscarded, config.LogKeyReason, "validation")
		return false
	}
	c.input.IsConfirmedValid = valid
	c.input.IsValidating = false
	c.input.Message = msg
	c.checked = true
	c.mu.Unlock()

	if err == nil {
		c.log.Debug(config.MsgValidateDone, config.LogKeyValid, valid, config.LogKeyDuration, elapsed)
	}
	c.changed()
	return valid
}

// HandleSearch runs the combined validate-and-search call for the confirmed input.
// It is a no-op unless the input is confirmed valid, no format check is pending and
// no search is in flight. On every path the component leaves the searching state.
func (c *Component) HandleSearch(ctx context.Context) {
	defer c.recoverBoundary()

	c.mu.Lock()
	if reason := c.searchBlockedLocked(); reason != "" {
		c.mu.Unlock()
		c.log.Debug(config.MsgSearchSkipped, config.LogKeyReason, reason)
		return
	}
	c.searchSeq++
	seq, gen := c.searchSeq, c.generation
	id := c.input.RawValue
	c.outcome = Outcome{Kind: OutcomeSearching}
	c.mu.Unlock()
	c.changed()

	searchID := uuid.New().String()
	log := c.log.With(slog.String(config.LogKeySearchID, searchID))
	log.Info(config.MsgSearchStarted)

	defer c.finishSearch(seq, gen)

	start := c.clock.Now()
	resp, err := c.svc.ValidateAndSearch(ctx, id)
	elapsed := c.clock.Now().Sub(start).Milliseconds()

	if err == nil && resp == nil {
		err = engine.ErrEmptyResponse
	}

	c.mu.Lock()
	if c.isStaleSearchLocked(seq, gen) {
		c.mu.Unlock()
		c.metrics.SearchCompleted(config.ResultStale)
		log.Debug(config.MsgStaleDiscarded, config.LogKeyReason, "search")
		return
	}

	switch {
	case err != nil:
		failed := c.text(config.TKeyMsgSearchFailed, nil)
		c.outcome = Outcome{Kind: OutcomeError, Message: failed}
		c.mu.Unlock()

		c.metrics.SearchCompleted(config.ResultError)
		log.Error(config.MsgSearchFailed, config.LogKeyError, err, config.LogKeyDuration, elapsed)
		c.changed()
		c.notify(Notification{
			Title:    c.text(config.TKeyNotifSearchError, nil),
			Message:  failed,
			Severity: SeverityError,
		})

	case !resp.IsValid:
		msg := resp.ErrorMessage
		if msg == "" {
			msg = c.text(config.TKeyMsgSearchInvalid, nil)
		}
		c.outcome = Outcome{Kind: OutcomeError, Message: msg}
		c.mu.Unlock()

		c.metrics.SearchCompleted(config.ResultInvalid)
		log.Info(config.MsgSearchRejected, config.LogKeyDuration, elapsed)
		c.changed()

	default:
		result := newResult(resp)
		c.outcome = Outcome{Kind: OutcomeResults, Result: result}
		year := 0
		if result.Identity != nil {
			year = result.Identity.BirthYear
		}
		if year > 0 {
			c.pending.Add(1)
		}
		c.mu.Unlock()

		c.metrics.SearchCompleted(config.ResultOK)
		log.Info(config.MsgSearchDone,
			config.LogKeyCount, result.SearchCount,
			config.LogKeyDuration, elapsed,
		)
		c.changed()

		if year > 0 {
			go c.retrieveHolidays(log, seq, gen, year)
		}
	}
}

// searchBlockedLocked returns why a search cannot start, or "" when it can.
func (c *Component) searchBlockedLocked() string {
	switch {
	case c.closed:
		return "closed"
	case c.outcome.IsSearching():
		return "in_flight"
	case c.input.IsValidating:
		return "validating"
	case !c.input.IsConfirmedValid:
		return "not_confirmed"
	}
	return ""
}

// finishSearch guarantees the searching state is left even if the call panicked.
func (c *Component) finishSearch(seq, gen uint64) {
	c.mu.Lock()
	stuck := !c.isStaleSearchLocked(seq, gen) && c.outcome.IsSearching()
	if stuck {
		c.outcome = Outcome{Kind: OutcomeError, Message: c.text(config.TKeyMsgSearchFailed, nil)}
	}
	c.mu.Unlock()

	if stuck {
		c.changed()
	}
}

// retrieveHolidays enriches the result of search seq with the holidays of year.
// Failure never touches the committed identity or the results state.
func (c *Component) retrieveHolidays(log *slog.Logger, seq, gen uint64, year int) {
	defer c.pending.Done()
	defer c.recoverBoundary()

	log = log.With(slog.Int(config.LogKeyYear, year))
	log.Debug(config.MsgHolidaysStarted)

	cal, err := c.svc.GetHolidaysForYear(c.ctx, year)
	if err == nil && cal == nil {
		err = engine.ErrEmptyResponse
	}

	c.mu.Lock()
	stale := c.isStaleSearchLocked(seq, gen) || !c.outcome.HasResults()
	if stale {
		c.mu.Unlock()
		c.metrics.HolidaysCompleted(config.ResultStale)
		log.Debug(config.MsgStaleDiscarded, config.LogKeyReason, "holidays")
		return
	}

	if err != nil {
		c.mu.Unlock()
		c.metrics.HolidaysCompleted(config.ResultError)
		log.Warn(config.MsgHolidaysFailed, config.LogKeyError, err)
		c.notify(Notification{
			Title:    config.NotifTitleHolidays,
			Message:  c.text(config.TKeyNotifHolidaysError, nil),
			Severity: SeverityWarning,
		})
		return
	}

	prev := c.outcome.Result
	c.outcome = Outcome{Kind: OutcomeResults, Result: &Result{
		Identity:          prev.Identity,
		Calendar:          copyCalendar(cal),
		SearchCount:       prev.SearchCount,
		FormattedIDNumber: prev.FormattedIDNumber,
	}}
	c.mu.Unlock()

	c.metrics.HolidaysCompleted(config.ResultOK)
	log.Info(config.MsgHolidaysDone, config.LogKeyCount, len(cal.Events))
	c.changed()

	if cal.Success {
		c.notify(Notification{
			Title:    config.NotifTitleHolidays,
			Message:  c.text(config.TKeyNotifHolidaysOK, map[string]interface{}{config.TDataYear: year}),
			Severity: SeveritySuccess,
		})
	}
}

// SearchWithIdentifier sets the input, awaits the format check and, if the identifier
// is valid, runs the full search. It returns once the whole chain, including the
// holiday retrieval, has settled.
func (c *Component) SearchWithIdentifier(ctx context.Context, id string) Results {
	c.searchWithIdentifier(ctx, id)
	c.Wait()
	return c.CurrentResults()
}

func (c *Component) searchWithIdentifier(ctx context.Context, id string) {
	defer c.recoverBoundary()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	seq, eligible := c.applyInputLocked(id)
	gen := c.generation
	c.mu.Unlock()
	c.changed()

	if !eligible {
		return
	}
	if c.performRealtimeValidation(ctx, seq, gen) {
		c.HandleSearch(ctx)
	}
}
