package search

import "github.com/tartampluch/go-idlookup/internal/engine"

// Phase names the state of the validation/search state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseValid
	PhaseInvalid
	PhaseSearching
	PhaseResults
	PhaseSearchError
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseValid:
		return "valid"
	case PhaseInvalid:
		return "invalid"
	case PhaseSearching:
		return "searching"
	case PhaseResults:
		return "results"
	case PhaseSearchError:
		return "search_error"
	default:
		return "idle"
	}
}

// InputState is the text being typed and the status of its format check.
// IsValidating=true means IsConfirmedValid refers to a previous input and is provisional.
type InputState struct {
	RawValue         string
	IsConfirmedValid bool
	IsValidating     bool
	Message          string
}

// OutcomeKind tags the result of the last search.
type OutcomeKind int

const (
	OutcomeIdle OutcomeKind = iota
	OutcomeSearching
	OutcomeResults
	OutcomeError
)

// Outcome is the search state as a tagged value, so a search can never be
// both successful and failed at once.
// Result is set only for OutcomeResults, Message only for OutcomeError.
type Outcome struct {
	Kind    OutcomeKind
	Result  *Result
	Message string
}

func (o Outcome) IsSearching() bool { return o.Kind == OutcomeSearching }
func (o Outcome) HasResults() bool  { return o.Kind == OutcomeResults }
func (o Outcome) HasError() bool    { return o.Kind == OutcomeError }

// Result is the committed data of a successful search.
// A Result is never modified after it is published; enrichment publishes a new one.
type Result struct {
	Identity          *engine.IdentityRecord
	Calendar          *engine.CalendarResult
	SearchCount       int
	FormattedIDNumber string
}

// CrossReference returns the holidays falling on the birthday.
func (r *Result) CrossReference() []engine.Event {
	if r == nil {
		return nil
	}
	return engine.CrossReference(r.Identity, r.Calendar)
}

func newResult(resp *engine.SearchResponse) *Result {
	r := &Result{
		SearchCount:       resp.SearchCount,
		FormattedIDNumber: resp.FormattedIDNumber,
	}
	if resp.IdentityRecord != nil {
		identity := *resp.IdentityRecord
		r.Identity = &identity
		if r.FormattedIDNumber == "" {
			r.FormattedIDNumber = identity.FormattedIDNumber
		}
	}
	r.Calendar = copyCalendar(resp.CalendarResult)
	return r
}

func copyCalendar(c *engine.CalendarResult) *engine.CalendarResult {
	if c == nil {
		return nil
	}
	out := &engine.CalendarResult{Success: c.Success}
	if c.Events != nil {
		out.Events = append(make([]engine.Event, 0, len(c.Events)), c.Events...)
	}
	return out
}

// State is a consistent snapshot of the component.
type State struct {
	Input   InputState
	Outcome Outcome

	// Checked reports that a format check completed for the current input.
	Checked bool
}

// Phase derives the named state from the snapshot.
func (s State) Phase() Phase {
	switch {
	case s.Outcome.IsSearching():
		return PhaseSearching
	case s.Input.IsValidating:
		return PhaseValidating
	case s.Outcome.HasResults():
		return PhaseResults
	case s.Outcome.HasError():
		return PhaseSearchError
	case s.Input.IsConfirmedValid:
		return PhaseValid
	case s.Input.RawValue != "":
		return PhaseInvalid
	default:
		return PhaseIdle
	}
}

// Results is the snapshot returned to external callers of CurrentResults.
// Identity and Calendar are shared with the component and must be treated as read-only.
type Results struct {
	Identity    *engine.IdentityRecord
	Calendar    *engine.CalendarResult
	SearchCount int
	IsValid     bool
	HasResults  bool
}
