package engine

import (
	"time"

	"github.com/tartampluch/go-idlookup/internal/config"
)

// IdentityRecord is the decoded identity returned by the lookup service.
// It is replaced wholesale on each successful search and never mutated in place.
type IdentityRecord struct {
	// BirthYear is the full four-digit year of birth.
	BirthYear int `json:"birthYear"`

	// DateOfBirth is the ISO date (YYYY-MM-DD) as supplied by the service.
	DateOfBirth string `json:"dateOfBirth"`

	// Gender is "male" or "female"; anything else is displayed as unknown.
	Gender string `json:"gender"`

	// IsCitizen distinguishes citizens from permanent residents.
	IsCitizen bool `json:"isCitizen"`

	// FormattedIDNumber is the identifier grouped for display (e.g. "800101 4800 08 6").
	FormattedIDNumber string `json:"formattedIdNumber"`
}

// Event is a single calendar entry (a public holiday).
type Event struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// CalendarResult is the holiday calendar of a given year.
type CalendarResult struct {
	Success bool    `json:"success"`
	Events  []Event `json:"events"`
}

// SearchResponse is the payload of the combined validate-and-search call.
// Everything but IsValid is optional.
type SearchResponse struct {
	IsValid           bool            `json:"isValid"`
	ErrorMessage      string          `json:"errorMessage,omitempty"`
	IdentityRecord    *IdentityRecord `json:"identityRecord,omitempty"`
	CalendarResult    *CalendarResult `json:"calendarResult,omitempty"`
	SearchCount       int             `json:"searchCount,omitempty"`
	FormattedIDNumber string          `json:"formattedIdNumber,omitempty"`
}

// BirthDate parses DateOfBirth. The boolean is false when the date is missing or malformed.
func (r IdentityRecord) BirthDate() (time.Time, bool) {
	t, err := time.Parse(config.DateFormatISO, r.DateOfBirth)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CrossReference returns the events falling on the birthday in the birth year,
// i.e. the month/day of DateOfBirth combined with BirthYear. Order follows the calendar.
// It is a pure function of its inputs and returns nil when either is unusable.
func CrossReference(identity *IdentityRecord, calendar *CalendarResult) []Event {
	if identity == nil || calendar == nil || identity.BirthYear <= 0 {
		return nil
	}
	dob, ok := identity.BirthDate()
	if !ok {
		return nil
	}
	// time.Date normalizes Feb 29 in non-leap years, which never matches a real holiday date string.
	target := time.Date(identity.BirthYear, dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC)
	if target.Month() != dob.Month() {
		return nil
	}

	var matches []Event
	for _, e := range calendar.Events {
		d, err := time.Parse(config.DateFormatISO, e.Date)
		if err != nil {
			continue
		}
		if d.Equal(target) {
			matches = append(matches, e)
		}
	}
	return matches
}
