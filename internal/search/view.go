package search

import (
	"strings"
	"time"

	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/engine"
)

// View is everything a front-end needs to render the component.
// It is derived from a State snapshot and holds no references back into the component.
type View struct {
	Phase Phase

	RawValue          string
	InputMessage      string
	InputClasses      string
	IsValidating      bool
	IsConfirmedValid  bool
	CanSearch         bool
	IsSearching       bool
	HasResults        bool
	HasError          bool
	ErrorMessage      string
	FormattedIDNumber string

	DateOfBirth  string
	GenderLabel  string
	GenderBadge  string
	CitizenLabel string
	CitizenBadge string
	SearchCount  int

	Holidays          []engine.Event
	HolidayCount      int
	HolidayCountLabel string
	CrossReference    []engine.Event
	HasCrossReference bool
}

// Project derives a View from s. It has no side effects.
func Project(s State, tr Translator) View {
	v := View{
		Phase:            s.Phase(),
		RawValue:         s.Input.RawValue,
		InputMessage:     s.Input.Message,
		InputClasses:     InputClasses(s),
		IsValidating:     s.Input.IsValidating,
		IsConfirmedValid: s.Input.IsConfirmedValid,
		IsSearching:      s.Outcome.IsSearching(),
		HasResults:       s.Outcome.HasResults(),
		HasError:         s.Outcome.HasError(),
		ErrorMessage:     s.Outcome.Message,
	}
	v.CanSearch = s.Input.IsConfirmedValid && !s.Input.IsValidating && !v.IsSearching

	r := s.Outcome.Result
	if !v.HasResults || r == nil {
		return v
	}

	v.FormattedIDNumber = r.FormattedIDNumber
	v.SearchCount = r.SearchCount
	v.DateOfBirth = FormatDateOfBirth(r.Identity)
	v.GenderLabel, v.GenderBadge = gender(r.Identity, tr)
	v.CitizenLabel, v.CitizenBadge = citizenship(r.Identity, tr)

	if r.Calendar != nil {
		v.Holidays = r.Calendar.Events
		v.HolidayCount = len(r.Calendar.Events)
	}
	v.HolidayCountLabel = translate(tr, config.TKeyHolidayCount, map[string]interface{}{
		config.TDataCount: v.HolidayCount,
	})

	v.CrossReference = r.CrossReference()
	v.HasCrossReference = len(v.CrossReference) > 0
	return v
}

// FormatDateOfBirth renders the date of birth in long form. Unparsable dates are shown
// as sent by the service; a missing date is shown as config.FallbackUnknown.
func FormatDateOfBirth(identity *engine.IdentityRecord) string {
	if identity == nil || identity.DateOfBirth == "" {
		return config.FallbackUnknown
	}
	t, err := time.Parse(config.DateFormatISO, identity.DateOfBirth)
	if err != nil {
		return identity.DateOfBirth
	}
	return t.Format(config.DateFormatLong)
}

func gender(identity *engine.IdentityRecord, tr Translator) (label, badge string) {
	g := ""
	if identity != nil {
		g = strings.ToLower(identity.Gender)
	}
	switch g {
	case config.GenderMale:
		return translate(tr, config.TKeyGenderMale, nil), config.BadgeMale
	case config.GenderFemale:
		return translate(tr, config.TKeyGenderFemale, nil), config.BadgeFemale
	default:
		return translate(tr, config.TKeyGenderUnknown, nil), config.BadgeNeutral
	}
}

func citizenship(identity *engine.IdentityRecord, tr Translator) (label, badge string) {
	if identity != nil && identity.IsCitizen {
		return translate(tr, config.TKeyCitizen, nil), config.BadgeCitizen
	}
	return translate(tr, config.TKeyResident, nil), config.BadgeResident
}

// InputClasses composes the style classes of the identifier field.
func InputClasses(s State) string {
	var classes []string
	switch {
	case s.Input.IsValidating:
		classes = append(classes, config.ClassValidating)
	case s.Input.IsConfirmedValid:
		classes = append(classes, config.ClassValid)
	case s.Checked && s.Input.RawValue != "":
		classes = append(classes, config.ClassInvalid)
	}
	if s.Outcome.HasError() {
		classes = append(classes, config.ClassHasError)
	}
	return strings.Join(classes, " ")
}
