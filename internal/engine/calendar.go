package engine

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-idlookup/internal/config"
)

// DecodeHolidays parses an iCalendar stream of all-day holiday events.
// A stream that decodes into a VCALENDAR reports Success even when it holds no events.
// Events without a usable DTSTART are skipped; the result is sorted by date.
func DecodeHolidays(r io.Reader) (*CalendarResult, error) {
	dec := ical.NewDecoder(r)
	result := &CalendarResult{Events: make([]Event, 0)}
	decoded := false

	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrICalDecode, err)
		}
		decoded = true

		for _, ev := range cal.Events() {
			start, err := ev.DateTimeStart(time.UTC)
			if err != nil {
				slog.Debug("Skipping holiday without start date",
					config.LogKeyComponent, config.CompEngine,
					config.LogKeyError, err)
				continue
			}
			name, _ := ev.Props.Text(config.PropSummary)
			category, _ := ev.Props.Text(config.PropCategories)
			description, _ := ev.Props.Text(config.PropDescription)

			result.Events = append(result.Events, Event{
				Date:        start.Format(config.DateFormatISO),
				Name:        name,
				Type:        category,
				Description: description,
			})
		}
	}

	if !decoded {
		return nil, fmt.Errorf("%s: %w", config.ErrICalDecode, io.ErrUnexpectedEOF)
	}

	sort.SliceStable(result.Events, func(i, j int) bool {
		return result.Events[i].Date < result.Events[j].Date
	})
	result.Success = true
	return result, nil
}

// EncodeBirthYearCalendar renders the holidays of the identity's birth year as an
// iCalendar feed. Holidays falling on the birthday get the BIRTHDAY category.
// now is used for DTSTAMP only.
func EncodeBirthYearCalendar(identity *IdentityRecord, calendar *CalendarResult, now time.Time) ([]byte, error) {
	if calendar == nil || len(calendar.Events) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	birthdays := make(map[string]bool)
	for _, e := range CrossReference(identity, calendar) {
		birthdays[e.Date] = true
	}

	for _, e := range calendar.Events {
		day, err := time.Parse(config.DateFormatISO, e.Date)
		if err != nil {
			continue
		}

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, e.Date, eventHash(e), config.ICalDomain))
		event.Props.SetText(config.PropSummary, e.Name)
		if e.Description != "" {
			event.Props.SetText(config.PropDescription, e.Description)
		}

		category := e.Type
		if birthdays[e.Date] {
			category = config.CategoryBirthday
		}
		if category != "" {
			event.Props.SetText(config.PropCategories, category)
		}

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(day)
		event.Props.Set(dtStartProp)
		event.Props.Set(dtStampProp)

		cal.Children = append(cal.Children, event.Component)
	}

	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// eventHash keeps UIDs stable across refreshes of the same holiday.
func eventHash(e Event) string {
	sum := sha256.Sum256([]byte(e.Date + "|" + e.Name))
	return fmt.Sprintf("%x", sum[:8])
}
