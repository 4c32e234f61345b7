package engine_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/engine"
)

const holidaysICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Holiday Service//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:1980-12-25@holidays\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:19801225\r\n" +
	"SUMMARY:Christmas Day\r\n" +
	"CATEGORIES:PUBLIC\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:1980-01-01@holidays\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:19800101\r\n" +
	"SUMMARY:New Year's Day\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestDecodeHolidays_Success(t *testing.T) {
	result, err := engine.DecodeHolidays(strings.NewReader(holidaysICS))
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Events, 2)

	// Events are sorted by date regardless of feed order
	assert.Equal(t, "1980-01-01", result.Events[0].Date)
	assert.Equal(t, "New Year's Day", result.Events[0].Name)
	assert.Equal(t, "1980-12-25", result.Events[1].Date)
	assert.Equal(t, "PUBLIC", result.Events[1].Type)
}

func TestDecodeHolidays_EmptyCalendar(t *testing.T) {
	result, err := engine.DecodeHolidays(strings.NewReader(config.StubVCalendar))
	require.NoError(t, err)

	assert.True(t, result.Success, "A valid but empty calendar is still a successful lookup")
	assert.Empty(t, result.Events)
}

func TestDecodeHolidays_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty stream", ""},
		{"Garbage", "this is not a calendar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.DecodeHolidays(strings.NewReader(tt.input))
			assert.Error(t, err)
			assert.Nil(t, result)
			assert.Contains(t, err.Error(), config.ErrICalDecode)
		})
	}
}

func TestEncodeBirthYearCalendar_MarksBirthday(t *testing.T) {
	identity := &engine.IdentityRecord{BirthYear: 1980, DateOfBirth: "1980-01-01"}
	calendar := &engine.CalendarResult{
		Success: true,
		Events: []engine.Event{
			{Date: "1980-01-01", Name: "New Year's Day", Type: "PUBLIC"},
			{Date: "1980-12-25", Name: "Christmas Day", Type: "PUBLIC"},
		},
	}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	data, err := engine.EncodeBirthYearCalendar(identity, calendar, now)
	require.NoError(t, err)

	ics := string(data)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "X-WR-CALNAME:"+config.ICalCalName)
	assert.Equal(t, 2, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:19800101")
	assert.Contains(t, ics, "CATEGORIES:"+config.CategoryBirthday)
	assert.Contains(t, ics, "CATEGORIES:PUBLIC")
	assert.Contains(t, ics, "DTSTAMP:20250601T100000Z")

	// Round trip through the decoder keeps both holidays
	decoded, err := engine.DecodeHolidays(strings.NewReader(ics))
	require.NoError(t, err)
	assert.Len(t, decoded.Events, 2)
}

func TestEncodeBirthYearCalendar_StableUIDs(t *testing.T) {
	calendar := &engine.CalendarResult{Events: []engine.Event{{Date: "1980-01-01", Name: "New Year's Day"}}}

	first, err := engine.EncodeBirthYearCalendar(nil, calendar, time.Now())
	require.NoError(t, err)
	second, err := engine.EncodeBirthYearCalendar(nil, calendar, time.Now())
	require.NoError(t, err)

	uid := func(ics string) string {
		for _, line := range strings.Split(ics, "\r\n") {
			if strings.HasPrefix(line, "UID:") {
				return line
			}
		}
		return ""
	}
	assert.NotEmpty(t, uid(string(first)))
	assert.Equal(t, uid(string(first)), uid(string(second)))
}

func TestEncodeBirthYearCalendar_Stub(t *testing.T) {
	data, err := engine.EncodeBirthYearCalendar(nil, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, config.StubVCalendar, string(data))

	data, err = engine.EncodeBirthYearCalendar(nil, &engine.CalendarResult{Success: true}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, config.StubVCalendar, string(data))
}
