package search

import (
	"fmt"

	"github.com/tartampluch/go-idlookup/internal/config"
)

// Translator resolves a message key with optional template data.
// It returns "" (or the key itself) when it has no translation, in which case
// the built-in English fallback is used.
type Translator func(key string, data map[string]interface{}) string

var fallbacks = map[string]string{
	config.TKeyMsgTooShort:        config.FallbackTooShort,
	config.TKeyMsgValidFormat:     config.FallbackValidFormat,
	config.TKeyMsgInvalidFormat:   config.FallbackInvalidFormat,
	config.TKeyMsgValidateError:   config.FallbackValidateError,
	config.TKeyMsgSearchInvalid:   config.FallbackSearchInvalid,
	config.TKeyMsgSearchFailed:    config.FallbackSearchFailed,
	config.TKeyMsgReload:          config.FallbackReload,
	config.TKeyNotifSearchError:   config.FallbackNotifSearchErr,
	config.TKeyNotifHolidaysOK:    config.FallbackHolidaysOK,
	config.TKeyNotifHolidaysError: config.FallbackHolidaysError,
	config.TKeyNotifFatal:         config.FallbackNotifFatal,
	config.TKeyGenderMale:         config.FallbackGenderMale,
	config.TKeyGenderFemale:       config.FallbackGenderFemale,
	config.TKeyGenderUnknown:      config.FallbackGenderUnknown,
	config.TKeyCitizen:            config.FallbackCitizen,
	config.TKeyResident:           config.FallbackResident,
	config.TKeyHolidayCount:       config.FallbackHolidayCount,
}

// translate never panics: a failing translator degrades to the fallback text.
func translate(tr Translator, key string, data map[string]interface{}) string {
	if tr != nil {
		var s string
		func() {
			defer func() { _ = recover() }()
			s = tr(key, data)
		}()
		if s != "" && s != key {
			return s
		}
	}

	f, ok := fallbacks[key]
	if !ok {
		return key
	}
	switch key {
	case config.TKeyHolidayCount:
		return fmt.Sprintf(f, data[config.TDataCount])
	case config.TKeyNotifHolidaysOK:
		return fmt.Sprintf(f, data[config.TDataYear])
	}
	return f
}
