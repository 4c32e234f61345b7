package ui

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-idlookup/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// LoadBundle reads every embedded locale file and returns the bundle with the
// language codes it found. The terminal front-end shares it.
func LoadBundle() (*i18n.Bundle, []string) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return bundle, nil
	}

	var detectedLangs []string

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		detectedLangs = append(detectedLangs, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
	}

	return bundle, detectedLangs
}

// NewTranslator adapts a localizer to the search component's Translator.
// Missing keys yield "" so the component falls back to its built-in English text.
// A numeric "Count" entry selects the plural form.
func NewTranslator(loc *i18n.Localizer) func(key string, data map[string]interface{}) string {
	return func(key string, data map[string]interface{}) string {
		if loc == nil {
			return ""
		}
		cfg := &i18n.LocalizeConfig{MessageID: key, TemplateData: data}
		if n, ok := data[config.TDataCount].(int); ok {
			cfg.PluralCount = n
		}
		msg, err := loc.Localize(cfg)
		if err != nil {
			slog.Debug(config.MsgTransMissing,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyKey, key,
				config.LogKeyError, err,
			)
			return ""
		}
		return msg
	}
}

// SetupI18n initializes the translation bundle and detects available languages.
func (app *IDLookupApp) SetupI18n() {
	bundle, langs := LoadBundle()
	if len(langs) > 0 {
		app.SupportedLanguages = langs
	}
	app.I18nBundle = bundle
	app.UpdateLocalizer()
}

// UpdateLocalizer refreshes the translator based on the user's language preference.
// The localizer is swapped atomically since the search component translates from its own goroutines.
func (app *IDLookupApp) UpdateLocalizer() {
	lang := app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage)
	app.localizer.Store(i18n.NewLocalizer(app.I18nBundle, lang))
}

// Translate implements search.Translator for the active language.
func (app *IDLookupApp) Translate(key string, data map[string]interface{}) string {
	return NewTranslator(app.localizer.Load())(key, data)
}

// GetMsg is a helper to translate a label key; the key itself is returned when missing.
func (app *IDLookupApp) GetMsg(key string) string {
	if msg := app.Translate(key, nil); msg != "" {
		return msg
	}
	return key
}
