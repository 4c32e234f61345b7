package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Settings holds the user-editable configuration shared by both front-ends.
// The desktop window persists it in fyne Preferences, the terminal mode reads it
// from a TOML file. The API key itself never lives here; it is kept in the OS keyring.
type Settings struct {
	ServiceURL string `toml:"service_url" validate:"required,url,startswith=http"`
	Language   string `toml:"language" validate:"required,oneof=en af"`
	Port       string `toml:"port" validate:"required,numeric,listenport"`
	APIUser    string `toml:"api_user" validate:"omitempty,max=128"`
}

var settingsValidator = newSettingsValidator()

func newSettingsValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// "listenport" is the numeric range accepted by net.Listen on the loopback address.
	_ = v.RegisterValidation("listenport", func(fl validator.FieldLevel) bool {
		var n int
		if _, err := fmt.Sscanf(fl.Field().String(), "%d", &n); err != nil {
			return false
		}
		return n >= 1 && n <= 65535
	})
	return v
}

// DefaultSettings returns the settings used when nothing has been configured yet.
func DefaultSettings() Settings {
	return Settings{
		ServiceURL: DefaultServiceURL,
		Language:   DefaultLanguage,
		Port:       DefaultPort,
	}
}

// Validate checks every field and reports the first invalid one.
func (s Settings) Validate() error {
	if err := settingsValidator.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s: field %s failed %q", ErrSettingsInvalid, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%s: %w", ErrSettingsInvalid, err)
	}
	return nil
}

// LoadSettings reads a TOML settings file. Missing keys keep their defaults and
// a missing file yields the defaults unchanged.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("%s: %w", ErrSettingsRead, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%s: %w", ErrSettingsParse, err)
	}
	return s, s.Validate()
}
