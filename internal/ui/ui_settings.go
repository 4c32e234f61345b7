package ui

import (
	"errors"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/zalando/go-keyring"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	langSelect *widget.Select
	urlEntry   *widget.Entry
	userEntry  *widget.Entry
	keyEntry   *widget.Entry
	portEntry  *NumericalEntry
}

// ShowSettingsWindow displays the configuration dialog.
func (app *IDLookupApp) ShowSettingsWindow() {
	if app.settingsWindow != nil {
		slog.Debug("Settings window already open, requesting focus", config.LogKeyComponent, config.CompUISet)
		app.settingsWindow.RequestFocus()
		return
	}

	slog.Info("Opening settings window", config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinSettings))
	app.settingsWindow = w

	sw := app.newSettingsWidgets()

	itemLang := widget.NewFormItem(app.GetMsg(config.TKeyLblLanguage), sw.langSelect)

	itemURL := widget.NewFormItem(app.GetMsg(config.TKeyLblServiceURL), sw.urlEntry)
	itemURL.HintText = app.GetMsg(config.TKeyHelpServiceURL)

	itemUser := widget.NewFormItem(app.GetMsg(config.TKeyLblAPIUser), sw.userEntry)
	itemKey := widget.NewFormItem(app.GetMsg(config.TKeyLblAPIKey), sw.keyEntry)

	itemPort := widget.NewFormItem(app.GetMsg(config.TKeyLblPort), sw.portEntry)
	itemPort.HintText = app.GetMsg(config.TKeyHelpPort)

	form := widget.NewForm(itemLang, itemURL, itemUser, itemKey, itemPort)

	saveAction := func() {
		if err := app.saveSettings(sw); err != nil {
			dialog.ShowError(err, w)
			return
		}
		w.Close()
	}

	btnSave := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), saveAction)
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), func() { w.Close() })

	footerLabel := widget.NewLabel(app.Translate(config.TKeyLblFooter, map[string]interface{}{
		config.TDataVersion: config.Version,
	}))
	footerLabel.Alignment = fyne.TextAlignCenter
	footerLabel.TextStyle = fyne.TextStyle{Italic: true}

	content := container.NewPadded(container.NewVBox(
		form,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footerLabel,
	))

	w.SetContent(content)
	w.Resize(fyne.NewSize(config.SettingsWindowWidth, content.MinSize().Height))
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.settingsWindow = nil })
	w.Show()
}

// newSettingsWidgets creates the form widgets pre-filled from the preferences and the keyring.
func (app *IDLookupApp) newSettingsWidgets() *settingsWidgets {
	sw := &settingsWidgets{}

	sw.langSelect = widget.NewSelect(app.SupportedLanguages, nil)
	sw.langSelect.SetSelected(app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage))

	sw.urlEntry = widget.NewEntry()
	sw.urlEntry.SetText(app.Preferences.StringWithFallback(config.PrefServiceURL, config.DefaultServiceURL))
	sw.urlEntry.PlaceHolder = config.PlaceholderURL

	sw.userEntry = widget.NewEntry()
	sw.userEntry.SetText(app.Preferences.String(config.PrefAPIUser))

	sw.keyEntry = widget.NewPasswordEntry()
	sw.keyEntry.SetText(app.loadAPIKey())

	sw.portEntry = NewNumericalEntry()
	sw.portEntry.SetText(app.Preferences.StringWithFallback(config.PrefServerPort, config.DefaultPort))

	return sw
}

// saveSettings validates the form, persists it and reconnects the search component.
// Nothing is written when validation fails.
func (app *IDLookupApp) saveSettings(sw *settingsWidgets) error {
	s := config.Settings{
		ServiceURL: sw.urlEntry.Text,
		Language:   sw.langSelect.Selected,
		Port:       sw.portEntry.Text,
		APIUser:    sw.userEntry.Text,
	}
	if err := s.Validate(); err != nil {
		slog.Warn(config.ErrSettingsInvalid,
			config.LogKeyComponent, config.CompUISet,
			config.LogKeyError, err)
		msg := app.Translate(config.TKeyErrSettings, map[string]interface{}{config.TDataValue: err.Error()})
		if msg == "" {
			msg = err.Error()
		}
		return errors.New(msg)
	}

	// The key is stored only when provided so an empty field keeps the saved secret.
	if s.APIUser != "" && sw.keyEntry.Text != "" {
		if err := keyring.Set(config.KeyringService, s.APIUser, sw.keyEntry.Text); err != nil {
			slog.Error(config.ErrKeyringWrite,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUISet)
		}
	}

	app.Preferences.SetString(config.PrefLanguage, s.Language)
	app.Preferences.SetString(config.PrefServiceURL, s.ServiceURL)
	app.Preferences.SetString(config.PrefAPIUser, s.APIUser)
	app.Preferences.SetString(config.PrefServerPort, s.Port)

	slog.Info(config.MsgSettingsSaved,
		config.LogKeyComponent, config.CompUISet,
		config.LogKeyURL, s.ServiceURL,
		config.LogKeyLang, s.Language)

	app.UpdateLocalizer()
	return app.Connect()
}
