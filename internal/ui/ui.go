package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/engine"
	"github.com/tartampluch/go-idlookup/internal/search"
	"github.com/tartampluch/go-idlookup/internal/server"
	"github.com/zalando/go-keyring"
)

// ServiceFactory builds the lookup client from the configured URL and API key.
type ServiceFactory func(baseURL, apiKey string) (engine.LookupService, error)

// IDLookupApp encapsulates the UI state, preferences, and the search component.
type IDLookupApp struct {
	App         fyne.App
	Window      fyne.Window
	Preferences fyne.Preferences
	I18nBundle  *i18n.Bundle
	Ctx         context.Context

	Server     *server.FeedServer
	NewService ServiceFactory
	Metrics    search.Metrics

	// SearchOptions are appended to the component options (tests inject clocks here).
	SearchOptions []search.Option

	SupportedLanguages []string

	localizer atomic.Pointer[i18n.Localizer]

	compMu    sync.RWMutex
	component *search.Component

	publisher *server.Publisher

	settingsWindow fyne.Window
	holidaysWindow fyne.Window

	// Main window widgets
	idEntry      *NumericalEntry
	statusLabel  *widget.Label
	progress     *widget.ProgressBarInfinite
	searchBtn    *widget.Button
	resetBtn     *widget.Button
	resultCard   *widget.Card
	dobValue     *widget.Label
	genderValue  *widget.Label
	citizenValue *widget.Label
	countValue   *widget.Label
	holidayValue *widget.Label
	birthdayHol  *widget.Label
	holidaysBtn  *widget.Button
}

// NewIDLookupApp constructs the application and wires dependencies.
func NewIDLookupApp(a fyne.App, ctx context.Context, srv *server.FeedServer, newService ServiceFactory, m search.Metrics) *IDLookupApp {
	a.SetIcon(theme.AccountIcon())

	return &IDLookupApp{
		App:                a,
		Preferences:        a.Preferences(),
		Ctx:                ctx,
		Server:             srv,
		publisher:          server.NewPublisher(srv),
		NewService:         newService,
		Metrics:            m,
		SupportedLanguages: config.SupportedLanguages,
	}
}

// Run launches the application services and the main UI loop.
func (app *IDLookupApp) Run() {
	app.SetupI18n()
	if err := app.Connect(); err != nil {
		app.App.SendNotification(fyne.NewNotification(config.TitleStartupError, err.Error()))
	}
	app.publish()

	go func() {
		if err := app.Server.Start(app.Ctx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)

			app.App.SendNotification(fyne.NewNotification(
				config.TitleStartupError,
				fmt.Sprintf(config.MsgPortBusy, app.Server.Port)))
		}
	}()

	app.BuildMainWindow()
	app.Window.Show()
	app.App.Run()

	app.Component().Close()
}

// Component returns the active search component. It is replaced when settings change.
func (app *IDLookupApp) Component() *search.Component {
	app.compMu.RLock()
	defer app.compMu.RUnlock()
	return app.component
}

// Connect (re)creates the lookup client and the search component from the preferences.
// The previous component, if any, is closed; its late completions are discarded.
func (app *IDLookupApp) Connect() error {
	baseURL := app.Preferences.StringWithFallback(config.PrefServiceURL, config.DefaultServiceURL)
	svc, err := app.NewService(baseURL, app.loadAPIKey())
	if err != nil {
		slog.Error(config.ErrInvalidURL,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyURL, baseURL,
			config.LogKeyError, err)
		return err
	}

	opts := []search.Option{
		search.WithNotifier(&FyneNotifier{App: app.App}),
		search.WithTranslator(app.Translate),
		search.WithOnChange(app.onStateChanged),
	}
	if app.Metrics != nil {
		opts = append(opts, search.WithMetrics(app.Metrics))
	}
	comp := search.New(svc, append(opts, app.SearchOptions...)...)

	app.compMu.Lock()
	prev := app.component
	app.component = comp
	app.compMu.Unlock()

	if prev != nil {
		prev.Close()
	}
	if app.idEntry != nil && app.idEntry.Text != "" {
		comp.OnInput(app.idEntry.Text)
	}
	return nil
}

// loadAPIKey reads the API key of the configured user from the OS keyring.
func (app *IDLookupApp) loadAPIKey() string {
	user := app.Preferences.String(config.PrefAPIUser)
	if user == "" {
		return ""
	}
	key, err := keyring.Get(config.KeyringService, user)
	if err != nil {
		slog.Debug(config.MsgKeyFail,
			config.LogKeyUser, user,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUI)
		return ""
	}
	return key
}

// BuildMainWindow creates the lookup window: identifier entry, actions, and the result card.
func (app *IDLookupApp) BuildMainWindow() {
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinTitle))
	app.Window = w

	app.idEntry = NewNumericalEntry()
	app.idEntry.MaxLength = config.IDNumberLength
	app.idEntry.SetPlaceHolder(app.GetMsg(config.TKeyPlaceholderID))
	app.idEntry.OnChanged = func(s string) {
		if c := app.Component(); c != nil {
			c.OnInput(s)
		}
	}
	app.idEntry.OnSubmitted = func(string) { app.searchTapped() }

	app.statusLabel = widget.NewLabel("")
	app.statusLabel.Wrapping = fyne.TextWrapWord
	app.progress = widget.NewProgressBarInfinite()
	app.progress.Hide()

	app.searchBtn = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSearch), theme.SearchIcon(), app.searchTapped)
	app.searchBtn.Importance = widget.HighImportance
	app.searchBtn.Disable()
	app.resetBtn = widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnReset), theme.ContentClearIcon(), app.resetTapped)

	app.dobValue = widget.NewLabel("")
	app.genderValue = widget.NewLabel("")
	app.citizenValue = widget.NewLabel("")
	app.countValue = widget.NewLabel("")
	app.holidayValue = widget.NewLabel("")
	app.birthdayHol = widget.NewLabel("")
	app.birthdayHol.Importance = widget.SuccessImportance
	app.birthdayHol.Hide()
	app.holidaysBtn = widget.NewButton(app.GetMsg(config.TKeyBtnHolidays), app.ShowHolidaysWindow)

	form := widget.NewForm(
		widget.NewFormItem(app.GetMsg(config.TKeyLblDOB), app.dobValue),
		widget.NewFormItem(app.GetMsg(config.TKeyLblGender), app.genderValue),
		widget.NewFormItem(app.GetMsg(config.TKeyLblCitizenship), app.citizenValue),
		widget.NewFormItem(app.GetMsg(config.TKeyLblSearchCount), app.countValue),
		widget.NewFormItem(app.GetMsg(config.TKeyLblHolidays), app.holidayValue),
	)
	app.resultCard = widget.NewCard("", "", container.NewVBox(form, app.birthdayHol, app.holidaysBtn))
	app.resultCard.Hide()

	inputForm := widget.NewForm(widget.NewFormItem(app.GetMsg(config.TKeyLblIDNumber), app.idEntry))

	content := container.NewPadded(container.NewVBox(
		inputForm,
		app.statusLabel,
		app.progress,
		container.NewGridWithColumns(config.LayoutColumnsDouble, app.resetBtn, app.searchBtn),
		app.resultCard,
	))

	settingsItem := fyne.NewMenuItem(app.GetMsg(config.TKeyMenuSettings), app.ShowSettingsWindow)
	w.SetMainMenu(fyne.NewMainMenu(fyne.NewMenu(config.AppName, settingsItem)))
	w.SetContent(content)
	w.Resize(fyne.NewSize(config.LookupWindowWidth, config.LookupWindowHeight))
	w.SetMaster()

	app.render()
}

// searchTapped runs the search off the UI goroutine; the component guards against duplicates.
func (app *IDLookupApp) searchTapped() {
	c := app.Component()
	if c == nil {
		return
	}
	go c.HandleSearch(app.Ctx)
}

func (app *IDLookupApp) resetTapped() {
	app.idEntry.SetText("")
	if c := app.Component(); c != nil {
		c.Reset()
	}
}

// onStateChanged is the component's change callback. It may run on any goroutine.
func (app *IDLookupApp) onStateChanged() {
	app.publish()
	fyne.Do(app.render)
}

// publish pushes a new result (or its removal after a reset) to the feed server.
func (app *IDLookupApp) publish() {
	app.publisher.Sync(app.Component())
}

// render copies the projected view into the widgets. Must run on the UI goroutine.
func (app *IDLookupApp) render() {
	c := app.Component()
	if c == nil || app.Window == nil {
		return
	}
	v := c.View()

	msg := v.InputMessage
	if v.HasError {
		msg = v.ErrorMessage
	}
	app.statusLabel.SetText(msg)
	app.statusLabel.Importance = statusImportance(v)
	app.statusLabel.Refresh()

	if v.IsValidating || v.IsSearching {
		app.progress.Show()
	} else {
		app.progress.Hide()
	}

	if v.CanSearch {
		app.searchBtn.Enable()
	} else {
		app.searchBtn.Disable()
	}

	if !v.HasResults {
		app.resultCard.Hide()
		return
	}

	app.resultCard.SetTitle(v.FormattedIDNumber)
	app.dobValue.SetText(v.DateOfBirth)
	setBadge(app.genderValue, v.GenderLabel, v.GenderBadge)
	setBadge(app.citizenValue, v.CitizenLabel, v.CitizenBadge)
	app.countValue.SetText(fmt.Sprint(v.SearchCount))
	app.holidayValue.SetText(v.HolidayCountLabel)

	if v.HasCrossReference {
		names := v.CrossReference[0].Name
		for _, e := range v.CrossReference[1:] {
			names += ", " + e.Name
		}
		app.birthdayHol.SetText(app.GetMsg(config.TKeyLblBirthdayHol) + ": " + names)
		app.birthdayHol.Show()
	} else {
		app.birthdayHol.Hide()
	}

	if v.HolidayCount > 0 {
		app.holidaysBtn.Enable()
	} else {
		app.holidaysBtn.Disable()
	}
	app.resultCard.Show()
}

var badgeImportance = map[string]widget.Importance{
	config.BadgeMale:     widget.HighImportance,
	config.BadgeFemale:   widget.SuccessImportance,
	config.BadgeNeutral:  widget.MediumImportance,
	config.BadgeCitizen:  widget.SuccessImportance,
	config.BadgeResident: widget.WarningImportance,
}

func setBadge(l *widget.Label, text, badge string) {
	l.Importance = badgeImportance[badge]
	l.SetText(text)
}

// statusImportance maps the input classes of the view onto label colours.
func statusImportance(v search.View) widget.Importance {
	switch {
	case v.HasError:
		return widget.DangerImportance
	case v.IsValidating:
		return widget.LowImportance
	case v.IsConfirmedValid:
		return widget.SuccessImportance
	case v.InputMessage != "":
		return widget.WarningImportance
	}
	return widget.MediumImportance
}
