// Package tui is the terminal front-end of the lookup. It drives the same
// search component as the desktop window and renders its View with lipgloss.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/engine"
	"github.com/tartampluch/go-idlookup/internal/search"
)

// stateChangedMsg tells the program the component state moved.
type stateChangedMsg struct{}

// notificationMsg carries a toast raised by the component.
type notificationMsg search.Notification

// bridge forwards component callbacks, which fire on arbitrary goroutines,
// into the bubbletea message loop. Sends never block; a dropped change is
// harmless because View always re-reads the component.
type bridge struct {
	events  chan tea.Msg
	observe func()
}

func newBridge() *bridge {
	return &bridge{events: make(chan tea.Msg, config.TUIEventBuffer)}
}

func (b *bridge) changed() {
	if b.observe != nil {
		b.observe()
	}
	select {
	case b.events <- stateChangedMsg{}:
	default:
	}
}

func (b *bridge) Notify(n search.Notification) {
	select {
	case b.events <- notificationMsg(n):
	default:
		slog.Warn(n.Title,
			config.LogKeyComponent, config.CompTUI,
			config.LogKeyValue, n.Message)
	}
}

// wait blocks until the next component event.
func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg {
		return <-b.events
	}
}

// Model is the bubbletea model of the terminal lookup.
type Model struct {
	ctx  context.Context
	comp *search.Component
	br   *bridge
	tr   search.Translator

	input   textinput.Model
	spinner spinner.Model
	styles  *Styles

	toasts       []search.Notification
	showHolidays bool
	width        int
}

// New creates the model and its search component. tr may be nil. Extra
// options are appended after the ones wiring the component to the terminal.
func New(ctx context.Context, svc engine.LookupService, tr search.Translator, opts ...search.Option) *Model {
	m := &Model{
		ctx:     ctx,
		br:      newBridge(),
		tr:      tr,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:  NewStyles(),
	}

	m.input = textinput.New()
	m.input.Prompt = config.TUIPrompt
	m.input.CharLimit = config.IDNumberLength
	m.input.Placeholder = m.label(config.TKeyPlaceholderID, config.FallbackPlaceholderID)
	m.input.Focus()

	base := []search.Option{
		search.WithNotifier(m.br),
		search.WithOnChange(m.br.changed),
	}
	if tr != nil {
		base = append(base, search.WithTranslator(tr))
	}
	m.comp = search.New(svc, append(base, opts...)...)
	return m
}

// Observe registers fn to run on every state change, on the component's
// goroutine. It must be called before Run.
func (m *Model) Observe(fn func(*search.Component)) {
	m.br.observe = func() { fn(m.comp) }
}

// label translates a static label.
func (m *Model) label(key, fallback string) string {
	if m.tr != nil {
		if msg := m.tr(key, nil); msg != "" {
			return msg
		}
	}
	return fallback
}

// Component exposes the search component driven by the model.
func (m *Model) Component() *search.Component {
	return m.comp
}

// Init starts the cursor, the spinner and the event listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.br.wait())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stateChangedMsg:
		return m, m.br.wait()

	case notificationMsg:
		m.toasts = append(m.toasts, search.Notification(msg))
		if len(m.toasts) > config.TUIMaxToasts {
			m.toasts = m.toasts[len(m.toasts)-config.TUIMaxToasts:]
		}
		return m, m.br.wait()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case config.KeyQuit, config.KeyEscape:
		m.comp.Close()
		return m, tea.Quit

	case config.KeySearch:
		ctx := m.ctx
		comp := m.comp
		// The search runs as a command so the loop keeps rendering; the
		// component itself rejects duplicate or premature requests.
		return m, func() tea.Msg {
			comp.HandleSearch(ctx)
			return nil
		}

	case config.KeyReset:
		m.input.SetValue("")
		m.toasts = nil
		m.showHolidays = false
		m.comp.Reset()
		return m, nil

	case config.KeyToggle:
		m.showHolidays = !m.showHolidays
		return m, nil
	}

	if msg.Type == tea.KeyRunes && !digitsOnly(msg.Runes) {
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.comp.OnInput(after)
	}
	return m, cmd
}

func digitsOnly(runes []rune) bool {
	for _, r := range runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// View renders the component's current projection.
func (m *Model) View() string {
	v := m.comp.View()
	s := m.styles

	var b strings.Builder
	b.WriteString(s.Title.Render(config.AppName))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine(v))
	b.WriteString("\n")

	if v.HasResults {
		b.WriteString(s.Card.Render(m.resultCard(v)))
		b.WriteString("\n")
	}

	for _, t := range m.toasts {
		style := s.Toasts[t.Severity.String()]
		b.WriteString(style.Render(fmt.Sprintf("• %s: %s", t.Title, t.Message)))
		b.WriteString("\n")
	}

	help := s.Help
	if m.width > 0 {
		help = help.MaxWidth(m.width)
	}
	b.WriteString(help.Render(config.TUIHelp))
	return b.String()
}

// statusLine styles the input message after the classes of the view.
func (m *Model) statusLine(v search.View) string {
	s := m.styles
	switch {
	case v.HasError:
		return s.StatusError.Render(v.ErrorMessage)
	case v.IsSearching:
		return s.StatusValidating.Render(m.spinner.View() + " " + v.InputMessage)
	case v.IsValidating:
		return s.StatusValidating.Render(m.spinner.View())
	case v.IsConfirmedValid:
		return s.StatusValid.Render(v.InputMessage)
	case v.InputMessage != "":
		return s.StatusInvalid.Render(v.InputMessage)
	}
	return ""
}

func (m *Model) resultCard(v search.View) string {
	s := m.styles
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(label), value)
	}

	lines := []string{
		s.Highlight.Render(v.FormattedIDNumber),
		row(m.label(config.TKeyLblDOB, config.FallbackLblDOB), v.DateOfBirth),
		row(m.label(config.TKeyLblGender, config.FallbackLblGender), s.Badges[v.GenderBadge].Render(v.GenderLabel)),
		row(m.label(config.TKeyLblCitizenship, config.FallbackLblCitizenship), s.Badges[v.CitizenBadge].Render(v.CitizenLabel)),
		row(m.label(config.TKeyLblSearchCount, config.FallbackLblSearchCount), fmt.Sprint(v.SearchCount)),
		row(m.label(config.TKeyLblHolidays, config.FallbackLblHolidays), v.HolidayCountLabel),
	}

	if v.HasCrossReference {
		names := make([]string, 0, len(v.CrossReference))
		for _, e := range v.CrossReference {
			names = append(names, e.Name)
		}
		lines = append(lines, s.Highlight.Render(config.BirthdayMarker+" "+strings.Join(names, ", ")))
	}

	if m.showHolidays {
		birthday := make(map[string]bool, len(v.CrossReference))
		for _, e := range v.CrossReference {
			birthday[e.Date+e.Name] = true
		}
		for _, e := range v.Holidays {
			line := e.Date + "  " + e.Name
			if birthday[e.Date+e.Name] {
				line = s.Highlight.Render(line + config.BirthdayMarker)
			} else {
				line = s.Dim.Render(line)
			}
			lines = append(lines, line)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	m.comp.Close()
	return err
}
