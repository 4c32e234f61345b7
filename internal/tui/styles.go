package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/tartampluch/go-idlookup/internal/config"
)

// Styles contains the style definitions of the terminal view.
type Styles struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	Dim       lipgloss.Style
	Help      lipgloss.Style
	Card      lipgloss.Style
	Highlight lipgloss.Style

	StatusValid      lipgloss.Style
	StatusInvalid    lipgloss.Style
	StatusValidating lipgloss.Style
	StatusError      lipgloss.Style

	Badges map[string]lipgloss.Style
	Toasts map[string]lipgloss.Style
}

// NewStyles creates the default palette.
func NewStyles() *Styles {
	badge := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(18),
		Dim:       lipgloss.NewStyle().Faint(true),
		Help:      lipgloss.NewStyle().Faint(true).MarginTop(1),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1).
			MarginTop(1),

		StatusValid:      lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		StatusInvalid:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusValidating: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusError:      lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red

		Badges: map[string]lipgloss.Style{
			config.BadgeMale:     badge.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("33")),
			config.BadgeFemale:   badge.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("169")),
			config.BadgeNeutral:  badge.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("241")),
			config.BadgeCitizen:  badge.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("78")),
			config.BadgeResident: badge.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")),
		},
		Toasts: map[string]lipgloss.Style{
			"info":    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
			"success": lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
			"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		},
	}
}
