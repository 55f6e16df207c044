// Package theme holds the Lip Gloss style sets. Two palettes ship: dark
// (default) and light; the config file picks one by name.
package theme

import "github.com/charmbracelet/lipgloss"

// Styles describes reusable Lip Gloss styles shared across the UI.
type Styles struct {
	Header        *lipgloss.Style
	Status        *lipgloss.Style
	Footer        *lipgloss.Style
	Placeholder   *lipgloss.Style
	Panel         *lipgloss.Style
	PanelFocused  *lipgloss.Style
	PanelTitle    *lipgloss.Style
	SelectedRow   *lipgloss.Style
	LogRun        *lipgloss.Style
	LogOK         *lipgloss.Style
	LogError      *lipgloss.Style
	DiffAdd       *lipgloss.Style
	DiffDel       *lipgloss.Style
	ConfirmBorder *lipgloss.Style
	InputBorder   *lipgloss.Style
	PaletteBorder *lipgloss.Style
}

var darkStyles = Styles{
	Header: ptr(
		lipgloss.NewStyle().Bold(true),
	),
	Status: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Placeholder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	),
	Panel: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	),
	PanelFocused: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	),
	PanelTitle: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	SelectedRow: ptr(
		lipgloss.NewStyle().Background(lipgloss.Color("3")).Foreground(lipgloss.Color("0")).Bold(true),
	),
	LogRun: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	),
	LogOK: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	),
	LogError: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	),
	DiffAdd: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	),
	DiffDel: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	),
	ConfirmBorder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	),
	InputBorder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	),
	PaletteBorder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	),
}

var lightStyles = Styles{
	Header: ptr(
		lipgloss.NewStyle().Bold(true),
	),
	Status: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	),
	Placeholder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
	),
	Panel: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	PanelFocused: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	),
	PanelTitle: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true),
	),
	SelectedRow: ptr(
		lipgloss.NewStyle().Background(lipgloss.Color("11")).Foreground(lipgloss.Color("0")).Bold(true),
	),
	LogRun: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	),
	LogOK: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	),
	LogError: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
	),
	DiffAdd: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	),
	DiffDel: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
	),
	ConfirmBorder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	),
	InputBorder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	),
	PaletteBorder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	),
}

// Default exposes the dark style set.
func Default() *Styles {
	return &darkStyles
}

// ForName resolves a theme name to its style set. Unknown names fall back
// to dark; config validation reports them separately.
func ForName(name string) *Styles {
	if name == "light" {
		return &lightStyles
	}
	return &darkStyles
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}
