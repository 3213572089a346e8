package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme returns the default dark theme
func DefaultTheme() Theme {
	return Theme{
		Name: "default",

		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),

		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("237"),
		Cursor:        lipgloss.Color("248"),

		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		Comment: lipgloss.Color("65"),

		Keyword: lipgloss.Color("75"),
		String:  lipgloss.Color("180"),
	}
}

// LightTheme returns a light variant for bright terminals
func LightTheme() Theme {
	return Theme{
		Name: "light",

		Background: lipgloss.Color("255"),
		Foreground: lipgloss.Color("236"),

		Border:        lipgloss.Color("250"),
		BorderFocused: lipgloss.Color("27"),
		Selection:     lipgloss.Color("253"),
		Cursor:        lipgloss.Color("240"),

		Success: lipgloss.Color("28"),
		Warning: lipgloss.Color("130"),
		Error:   lipgloss.Color("124"),
		Info:    lipgloss.Color("26"),

		Comment: lipgloss.Color("245"),

		Keyword: lipgloss.Color("26"),
		String:  lipgloss.Color("94"),
	}
}
