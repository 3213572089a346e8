package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit"},
		{"/", "Search data sources"},
		{"Esc", "Close search"},
		{"Tab", "Switch panel focus"},
	}
}

// GetTreeKeys returns tree navigation key bindings
func GetTreeKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"←/h", "Collapse or move to parent"},
		{"→/l, Space", "Expand or collapse"},
		{"g / G", "Jump to top / bottom"},
		{"Enter, i", "Insert snippet into notebook"},
		{"y", "Copy column name"},
		{"r", "Refresh engine"},
	}
}

// Render renders the help overlay
func Render(width, height int, base lipgloss.Style) string {
	title := lipgloss.NewStyle().Bold(true)

	var b strings.Builder
	b.WriteString(title.Render("dstree — key bindings") + "\n\n")

	b.WriteString(title.Render("Global") + "\n")
	for _, kb := range GetGlobalKeys() {
		b.WriteString(renderBinding(kb) + "\n")
	}

	b.WriteString("\n" + title.Render("Tree") + "\n")
	for _, kb := range GetTreeKeys() {
		b.WriteString(renderBinding(kb) + "\n")
	}

	box := base.
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box.Render(b.String()))
}

func renderBinding(kb KeyBinding) string {
	keyStyle := lipgloss.NewStyle().Bold(true).Width(14)
	return "  " + keyStyle.Render(kb.Key) + kb.Description
}
