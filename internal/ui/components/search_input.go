package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/seralvarez/dstree/internal/ui/theme"
)

// SearchChangedMsg carries the live search string on every edit.
type SearchChangedMsg struct {
	Query string
}

// CloseSearchMsg is sent when search should be closed
type CloseSearchMsg struct{}

// SearchInput provides the live tree search box
type SearchInput struct {
	Input   textinput.Model
	Theme   theme.Theme
	Width   int
	Visible bool
}

// NewSearchInput creates a new search input
func NewSearchInput(th theme.Theme) *SearchInput {
	ti := textinput.New()
	ti.Placeholder = "Search tables… (t: d: s: c: prefixes)"
	ti.CharLimit = 256
	ti.Width = 40

	return &SearchInput{
		Input: ti,
		Theme: th,
	}
}

// Open shows and focuses the input.
func (s *SearchInput) Open() tea.Cmd {
	s.Visible = true
	return s.Input.Focus()
}

// Reset clears and hides the search input
func (s *SearchInput) Reset() {
	s.Input.SetValue("")
	s.Input.Blur()
	s.Visible = false
}

// Value returns the current query.
func (s *SearchInput) Value() string {
	return s.Input.Value()
}

// Update handles messages
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if !s.Visible {
		return s, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			s.Reset()
			return s, tea.Batch(
				func() tea.Msg { return SearchChangedMsg{Query: ""} },
				func() tea.Msg { return CloseSearchMsg{} },
			)
		case "enter":
			// Confirm: hide the box but keep the filter applied.
			s.Input.Blur()
			s.Visible = false
			return s, func() tea.Msg { return CloseSearchMsg{} }
		}
	}

	before := s.Input.Value()
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)

	if after := s.Input.Value(); after != before {
		query := after
		cmd = tea.Batch(cmd, func() tea.Msg {
			return SearchChangedMsg{Query: query}
		})
	}
	return s, cmd
}

// View renders the input box
func (s *SearchInput) View() string {
	if !s.Visible {
		return ""
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Theme.BorderFocused).
		Width(s.Width - 2).
		Padding(0, 1)

	return style.Render("/ " + s.Input.View())
}
