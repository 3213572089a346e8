package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/seralvarez/dstree/internal/history"
	"github.com/seralvarez/dstree/internal/models"
	"github.com/seralvarez/dstree/internal/snippet"
	"github.com/seralvarez/dstree/internal/ui/theme"
)

// PreviewPane shows the selected table: its columns, the snippet that would
// be inserted, and recent insertions.
type PreviewPane struct {
	Width  int
	Height int
	Theme  theme.Theme

	Table  *models.Table
	SQLCtx *models.SQLContext
	Recent []history.Entry
}

// NewPreviewPane creates an empty preview pane.
func NewPreviewPane(th theme.Theme) *PreviewPane {
	return &PreviewPane{Theme: th}
}

// SetSelection updates the previewed table.
func (p *PreviewPane) SetSelection(t *models.Table, sqlCtx *models.SQLContext) {
	p.Table = t
	p.SQLCtx = sqlCtx
}

// View renders the pane.
func (p *PreviewPane) View() string {
	if p.Table == nil {
		style := lipgloss.NewStyle().Foreground(p.Theme.Comment).Italic(true)
		return style.Render("Select a table to preview")
	}

	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(p.Theme.Info)
	dim := lipgloss.NewStyle().Foreground(p.Theme.Comment)

	b.WriteString(title.Render(p.Table.Name) + "\n")
	b.WriteString(dim.Render(fmt.Sprintf("source: %s", p.Table.Source)) + "\n")
	if p.Table.RowCount >= 0 {
		b.WriteString(dim.Render(fmt.Sprintf("rows: %d", p.Table.RowCount)) + "\n")
	}
	b.WriteString("\n")

	if len(p.Table.Columns) > 0 {
		b.WriteString(title.Render("Columns") + "\n")
		for _, col := range p.Table.Columns {
			marker := "  "
			if p.Table.HasPrimaryKey(col.Name) {
				marker = lipgloss.NewStyle().Foreground(p.Theme.Warning).Render("PK")
			}
			b.WriteString(fmt.Sprintf(" %s %s %s\n", marker, col.Name, dim.Render(col.Type)))
		}
		b.WriteString("\n")
	}

	b.WriteString(title.Render("Snippet") + "\n")
	b.WriteString(p.renderSnippet() + "\n")

	if len(p.Recent) > 0 {
		b.WriteString("\n" + title.Render("Recent") + "\n")
		for i, e := range p.Recent {
			if i >= 3 {
				break
			}
			b.WriteString(" " + dim.Render(e.Snippet) + "\n")
		}
	}

	return b.String()
}

// renderSnippet is the isolating boundary around snippet generation: a
// programming error in the source-kind switch surfaces here as an error line
// instead of tearing down the whole interface.
func (p *PreviewPane) renderSnippet() (out string) {
	defer func() {
		if r := recover(); r != nil {
			errStyle := lipgloss.NewStyle().Foreground(p.Theme.Error)
			out = errStyle.Render(fmt.Sprintf("snippet unavailable: %v", r))
		}
	}()

	code := snippet.ForTable(*p.Table, p.SQLCtx)
	codeStyle := lipgloss.NewStyle().Foreground(p.Theme.String)
	return " " + codeStyle.Render(code)
}
