package components

// TreeView renders the data-source tree: engines at the top level, then
// databases, schemas, tables, and columns. Expansion state lives here in an
// explicit per-path map, metadata arrives lazily through the fetch cache, and
// a live search string filters every level.

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/seralvarez/dstree/internal/fetch"
	"github.com/seralvarez/dstree/internal/models"
	"github.com/seralvarez/dstree/internal/ui/theme"
)

type nodeKind int

const (
	kindEngine nodeKind = iota
	kindDatabase
	kindSchema
	kindTable
	kindColumn
	kindStatus
)

// treeNode is one row of the rendered tree. Identity is the structural path,
// which also keys the expansion map across rebuilds.
type treeNode struct {
	path       string
	kind       nodeKind
	name       string
	depth      int
	expandable bool
	expanded   bool

	sqlCtx models.SQLContext
	table  models.Table
	column models.Column

	// status row fields
	statusErr   error
	statusState fetch.State

	children []*treeNode
}

// SnippetRequestedMsg asks the app to insert code for a table or column.
type SnippetRequestedMsg struct {
	Table  models.Table
	SQLCtx *models.SQLContext
	Column string
}

// RefreshRequestedMsg asks the app to refresh an engine.
type RefreshRequestedMsg struct {
	Engine string
}

// ColumnYankedMsg reports a clipboard copy of a column name.
type ColumnYankedMsg struct {
	Column string
	Err    error
}

// TableFetch identifies a pending table-list fetch.
type TableFetch struct {
	SQLCtx models.SQLContext
}

// ColumnFetch identifies a pending column fetch.
type ColumnFetch struct {
	SQLCtx models.SQLContext
	Table  string
}

// TreeView is the navigation tree component.
type TreeView struct {
	Width  int
	Height int

	store *models.Store
	cache *fetch.Cache
	theme theme.Theme

	expanded     map[string]bool
	search       SearchQuery
	searchActive bool

	visible      []*treeNode
	cursorIndex  int
	scrollOffset int

	pendingTables  []TableFetch
	pendingColumns []ColumnFetch
}

// NewTreeView creates a tree over the shared store and fetch cache.
func NewTreeView(store *models.Store, cache *fetch.Cache, th theme.Theme) *TreeView {
	tv := &TreeView{
		Width:    40,
		Height:   20,
		store:    store,
		cache:    cache,
		theme:    th,
		expanded: map[string]bool{},
		search:   SearchQuery{KindFilter: kindAny},
	}
	tv.Rebuild()
	return tv
}

// SetSearch updates the live search string. Turning search on forces every
// database and schema node open; turning it off leaves the flags alone, so
// manual state resumes from wherever search left it.
func (tv *TreeView) SetSearch(query string) {
	active := query != ""
	if active && !tv.searchActive {
		tv.forceExpandForSearch()
	}
	tv.searchActive = active
	tv.search = ParseSearchQuery(query)
	tv.Rebuild()
}

func (tv *TreeView) forceExpandForSearch() {
	for _, conn := range models.VisibleConnections(tv.store.Connections()) {
		for _, db := range conn.Databases {
			dbPath := joinPath(conn.Name, db.Name)
			tv.expanded[dbPath] = true
			for _, sc := range db.Schemas {
				if sc.Name == models.SchemalessName {
					continue
				}
				tv.expanded[joinPath(dbPath, sc.Name)] = true
			}
		}
	}
}

// PendingTableFetches drains the table-list fetches the last rebuild found
// necessary: schemas rendered expanded with no tables and an idle fetch key.
func (tv *TreeView) PendingTableFetches() []TableFetch {
	out := tv.pendingTables
	tv.pendingTables = nil
	return out
}

// PendingColumnFetches drains the column fetches found necessary.
func (tv *TreeView) PendingColumnFetches() []ColumnFetch {
	out := tv.pendingColumns
	tv.pendingColumns = nil
	return out
}

// Rebuild re-derives the visible rows from the store, the fetch cache, the
// expansion map, and the search query.
func (tv *TreeView) Rebuild() {
	var currentPath string
	if cur := tv.Current(); cur != nil {
		currentPath = cur.path
	}

	tv.visible = tv.visible[:0]
	tv.pendingTables = nil
	tv.pendingColumns = nil
	for _, conn := range models.VisibleConnections(tv.store.Connections()) {
		engine := tv.buildEngine(conn)
		tv.appendVisible(engine, false)
	}

	if currentPath != "" {
		for i, n := range tv.visible {
			if n.path == currentPath {
				tv.cursorIndex = i
				break
			}
		}
	}
	if tv.cursorIndex >= len(tv.visible) {
		tv.cursorIndex = len(tv.visible) - 1
	}
	if tv.cursorIndex < 0 {
		tv.cursorIndex = 0
	}
}

func (tv *TreeView) buildEngine(conn models.Connection) *treeNode {
	path := conn.Name
	n := &treeNode{
		path:       path,
		kind:       kindEngine,
		name:       conn.Name,
		expandable: true,
		expanded:   tv.expanded[path] || tv.searchActive,
	}

	if !n.expanded {
		return n
	}

	for _, db := range conn.Databases {
		n.children = append(n.children, tv.buildDatabase(conn, db, path, 1))
	}
	return n
}

func (tv *TreeView) buildDatabase(conn models.Connection, db models.Database, parentPath string, depth int) *treeNode {
	path := joinPath(parentPath, db.Name)
	label := db.Name
	if label == "" {
		label = "(not connected)"
	}
	n := &treeNode{
		path:       path,
		kind:       kindDatabase,
		name:       label,
		depth:      depth,
		expandable: true,
		expanded:   tv.expanded[path],
	}

	if !n.expanded {
		return n
	}

	for _, sc := range db.Schemas {
		if sc.Schemaless() {
			// No row for the sentinel schema: its tables render directly
			// under the database.
			tv.buildSchemaChildren(n, conn, db, sc, path, depth+1, true)
			continue
		}
		n.children = append(n.children, tv.buildSchema(conn, db, sc, path, depth+1))
	}
	return n
}

func (tv *TreeView) buildSchema(conn models.Connection, db models.Database, sc models.Schema, parentPath string, depth int) *treeNode {
	path := joinPath(parentPath, sc.Name)
	n := &treeNode{
		path:       path,
		kind:       kindSchema,
		name:       sc.Name,
		depth:      depth,
		expandable: true,
		expanded:   tv.expanded[path],
	}

	if n.expanded {
		tv.buildSchemaChildren(n, conn, db, sc, path, depth+1, false)
	}
	return n
}

// buildSchemaChildren appends a schema's table rows (or a status row) to
// parent, triggering the lazy table-list fetch when nothing is known yet.
func (tv *TreeView) buildSchemaChildren(parent *treeNode, conn models.Connection, db models.Database, sc models.Schema, parentPath string, depth int, schemaless bool) {
	sqlCtx := models.SQLContext{
		Engine:          conn.Name,
		Database:        db.Name,
		Schema:          sc.Name,
		Dialect:         conn.Dialect,
		DefaultDatabase: conn.DefaultDatabase,
		DefaultSchema:   conn.DefaultSchema,
	}

	if len(sc.Tables) == 0 {
		key := fetch.TablesKey(sqlCtx)
		state, err := tv.cache.State(key)
		if state == fetch.StateIdle {
			tv.pendingTables = append(tv.pendingTables, TableFetch{SQLCtx: sqlCtx})
			state = fetch.StateLoading
		}
		statusPath := parentPath
		if schemaless {
			statusPath = joinPath(parentPath, sc.Name)
		}
		parent.children = append(parent.children, &treeNode{
			path:        joinPath(statusPath, "!status"),
			kind:        kindStatus,
			depth:       depth,
			statusState: state,
			statusErr:   err,
		})
		return
	}

	for _, t := range sc.Tables {
		tablePath := parentPath
		if schemaless {
			tablePath = joinPath(parentPath, sc.Name)
		}
		parent.children = append(parent.children, tv.buildTable(t, sqlCtx, tablePath, depth))
	}
}

func (tv *TreeView) buildTable(t models.Table, sqlCtx models.SQLContext, parentPath string, depth int) *treeNode {
	path := joinPath(parentPath, t.Name)
	n := &treeNode{
		path:       path,
		kind:       kindTable,
		name:       t.Name,
		depth:      depth,
		expandable: true,
		expanded:   tv.expanded[path],
		sqlCtx:     sqlCtx,
		table:      t,
	}

	if !n.expanded {
		return n
	}

	if len(t.Columns) == 0 {
		key := fetch.ColumnsKey(sqlCtx, t.Name)
		state, err := tv.cache.State(key)
		if state == fetch.StateIdle {
			tv.pendingColumns = append(tv.pendingColumns, ColumnFetch{SQLCtx: sqlCtx, Table: t.Name})
			state = fetch.StateLoading
		}
		n.children = append(n.children, &treeNode{
			path:        joinPath(path, "!status"),
			kind:        kindStatus,
			depth:       depth + 1,
			statusState: state,
			statusErr:   err,
		})
		return n
	}

	for _, col := range t.Columns {
		n.children = append(n.children, &treeNode{
			path:   joinPath(path, col.Name),
			kind:   kindColumn,
			name:   col.Name,
			depth:  depth + 1,
			sqlCtx: sqlCtx,
			table:  t,
			column: col,
		})
	}
	return n
}

// appendVisible flattens a subtree into the visible list, applying the
// search filter: a node stays when it matches, any descendant matches, or an
// ancestor matched (force).
func (tv *TreeView) appendVisible(n *treeNode, force bool) {
	if force || !tv.searchActive || tv.subtreeMatches(n) {
		tv.visible = append(tv.visible, n)
		childForce := force || (tv.searchActive && matchesQuery(n, tv.search))
		for _, child := range n.children {
			tv.appendVisible(child, childForce)
		}
	}
}

func (tv *TreeView) subtreeMatches(n *treeNode) bool {
	if matchesQuery(n, tv.search) {
		return true
	}
	for _, child := range n.children {
		if tv.subtreeMatches(child) {
			return true
		}
	}
	return false
}

// Current returns the node under the cursor.
func (tv *TreeView) Current() *treeNode {
	if tv.cursorIndex < 0 || tv.cursorIndex >= len(tv.visible) {
		return nil
	}
	return tv.visible[tv.cursorIndex]
}

// CurrentTable returns the table under the cursor, with its SQL context,
// when the cursor is on a table or column row.
func (tv *TreeView) CurrentTable() (models.Table, *models.SQLContext, bool) {
	cur := tv.Current()
	if cur == nil || (cur.kind != kindTable && cur.kind != kindColumn) {
		return models.Table{}, nil, false
	}
	return cur.table, sqlContextFor(cur), true
}

// sqlContextFor returns the node's context, or nil for local in-memory
// tables, which are addressed by variable rather than by SQL identifiers.
func sqlContextFor(n *treeNode) *models.SQLContext {
	if n.table.Source == models.SourceLocal {
		return nil
	}
	ctx := n.sqlCtx
	return &ctx
}

// Update handles keyboard input.
func (tv *TreeView) Update(msg tea.KeyMsg) (*TreeView, tea.Cmd) {
	if len(tv.visible) == 0 {
		return tv, nil
	}

	var cmd tea.Cmd

	switch msg.String() {
	case "up", "k":
		if tv.cursorIndex > 0 {
			tv.cursorIndex--
		}

	case "down", "j":
		if tv.cursorIndex < len(tv.visible)-1 {
			tv.cursorIndex++
		}

	case "g":
		tv.cursorIndex = 0
		tv.scrollOffset = 0

	case "G":
		tv.cursorIndex = len(tv.visible) - 1

	case "right", "l", " ":
		if cur := tv.Current(); cur != nil && cur.expandable {
			tv.expanded[cur.path] = !tv.expanded[cur.path]
			tv.Rebuild()
		}

	case "left", "h":
		cur := tv.Current()
		if cur == nil {
			break
		}
		if cur.expandable && tv.expanded[cur.path] {
			tv.expanded[cur.path] = false
			tv.Rebuild()
		} else if parent := tv.parentIndex(cur); parent >= 0 {
			tv.cursorIndex = parent
		}

	case "enter", "i":
		cur := tv.Current()
		if cur == nil {
			break
		}
		switch cur.kind {
		case kindTable:
			table, sqlCtx, _ := tv.CurrentTable()
			cmd = func() tea.Msg {
				return SnippetRequestedMsg{Table: table, SQLCtx: sqlCtx}
			}
		case kindColumn:
			table, sqlCtx, _ := tv.CurrentTable()
			column := cur.column.Name
			cmd = func() tea.Msg {
				return SnippetRequestedMsg{Table: table, SQLCtx: sqlCtx, Column: column}
			}
		default:
			if cur.expandable {
				tv.expanded[cur.path] = !tv.expanded[cur.path]
				tv.Rebuild()
			}
		}

	case "y":
		if cur := tv.Current(); cur != nil && cur.kind == kindColumn {
			name := cur.column.Name
			err := clipboard.WriteAll(name)
			cmd = func() tea.Msg {
				return ColumnYankedMsg{Column: name, Err: err}
			}
		}

	case "r":
		if cur := tv.Current(); cur != nil && cur.kind != kindStatus {
			engine := rootEngine(cur.path)
			cmd = func() tea.Msg {
				return RefreshRequestedMsg{Engine: engine}
			}
		}
	}

	return tv, cmd
}

func (tv *TreeView) parentIndex(n *treeNode) int {
	prefix := parentPath(n.path)
	if prefix == "" {
		return -1
	}
	for i, cand := range tv.visible {
		if cand.path == prefix {
			return i
		}
	}
	return -1
}

// View renders the tree.
func (tv *TreeView) View() string {
	if len(tv.visible) == 0 {
		return tv.emptyState()
	}

	viewHeight := tv.Height - 4
	if viewHeight < 1 {
		viewHeight = 1
	}
	tv.adjustScrollOffset(len(tv.visible), viewHeight)

	startIdx := tv.scrollOffset
	endIdx := startIdx + viewHeight
	if endIdx > len(tv.visible) {
		endIdx = len(tv.visible)
	}

	var lines []string
	for i := startIdx; i < endIdx; i++ {
		lines = append(lines, tv.renderNode(tv.visible[i], i == tv.cursorIndex))
	}
	for len(lines) < viewHeight {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func (tv *TreeView) renderNode(n *treeNode, selected bool) string {
	indent := strings.Repeat("  ", n.depth)
	icon := tv.nodeIcon(n)
	label := tv.nodeLabel(n)

	content := fmt.Sprintf("%s%s %s", indent, icon, label)

	maxWidth := tv.Width - 2
	if maxWidth < 1 {
		maxWidth = 1
	}
	if len(content) > maxWidth {
		content = content[:maxWidth-1] + "…"
	}

	style := lipgloss.NewStyle().Foreground(tv.theme.Foreground).Width(maxWidth)
	if selected {
		style = style.Background(tv.theme.Selection).Bold(true)
	}
	return style.Render(content)
}

func (tv *TreeView) nodeIcon(n *treeNode) string {
	switch n.kind {
	case kindColumn:
		return "•"
	case kindStatus:
		switch n.statusState {
		case fetch.StateLoading:
			return "⟳"
		case fetch.StateError:
			return "✗"
		default:
			return "·"
		}
	}
	if n.expanded {
		return "▾"
	}
	return "▸"
}

func (tv *TreeView) nodeLabel(n *treeNode) string {
	dim := lipgloss.NewStyle().Foreground(tv.theme.Comment)

	switch n.kind {
	case kindEngine:
		return n.name

	case kindDatabase, kindSchema:
		return n.name

	case kindTable:
		label := n.name
		var extras []string
		if n.table.RowCount >= 0 {
			extras = append(extras, fmt.Sprintf("%s rows", formatCount(n.table.RowCount)))
		}
		if n.table.NumColumns > 0 {
			extras = append(extras, fmt.Sprintf("%d cols", n.table.NumColumns))
		}
		if len(extras) > 0 {
			label += " " + dim.Render("("+strings.Join(extras, ", ")+")")
		}
		return label

	case kindColumn:
		label := fmt.Sprintf("%s %s", n.name, dim.Render(n.column.Type))
		if n.table.HasPrimaryKey(n.name) {
			pk := lipgloss.NewStyle().Foreground(tv.theme.Warning)
			label += " " + pk.Render("PK")
		} else if n.table.HasIndex(n.name) {
			idx := lipgloss.NewStyle().Foreground(tv.theme.Info)
			label += " " + idx.Render("idx")
		}
		return label

	case kindStatus:
		switch n.statusState {
		case fetch.StateLoading:
			return dim.Render("loading…")
		case fetch.StateEmpty:
			return dim.Render("no tables available")
		case fetch.StateError:
			errStyle := lipgloss.NewStyle().Foreground(tv.theme.Error)
			return errStyle.Render(fmt.Sprintf("error: %v", n.statusErr))
		default:
			return dim.Render("…")
		}
	}
	return n.name
}

func (tv *TreeView) adjustScrollOffset(totalNodes, viewHeight int) {
	if tv.cursorIndex < tv.scrollOffset {
		tv.scrollOffset = tv.cursorIndex
	}
	if tv.cursorIndex >= tv.scrollOffset+viewHeight {
		tv.scrollOffset = tv.cursorIndex - viewHeight + 1
	}
	if tv.scrollOffset < 0 {
		tv.scrollOffset = 0
	}
	maxScroll := totalNodes - viewHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if tv.scrollOffset > maxScroll {
		tv.scrollOffset = maxScroll
	}
}

func (tv *TreeView) emptyState() string {
	style := lipgloss.NewStyle().
		Foreground(tv.theme.Comment).
		Italic(true).
		Width(tv.Width - 2).
		Align(lipgloss.Center)
	return style.Render("No data sources")
}

func formatCount(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.0fk", float64(n)/1000.0)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000.0)
}

// joinPath builds structural node paths. The separator cannot appear in
// identifiers coming from engines, so paths are unambiguous.
func joinPath(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

func parentPath(path string) string {
	idx := strings.LastIndex(path, "\x1f")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func rootEngine(path string) string {
	idx := strings.Index(path, "\x1f")
	if idx < 0 {
		return path
	}
	return path[:idx]
}
