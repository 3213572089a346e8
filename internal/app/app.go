package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/seralvarez/dstree/internal/config"
	"github.com/seralvarez/dstree/internal/fetch"
	"github.com/seralvarez/dstree/internal/history"
	"github.com/seralvarez/dstree/internal/models"
	"github.com/seralvarez/dstree/internal/notebook"
	"github.com/seralvarez/dstree/internal/snippet"
	"github.com/seralvarez/dstree/internal/ui/components"
	"github.com/seralvarez/dstree/internal/ui/help"
	"github.com/seralvarez/dstree/internal/ui/theme"
)

type focusedPanel int

const (
	leftPanel focusedPanel = iota
	rightPanel
)

type viewMode int

const (
	normalMode viewMode = iota
	helpMode
)

// App is the main application model
type App struct {
	cfg   *config.Config
	theme theme.Theme
	log   *zap.Logger

	store *models.Store
	cache *fetch.Cache
	nb    *notebook.Notebook
	hist  *history.Store // nil when history is disabled

	treeView    *components.TreeView
	preview     *components.PreviewPane
	searchInput *components.SearchInput
	leftPanel   components.Panel
	rightPanel  components.Panel

	width   int
	height  int
	focused focusedPanel
	mode    viewMode

	status     string
	refreshing map[string]bool
	engines    []string

	storeCh chan struct{}
}

type storeChangedMsg struct{}

type fetchDoneMsg struct{}

type refreshDoneMsg struct {
	Engine string
	Err    error
}

// Options carries the collaborators wired up in main.
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    *models.Store
	Cache    *fetch.Cache
	Notebook *notebook.Notebook
	History  *history.Store
	Engines  []string // engines to discover at startup
}

// New creates the application model.
func New(opts Options) *App {
	th := theme.GetTheme(opts.Config.UI.Theme)
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	a := &App{
		cfg:         opts.Config,
		theme:       th,
		log:         log,
		store:       opts.Store,
		cache:       opts.Cache,
		nb:          opts.Notebook,
		hist:        opts.History,
		treeView:    components.NewTreeView(opts.Store, opts.Cache, th),
		preview:     components.NewPreviewPane(th),
		searchInput: components.NewSearchInput(th),
		refreshing:  map[string]bool{},
		storeCh:     make(chan struct{}, 1),
	}

	// Coalesced store notifications: any merge wakes the event loop once.
	a.store.Subscribe(func() {
		select {
		case a.storeCh <- struct{}{}:
		default:
		}
	})

	a.engines = opts.Engines
	a.updatePanelDimensions()
	a.updatePanelStyles()
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.listenStore()}
	for _, engine := range a.engines {
		cmds = append(cmds, a.runRefresh(engine, 0))
		a.refreshing[engine] = true
	}
	return tea.Batch(cmds...)
}

func (a *App) listenStore() tea.Cmd {
	return func() tea.Msg {
		<-a.storeCh
		return storeChangedMsg{}
	}
}

func (a *App) refreshFloor() time.Duration {
	return time.Duration(a.cfg.Fetch.RefreshFloorMS) * time.Millisecond
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case components.SearchChangedMsg:
		a.treeView.SetSearch(msg.Query)
		return a, a.drainFetches()

	case components.CloseSearchMsg:
		a.focused = leftPanel
		a.updatePanelStyles()
		return a, nil

	case components.SnippetRequestedMsg:
		return a, a.insertSnippet(msg)

	case components.ColumnYankedMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("copy failed: %v", msg.Err)
		} else {
			a.status = fmt.Sprintf("copied %q", msg.Column)
		}
		return a, nil

	case components.RefreshRequestedMsg:
		if a.refreshing[msg.Engine] {
			return a, nil
		}
		a.refreshing[msg.Engine] = true
		a.status = fmt.Sprintf("refreshing %s…", msg.Engine)
		return a, a.runRefresh(msg.Engine, a.refreshFloor())

	case refreshDoneMsg:
		delete(a.refreshing, msg.Engine)
		if msg.Err != nil {
			a.status = fmt.Sprintf("refresh %s failed: %v", msg.Engine, msg.Err)
		} else {
			a.status = fmt.Sprintf("refreshed %s", msg.Engine)
		}
		a.treeView.Rebuild()
		a.syncPreview()
		return a, a.drainFetches()

	case storeChangedMsg:
		a.treeView.Rebuild()
		a.syncPreview()
		return a, tea.Batch(a.listenStore(), a.drainFetches())

	case fetchDoneMsg:
		// Failures do not mutate the store, so rebuild here to surface
		// node-local error states.
		a.treeView.Rebuild()
		a.syncPreview()
		return a, a.drainFetches()

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updatePanelDimensions()
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.searchInput.Visible {
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		if a.mode == helpMode {
			a.mode = normalMode
			return a, nil
		}
		return a, tea.Quit

	case "?":
		if a.mode == helpMode {
			a.mode = normalMode
		} else {
			a.mode = helpMode
		}
		return a, nil

	case "esc":
		if a.mode == helpMode {
			a.mode = normalMode
		}
		return a, nil

	case "/":
		return a, a.searchInput.Open()

	case "tab":
		if a.mode == normalMode {
			if a.focused == leftPanel {
				a.focused = rightPanel
			} else {
				a.focused = leftPanel
			}
			a.updatePanelStyles()
		}
		return a, nil
	}

	if a.focused == leftPanel && a.mode == normalMode {
		var cmd tea.Cmd
		a.treeView, cmd = a.treeView.Update(msg)
		a.syncPreview()
		return a, tea.Batch(cmd, a.drainFetches())
	}
	return a, nil
}

// drainFetches starts every fetch the last rebuild found necessary. The
// cache gate is won here, on the event-loop side, before any goroutine runs.
func (a *App) drainFetches() tea.Cmd {
	var cmds []tea.Cmd

	for _, tf := range a.treeView.PendingTableFetches() {
		sqlCtx := tf.SQLCtx
		if !a.cache.Begin(fetch.TablesKey(sqlCtx)) {
			continue
		}
		cmds = append(cmds, func() tea.Msg {
			a.cache.FetchTables(context.Background(), sqlCtx)
			return fetchDoneMsg{}
		})
	}

	for _, cf := range a.treeView.PendingColumnFetches() {
		sqlCtx, table := cf.SQLCtx, cf.Table
		if !a.cache.Begin(fetch.ColumnsKey(sqlCtx, table)) {
			continue
		}
		cmds = append(cmds, func() tea.Msg {
			a.cache.FetchColumns(context.Background(), sqlCtx, table)
			return fetchDoneMsg{}
		})
	}

	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (a *App) runRefresh(engine string, floor time.Duration) tea.Cmd {
	return func() tea.Msg {
		err := a.cache.Refresh(context.Background(), engine, floor)
		return refreshDoneMsg{Engine: engine, Err: err}
	}
}

// insertSnippet generates the code for the request, makes sure the import is
// present, inserts the cell, and records it in history. An unhandled source
// kind panics inside snippet generation; that is a programming error and is
// allowed to crash loudly.
func (a *App) insertSnippet(msg components.SnippetRequestedMsg) tea.Cmd {
	var code string
	if msg.Column != "" {
		code = snippet.ForColumn(msg.Table, msg.Column, msg.SQLCtx)
	} else {
		code = snippet.ForTable(msg.Table, msg.SQLCtx)
	}

	a.nb.EnsureImport(snippet.ImportStatement)
	cellID := a.nb.InsertSnippet(code)
	a.status = fmt.Sprintf("inserted snippet for %s", msg.Table.Name)

	a.log.Info("snippet inserted",
		zap.String("table", msg.Table.Name),
		zap.String("cell", cellID))

	if a.hist != nil {
		entry := history.Entry{
			Table:   msg.Table.Name,
			Snippet: code,
		}
		if msg.SQLCtx != nil {
			entry.Engine = msg.SQLCtx.Engine
			entry.Database = msg.SQLCtx.Database
			entry.Schema = msg.SQLCtx.Schema
		}
		if err := a.hist.Add(entry); err != nil {
			a.log.Warn("failed to record snippet", zap.Error(err))
		}
		if recent, err := a.hist.Recent(5); err == nil {
			a.preview.Recent = recent
		}
	}
	return nil
}

func (a *App) syncPreview() {
	if table, sqlCtx, ok := a.treeView.CurrentTable(); ok {
		a.preview.SetSelection(&table, sqlCtx)
	} else {
		a.preview.SetSelection(nil, nil)
	}
}

// View implements tea.Model
func (a *App) View() string {
	if a.mode == helpMode {
		return help.Render(a.width, a.height, lipgloss.NewStyle())
	}
	return a.renderNormalView()
}

func (a *App) renderNormalView() string {
	topBar := lipgloss.NewStyle().
		Width(a.width).
		Background(a.theme.BorderFocused).
		Foreground(lipgloss.Color("230")).
		Padding(0, 2).
		Render(a.formatStatusBar("dstree", "? help"))

	bottomLeft := "[/] Search | [enter] Insert | [r] Refresh | [q] Quit"
	if a.status != "" {
		bottomLeft = a.status
	}
	if len(a.refreshing) > 0 {
		bottomLeft = "⟳ " + bottomLeft
	}
	bottomBar := lipgloss.NewStyle().
		Width(a.width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(bottomLeft, "tab switch"))

	a.treeView.Width = a.leftPanel.Width
	a.treeView.Height = a.leftPanel.Height
	treeContent := a.treeView.View()
	if a.searchInput.Visible {
		a.searchInput.Width = a.leftPanel.Width
		treeContent = a.searchInput.View() + "\n" + treeContent
	}
	a.leftPanel.Content = treeContent

	a.preview.Width = a.rightPanel.Width
	a.preview.Height = a.rightPanel.Height
	a.rightPanel.Content = a.preview.View()

	panels := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.leftPanel.View(),
		a.rightPanel.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, topBar, panels, bottomBar)
}

func (a *App) updatePanelDimensions() {
	if a.width <= 0 || a.height <= 0 {
		return
	}

	contentHeight := a.height - 2
	if contentHeight < 5 {
		contentHeight = 5
	}

	ratio := a.cfg.UI.PanelWidthRatio
	if ratio <= 0 || ratio >= 100 {
		ratio = 35
	}
	leftWidth := (a.width * ratio) / 100
	if leftWidth < 20 {
		leftWidth = 20
	}
	rightWidth := a.width - leftWidth - 4
	if rightWidth < 20 {
		rightWidth = 20
		leftWidth = a.width - rightWidth - 4
	}

	a.leftPanel.Width = leftWidth
	a.leftPanel.Height = contentHeight
	a.rightPanel.Width = rightWidth
	a.rightPanel.Height = contentHeight
	a.leftPanel.Title = "Data Sources"
	a.rightPanel.Title = "Preview"
}

func (a *App) updatePanelStyles() {
	if a.focused == leftPanel {
		a.leftPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.BorderFocused)
		a.rightPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.Border)
	} else {
		a.leftPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.Border)
		a.rightPanel.Style = lipgloss.NewStyle().BorderForeground(a.theme.BorderFocused)
	}
}

func (a *App) formatStatusBar(left, right string) string {
	availableWidth := a.width - 4
	if availableWidth < 0 {
		availableWidth = 0
	}

	leftLen := len([]rune(left))
	rightLen := len([]rune(right))

	if leftLen+rightLen > availableWidth {
		runes := []rune(left)
		if availableWidth > rightLen && availableWidth-rightLen <= len(runes) {
			return string(runes[:availableWidth-rightLen]) + right
		}
		if availableWidth <= len(runes) {
			return string(runes[:availableWidth])
		}
		return left
	}

	spacing := availableWidth - leftLen - rightLen
	return left + lipgloss.NewStyle().Width(spacing).Render("") + right
}
