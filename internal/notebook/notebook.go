// Package notebook models the notebook this tool browses data sources for:
// an ordered list of cells, the variables those cells declare, and insertion
// of generated code.
package notebook

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/seralvarez/dstree/internal/models"
)

// Cell is one notebook cell.
type Cell struct {
	ID   string
	Code string
}

// Notebook holds cells in execution order plus the declared in-memory tables.
type Notebook struct {
	mu          sync.RWMutex
	cells       []Cell
	varCells    map[string]string
	localTables map[string]models.Table
	lastFocused string
}

// New creates an empty notebook.
func New() *Notebook {
	return &Notebook{
		varCells:    make(map[string]string),
		localTables: make(map[string]models.Table),
	}
}

// Append adds a cell at the end and returns its id.
func (n *Notebook) Append(code string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.appendLocked(code)
}

func (n *Notebook) appendLocked(code string) string {
	id := uuid.NewString()
	n.cells = append(n.cells, Cell{ID: id, Code: code})
	return id
}

// InsertAfter inserts a cell after the given cell id and returns the new id.
func (n *Notebook) InsertAfter(cellID, code string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, cell := range n.cells {
		if cell.ID == cellID {
			id := uuid.NewString()
			n.cells = append(n.cells[:i+1],
				append([]Cell{{ID: id, Code: code}}, n.cells[i+1:]...)...)
			return id, nil
		}
	}
	return "", fmt.Errorf("cell %s not found", cellID)
}

// InsertSnippet places code after the last-focused cell, falling back to
// default placement (append) when nothing is focused or the focused cell is
// gone.
func (n *Notebook) InsertSnippet(code string) string {
	n.mu.Lock()
	focused := n.lastFocused
	n.mu.Unlock()

	if focused != "" {
		if id, err := n.InsertAfter(focused, code); err == nil {
			return id
		}
	}
	return n.Append(code)
}

// EnsureImport guarantees a cell containing the import statement exists,
// prepending one if needed. Idempotent.
func (n *Notebook) EnsureImport(stmt string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, cell := range n.cells {
		for _, line := range strings.Split(cell.Code, "\n") {
			if strings.TrimSpace(line) == stmt {
				return
			}
		}
	}

	id := uuid.NewString()
	n.cells = append([]Cell{{ID: id, Code: stmt}}, n.cells...)
}

// SetFocus records the last-focused cell.
func (n *Notebook) SetFocus(cellID string) {
	n.mu.Lock()
	n.lastFocused = cellID
	n.mu.Unlock()
}

// Cells returns a snapshot of the cells in order.
func (n *Notebook) Cells() []Cell {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]Cell, len(n.cells))
	copy(out, n.cells)
	return out
}

// CellOrder returns the cell ids in execution order.
func (n *Notebook) CellOrder() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]string, len(n.cells))
	for i, cell := range n.cells {
		out[i] = cell.ID
	}
	return out
}

// VariableCells maps declared variable names to their declaring cell ids.
func (n *Notebook) VariableCells() map[string]string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make(map[string]string, len(n.varCells))
	for k, v := range n.varCells {
		out[k] = v
	}
	return out
}

// DeclareTable registers an in-memory table declared by variable in cellID.
// Re-declaring a variable replaces its table.
func (n *Notebook) DeclareTable(variable, cellID string, t models.Table) {
	n.mu.Lock()
	defer n.mu.Unlock()

	t.Variable = variable
	t.Source = models.SourceLocal
	n.varCells[variable] = cellID
	n.localTables[variable] = t
}

// DropVariable removes a declared variable and its table. Kernel
// re-registration drives this; the tree never deletes on its own.
func (n *Notebook) DropVariable(variable string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.varCells, variable)
	delete(n.localTables, variable)
}

// Tables returns the in-memory tables sorted by declaration order.
func (n *Notebook) Tables() []models.Table {
	n.mu.RLock()
	tables := make([]models.Table, 0, len(n.localTables))
	for _, t := range n.localTables {
		tables = append(tables, t)
	}
	varCells := make(map[string]string, len(n.varCells))
	for k, v := range n.varCells {
		varCells[k] = v
	}
	order := make([]string, len(n.cells))
	for i, cell := range n.cells {
		order[i] = cell.ID
	}
	n.mu.RUnlock()

	return models.SortTablesByCell(tables, varCells, order)
}
