package models

import "sort"

// SortTablesByCell orders in-memory tables by where their declaring variable
// appears in the notebook. Tables with no declaring variable come first.
// Tables whose variable cannot be resolved to a cell, or whose cell is not in
// the current order, sort as if declared at position 0. The sort is stable,
// so ties keep their original relative order.
//
// varCells maps a variable name to the id of its declaring cell; cellOrder is
// the notebook's current cell id order.
func SortTablesByCell(tables []Table, varCells map[string]string, cellOrder []string) []Table {
	index := make(map[string]int, len(cellOrder))
	for i, id := range cellOrder {
		index[id] = i
	}

	rank := func(t Table) int {
		if t.Variable == "" {
			return -1
		}
		cellID, ok := varCells[t.Variable]
		if !ok {
			return 0
		}
		pos, ok := index[cellID]
		if !ok {
			return 0
		}
		return pos
	}

	sorted := make([]Table, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i]) < rank(sorted[j])
	})
	return sorted
}

// VisibleConnections filters and orders connections for display: internal
// engines with zero databases are dropped entirely, and user-defined
// connections come before internal ones. Stable, and idempotent (filtering an
// already-filtered list changes nothing).
func VisibleConnections(conns []Connection) []Connection {
	visible := make([]Connection, 0, len(conns))
	for _, c := range conns {
		if c.Internal && len(c.Databases) == 0 {
			continue
		}
		visible = append(visible, c)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return !visible[i].Internal && visible[j].Internal
	})
	return visible
}
