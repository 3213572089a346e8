package models

import "testing"

func TestSortTablesByCell(t *testing.T) {
	tables := []Table{
		{Name: "a", Variable: "x"},
		{Name: "b"},
		{Name: "c", Variable: "y"},
	}
	varCells := map[string]string{
		"x": "cell-2",
		"y": "cell-1",
	}
	cellOrder := []string{"cell-0", "cell-1", "cell-2"}

	sorted := SortTablesByCell(tables, varCells, cellOrder)

	want := []string{"b", "c", "a"}
	for i, name := range want {
		if sorted[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, sorted[i].Name)
		}
	}
}

func TestSortTablesByCell_UnresolvedVariable(t *testing.T) {
	tables := []Table{
		{Name: "late", Variable: "x"},
		{Name: "orphan", Variable: "gone"},
	}
	varCells := map[string]string{"x": "cell-1"}
	cellOrder := []string{"cell-0", "cell-1"}

	sorted := SortTablesByCell(tables, varCells, cellOrder)

	// Unresolved variables rank as position 0, before cell-1.
	if sorted[0].Name != "orphan" {
		t.Errorf("expected unresolved table first, got %q", sorted[0].Name)
	}
	if sorted[1].Name != "late" {
		t.Errorf("expected resolved table second, got %q", sorted[1].Name)
	}
}

func TestSortTablesByCell_Stable(t *testing.T) {
	tables := []Table{
		{Name: "first"},
		{Name: "second"},
		{Name: "third"},
	}

	sorted := SortTablesByCell(tables, nil, nil)

	for i, name := range []string{"first", "second", "third"} {
		if sorted[i].Name != name {
			t.Errorf("tie order not preserved at %d: got %q", i, sorted[i].Name)
		}
	}
}

func TestSortTablesByCell_DoesNotMutateInput(t *testing.T) {
	tables := []Table{
		{Name: "a", Variable: "x"},
		{Name: "b"},
	}
	varCells := map[string]string{"x": "cell-1"}
	cellOrder := []string{"cell-0", "cell-1"}

	SortTablesByCell(tables, varCells, cellOrder)

	if tables[0].Name != "a" || tables[1].Name != "b" {
		t.Error("input slice was reordered")
	}
}

func TestVisibleConnections(t *testing.T) {
	conns := []Connection{
		{Name: "duckdb", Internal: true},
		{Name: "pg", Databases: []Database{{Name: "app"}}},
		{Name: "memory", Internal: true, Databases: []Database{{Name: "memory"}}},
	}

	visible := VisibleConnections(conns)

	if len(visible) != 2 {
		t.Fatalf("expected 2 visible connections, got %d", len(visible))
	}
	if visible[0].Name != "pg" {
		t.Errorf("expected user connection first, got %q", visible[0].Name)
	}
	if visible[1].Name != "memory" {
		t.Errorf("expected internal connection second, got %q", visible[1].Name)
	}
}

func TestVisibleConnections_Idempotent(t *testing.T) {
	conns := []Connection{
		{Name: "empty", Internal: true},
		{Name: "pg", Databases: []Database{{Name: "app"}}},
		{Name: "memory", Internal: true, Databases: []Database{{Name: "memory"}}},
	}

	once := VisibleConnections(conns)
	twice := VisibleConnections(once)

	if len(once) != len(twice) {
		t.Fatalf("filter is not idempotent: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Name != twice[i].Name {
			t.Errorf("position %d differs after second filter: %q vs %q",
				i, once[i].Name, twice[i].Name)
		}
	}
}
