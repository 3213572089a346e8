package models

import "testing"

func TestStore_MergeTablesReplacesByName(t *testing.T) {
	s := NewStore()
	s.Upsert(Connection{Name: "pg", Dialect: DialectPostgres})

	s.MergeTables("pg", "app", "public", []Table{
		{Name: "users", RowCount: 10},
		{Name: "orders", RowCount: 5},
	})
	// Overlapping merge: users updated, no duplicate created.
	s.MergeTables("pg", "app", "public", []Table{
		{Name: "users", RowCount: 42},
	})

	conn, ok := s.Get("pg")
	if !ok {
		t.Fatal("connection missing after merge")
	}
	tables := conn.Databases[0].Schemas[0].Tables
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables after overlapping merge, got %d", len(tables))
	}
	if tables[0].Name != "users" || tables[0].RowCount != 42 {
		t.Errorf("users not replaced by key: %+v", tables[0])
	}
}

func TestStore_MergeTableDetailAddsColumns(t *testing.T) {
	s := NewStore()
	s.Upsert(Connection{Name: "pg"})
	s.MergeTables("pg", "app", "public", []Table{{Name: "users"}})

	s.MergeTableDetail("pg", "app", "public", Table{
		Name:    "users",
		Columns: []Column{{Name: "id", Type: "bigint"}},
	})

	conn, _ := s.Get("pg")
	tables := conn.Databases[0].Schemas[0].Tables
	if len(tables) != 1 {
		t.Fatalf("detail merge duplicated table: %d entries", len(tables))
	}
	if len(tables[0].Columns) != 1 || tables[0].Columns[0].Name != "id" {
		t.Errorf("columns not merged: %+v", tables[0].Columns)
	}
}

func TestStore_MergeIntoUnknownEngineIsNoop(t *testing.T) {
	s := NewStore()

	// Late-arriving response for an engine that was never registered.
	s.MergeTables("ghost", "db", "public", []Table{{Name: "t"}})

	if len(s.Connections()) != 0 {
		t.Error("merge into unknown engine created a connection")
	}
}

func TestStore_NotifiesSubscribersOnMutation(t *testing.T) {
	s := NewStore()
	calls := 0
	s.Subscribe(func() { calls++ })

	s.Upsert(Connection{Name: "pg"})
	s.MergeTables("pg", "app", "public", []Table{{Name: "users"}})
	s.DropDatabases("pg")

	if calls != 3 {
		t.Errorf("expected 3 notifications, got %d", calls)
	}
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	s := NewStore()
	s.Upsert(Connection{Name: "pg"})
	s.MergeTables("pg", "app", "public", []Table{{Name: "users"}})

	snap, _ := s.Get("pg")
	snap.Databases[0].Schemas[0].Tables[0].Name = "mutated"

	conn, _ := s.Get("pg")
	if conn.Databases[0].Schemas[0].Tables[0].Name != "users" {
		t.Error("mutating a snapshot leaked into the store")
	}
}
