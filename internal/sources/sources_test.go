package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/seralvarez/dstree/internal/models"
)

func TestManager_LoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	m.Add(Definition{Name: "pg", Dialect: "postgres", DSN: "postgres://localhost/app"})
	m.Add(Definition{Name: "pg", Dialect: "postgres", DSN: "postgres://localhost/other"})
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewManager(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defs := reloaded.Definitions()
	if len(defs) != 1 {
		t.Fatalf("expected Add to replace by name, got %d definitions", len(defs))
	}
	if defs[0].DSN != "postgres://localhost/other" {
		t.Errorf("unexpected DSN after replace: %s", defs[0].DSN)
	}
}

func TestManager_MissingFileIsEmpty(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if len(m.Definitions()) != 0 {
		t.Error("expected no definitions without a connections file")
	}
}

func TestManager_BadYAMLFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "connections.yaml"), []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewManager(dir); err == nil {
		t.Error("expected error for malformed connections file")
	}
}

func TestDefinition_ConnectionDefaultsDialect(t *testing.T) {
	def := Definition{Name: "x", Dialect: "oracle"}

	conn := def.Connection()
	if conn.Dialect != models.DialectPostgres {
		t.Errorf("unknown dialect should fall back to postgres, got %s", conn.Dialect)
	}
}

func TestInternalConnections(t *testing.T) {
	conns := InternalConnections()
	if len(conns) != 2 {
		t.Fatalf("expected 2 internal engines, got %d", len(conns))
	}
	for _, c := range conns {
		if !c.Internal {
			t.Errorf("engine %s not marked internal", c.Name)
		}
		if len(c.Databases) != 0 {
			t.Errorf("engine %s should start with no databases", c.Name)
		}
	}
}
