// Package sources loads saved connection definitions and synthesizes the
// internal engines (the in-memory source and the embedded duckdb engine).
package sources

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/seralvarez/dstree/internal/models"
)

// Names of the synthesized internal engines.
const (
	MemoryEngineName = "memory"
	DuckDBEngineName = "duckdb"
)

// Definition is one saved connection in connections.yaml.
type Definition struct {
	Name            string `yaml:"name"`
	Dialect         string `yaml:"dialect"`
	DSN             string `yaml:"dsn"`
	DefaultDatabase string `yaml:"default_database,omitempty"`
	DefaultSchema   string `yaml:"default_schema,omitempty"`
}

// Manager loads and saves connection definitions.
type Manager struct {
	path string
	defs []Definition
}

// NewManager loads definitions from connections.yaml in configDir, if the
// file exists.
func NewManager(configDir string) (*Manager, error) {
	m := &Manager{path: filepath.Join(configDir, "connections.yaml")}

	if _, err := os.Stat(m.path); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load connections: %w", err)
		}
	}
	return m, nil
}

// Load reads the definitions file.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read connections file: %w", err)
	}
	if err := yaml.Unmarshal(data, &m.defs); err != nil {
		return fmt.Errorf("failed to parse connections: %w", err)
	}
	return nil
}

// Save writes the definitions back to disk.
func (m *Manager) Save() error {
	data, err := yaml.Marshal(m.defs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o600)
}

// Definitions returns the saved definitions.
func (m *Manager) Definitions() []Definition {
	return m.defs
}

// Add appends a definition, replacing any existing one with the same name.
func (m *Manager) Add(def Definition) {
	for i, d := range m.defs {
		if d.Name == def.Name {
			m.defs[i] = def
			return
		}
	}
	m.defs = append(m.defs, def)
}

// Connection builds the store-level connection for a definition. Databases
// are left empty for lazy discovery.
func (d Definition) Connection() models.Connection {
	dialect := models.Dialect(d.Dialect)
	switch dialect {
	case models.DialectPostgres, models.DialectDuckDB, models.DialectMySQL, models.DialectSQLite:
	default:
		dialect = models.DialectPostgres
	}

	return models.Connection{
		Name:            d.Name,
		Dialect:         dialect,
		DefaultDatabase: d.DefaultDatabase,
		DefaultSchema:   d.DefaultSchema,
	}
}

// InternalConnections synthesizes the engines every session has regardless of
// saved definitions. Both start with no databases; VisibleConnections hides
// them until discovery finds content.
func InternalConnections() []models.Connection {
	return []models.Connection{
		{
			Name:          MemoryEngineName,
			Dialect:       models.DialectDuckDB,
			DefaultSchema: models.SchemalessName,
			Internal:      true,
		},
		{
			Name:            DuckDBEngineName,
			Dialect:         models.DialectDuckDB,
			DefaultDatabase: "memory",
			DefaultSchema:   "main",
			Internal:        true,
		},
	}
}
