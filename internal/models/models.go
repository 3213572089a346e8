package models

import "fmt"

// SchemalessName is the sentinel schema name for connection types that have
// no meaningful schema-level grouping. A schema carrying this name renders no
// row of its own; its tables appear directly under the database.
const SchemalessName = "__schemaless__"

// Dialect is a rendering hint for identifier quoting and snippet generation.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectDuckDB   Dialect = "duckdb"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// TableSource identifies where a table's data lives. The set is closed:
// consumers switch over it exhaustively and treat an unknown value as a
// programming error.
type TableSource int

const (
	// SourceLocal is an in-memory table declared by a notebook variable.
	SourceLocal TableSource = iota
	// SourceCatalog is a table addressed through a named catalog.
	SourceCatalog
	// SourceDuckDB is a table in the embedded analytical engine.
	SourceDuckDB
	// SourceConnection is a table behind a generic external connection.
	SourceConnection
)

// String returns the source name for display and logging.
func (s TableSource) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceCatalog:
		return "catalog"
	case SourceDuckDB:
		return "duckdb"
	case SourceConnection:
		return "connection"
	default:
		return fmt.Sprintf("TableSource(%d)", int(s))
	}
}

// Column describes a single table column.
type Column struct {
	Name string
	// Type is the declared type as the engine reports it.
	Type string
	// ExternalType is the display/driver-facing type string, when it differs.
	ExternalType string
}

// Table describes a table or view known to an engine. Columns may be empty,
// meaning "not yet fetched".
type Table struct {
	Name       string
	Source     TableSource
	RowCount   int64 // -1 when unknown
	NumColumns int   // 0 when unknown
	// Variable is the notebook variable declaring this table, for local
	// in-memory tables. Empty otherwise.
	Variable string
	// PrimaryKeys and Indexes hold column names, when the engine reports them.
	PrimaryKeys []string
	Indexes     []string
	Columns     []Column
}

// HasPrimaryKey reports whether name is part of the table's primary key.
func (t *Table) HasPrimaryKey(name string) bool {
	for _, pk := range t.PrimaryKeys {
		if pk == name {
			return true
		}
	}
	return false
}

// HasIndex reports whether name appears in an index on the table.
func (t *Table) HasIndex(name string) bool {
	for _, idx := range t.Indexes {
		if idx == name {
			return true
		}
	}
	return false
}

// Schema groups the tables of one database. An empty table list may mean
// "nothing fetched yet"; the fetch cache tells the two states apart.
type Schema struct {
	Name   string
	Tables []Table
}

// Schemaless reports whether this schema is the no-grouping sentinel.
func (s *Schema) Schemaless() bool {
	return s.Name == SchemalessName
}

// Database groups the schemas of one connection. An empty name is the
// "not connected" placeholder.
type Database struct {
	Name    string
	Schemas []Schema
}

// Connection is a named data-access engine. Identity is the name.
type Connection struct {
	Name    string
	Dialect Dialect
	// DefaultDatabase and DefaultSchema qualify otherwise-ambiguous table
	// references for this engine.
	DefaultDatabase string
	DefaultSchema   string
	// Internal marks synthesized engines (the in-memory source, the embedded
	// duckdb engine) as opposed to user-defined connections.
	Internal  bool
	Databases []Database
}

// SQLContext is the tuple needed to address a table unambiguously for
// querying or fetching.
type SQLContext struct {
	Engine          string
	Database        string
	Schema          string
	Dialect         Dialect
	DefaultDatabase string
	DefaultSchema   string
}
