package request

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/seralvarez/dstree/internal/models"
)

// DuckDB is a Requester for the embedded analytical engine. An empty path
// opens an in-memory database.
type DuckDB struct {
	db   *sql.DB
	path string
}

// NewDuckDB opens a duckdb database and verifies the connection.
func NewDuckDB(ctx context.Context, path string) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	return &DuckDB{db: db, path: path}, nil
}

// Close closes the database handle.
func (d *DuckDB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Refresh lists attached databases and their schemas.
func (d *DuckDB) Refresh(ctx context.Context) ([]models.Database, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT catalog_name, schema_name
		FROM information_schema.schemata
		WHERE catalog_name NOT IN ('system', 'temp')
		  AND schema_name NOT IN ('information_schema', 'pg_catalog')
		ORDER BY catalog_name, schema_name;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	var dbs []models.Database
	for rows.Next() {
		var catalog, schema string
		if err := rows.Scan(&catalog, &schema); err != nil {
			return nil, err
		}
		if len(dbs) == 0 || dbs[len(dbs)-1].Name != catalog {
			dbs = append(dbs, models.Database{Name: catalog})
		}
		last := &dbs[len(dbs)-1]
		last.Schemas = append(last.Schemas, models.Schema{Name: schema})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dbs, nil
}

// TableList returns the tables of (database, schema) with row estimates.
func (d *DuckDB) TableList(ctx context.Context, sqlCtx models.SQLContext) ([]models.Table, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT table_name, estimated_size, column_count
		FROM duckdb_tables()
		WHERE database_name = ? AND schema_name = ?
		ORDER BY table_name;
	`, sqlCtx.Database, sqlCtx.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		t := models.Table{Source: models.SourceDuckDB}
		if err := rows.Scan(&t.Name, &t.RowCount, &t.NumColumns); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}

// TableDetail returns one table with its columns.
func (d *DuckDB) TableDetail(ctx context.Context, sqlCtx models.SQLContext, table string) (models.Table, error) {
	t := models.Table{Name: table, Source: models.SourceDuckDB, RowCount: -1}

	rows, err := d.db.QueryContext(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_catalog = ? AND table_schema = ? AND table_name = ?
		ORDER BY ordinal_position;
	`, sqlCtx.Database, sqlCtx.Schema, table)
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var col models.Column
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return models.Table{}, err
		}
		col.ExternalType = col.Type
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return models.Table{}, err
	}
	t.NumColumns = len(t.Columns)

	return t, nil
}
