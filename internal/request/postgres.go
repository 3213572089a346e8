package request

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seralvarez/dstree/internal/models"
)

// Postgres is a Requester backed by a pgx connection pool. One instance
// serves one configured connection (one database server, one database).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the given DSN and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// Refresh lists the current database's schemas. pgx pools are bound to one
// database, so the result is a single database entry.
func (p *Postgres) Refresh(ctx context.Context) ([]models.Database, error) {
	var dbName string
	if err := p.pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return nil, fmt.Errorf("failed to resolve current database: %w", err)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY schema_name;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	db := models.Database{Name: dbName}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		db.Schemas = append(db.Schemas, models.Schema{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return []models.Database{db}, nil
}

// TableList returns the tables of a schema with row estimates, no columns.
func (p *Postgres) TableList(ctx context.Context, sqlCtx models.SQLContext) ([]models.Table, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT
			c.relname AS name,
			c.reltuples::bigint AS row_estimate,
			(SELECT count(*) FROM information_schema.columns col
			 WHERE col.table_schema = n.nspname AND col.table_name = c.relname) AS num_columns
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relkind IN ('r', 'v', 'm', 'p')
		ORDER BY c.relname;
	`, sqlCtx.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		t := models.Table{Source: models.SourceConnection}
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

// TableDetail returns one table with columns, primary keys, and indexed
// column names.
func (p *Postgres) TableDetail(ctx context.Context, sqlCtx models.SQLContext, table string) (models.Table, error) {
	t := models.Table{Name: table, Source: models.SourceConnection, RowCount: -1}

	rows, err := p.pool.Query(ctx, `
		SELECT column_name, data_type, udt_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position;
	`, sqlCtx.Schema, table)
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var col models.Column
		if err := rows.Scan(&col.Name, &col.Type, &col.ExternalType); err != nil {
			return models.Table{}, err
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return models.Table{}, err
	}
	t.NumColumns = len(t.Columns)

	pkRows, err := p.pool.Query(ctx, `
		SELECT att.attname
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class cl ON con.conrelid = cl.oid
		JOIN pg_catalog.pg_namespace ns ON cl.relnamespace = ns.oid
		JOIN unnest(con.conkey) WITH ORDINALITY AS u(attnum, attposition) ON true
		JOIN pg_catalog.pg_attribute att ON att.attrelid = con.conrelid
			AND att.attnum = u.attnum
		WHERE ns.nspname = $1 AND cl.relname = $2 AND con.contype = 'p'
		ORDER BY u.attposition;
	`, sqlCtx.Schema, table)
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to get primary key: %w", err)
	}
	defer pkRows.Close()

	for pkRows.Next() {
		var name string
		if err := pkRows.Scan(&name); err != nil {
			return models.Table{}, err
		}
		t.PrimaryKeys = append(t.PrimaryKeys, name)
	}
	if err := pkRows.Err(); err != nil {
		return models.Table{}, err
	}

	idxRows, err := p.pool.Query(ctx, `
		SELECT DISTINCT att.attname
		FROM pg_catalog.pg_index i
		JOIN pg_catalog.pg_class cl ON cl.oid = i.indrelid
		JOIN pg_catalog.pg_namespace ns ON cl.relnamespace = ns.oid
		JOIN pg_catalog.pg_attribute att ON att.attrelid = cl.oid
			AND att.attnum = ANY(i.indkey)
		WHERE ns.nspname = $1 AND cl.relname = $2
		ORDER BY att.attname;
	`, sqlCtx.Schema, table)
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to get indexes: %w", err)
	}
	defer idxRows.Close()

	for idxRows.Next() {
		var name string
		if err := idxRows.Scan(&name); err != nil {
			return models.Table{}, err
		}
		t.Indexes = append(t.Indexes, name)
	}
	if err := idxRows.Err(); err != nil {
		return models.Table{}, err
	}

	return t, nil
}
