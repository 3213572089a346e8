package snippet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seralvarez/dstree/internal/models"
)

func TestForTable_CatalogWithContext(t *testing.T) {
	table := models.Table{Name: "t", Source: models.SourceCatalog}
	sqlCtx := &models.SQLContext{Engine: "cat", Database: "d", Dialect: models.DialectDuckDB}

	assert.Equal(t, `sql.load("d.t")`, ForTable(table, sqlCtx))
}

func TestForTable_CatalogWithoutContext(t *testing.T) {
	table := models.Table{Name: "t", Source: models.SourceCatalog}

	assert.Equal(t, `sql.load("t")`, ForTable(table, nil))
}

func TestForTable_LocalWithoutContext(t *testing.T) {
	table := models.Table{Name: "df", Variable: "df", Source: models.SourceLocal}

	assert.Equal(t, `view(df)`, ForTable(table, nil))
}

func TestForTable_ConnectionWithContext(t *testing.T) {
	table := models.Table{Name: "users", Source: models.SourceConnection}
	sqlCtx := &models.SQLContext{
		Engine:          "pg",
		Database:        "app",
		Schema:          "public",
		Dialect:         models.DialectPostgres,
		DefaultDatabase: "app",
	}

	// Database matches the default and is omitted; schema remains.
	assert.Equal(t, `sql.query("SELECT * FROM public.users LIMIT 100")`, ForTable(table, sqlCtx))
}

func TestForTable_QualifiesAcrossDatabases(t *testing.T) {
	table := models.Table{Name: "users", Source: models.SourceConnection}
	sqlCtx := &models.SQLContext{
		Engine:          "pg",
		Database:        "other",
		Schema:          "public",
		Dialect:         models.DialectPostgres,
		DefaultDatabase: "app",
	}

	assert.Equal(t, `sql.query("SELECT * FROM other.public.users LIMIT 100")`, ForTable(table, sqlCtx))
}

func TestForTable_DuckDBWithoutContext(t *testing.T) {
	table := models.Table{Name: "events", Source: models.SourceDuckDB}

	assert.Equal(t, `sql.query("SELECT * FROM events LIMIT 100")`, ForTable(table, nil))
}

func TestForTable_SchemalessOmitsSchema(t *testing.T) {
	table := models.Table{Name: "df", Source: models.SourceLocal}
	sqlCtx := &models.SQLContext{
		Engine:   "memory",
		Database: "",
		Schema:   models.SchemalessName,
		Dialect:  models.DialectDuckDB,
	}

	assert.Equal(t, `sql.query("SELECT * FROM df LIMIT 100")`, ForTable(table, sqlCtx))
}

func TestForTable_UnknownSourcePanics(t *testing.T) {
	table := models.Table{Name: "t", Source: models.TableSource(99)}

	assert.Panics(t, func() { ForTable(table, nil) })
}

func TestForColumn(t *testing.T) {
	table := models.Table{Name: "users", Source: models.SourceConnection}
	sqlCtx := &models.SQLContext{Schema: "public", Dialect: models.DialectPostgres}

	assert.Equal(t, `sql.query("SELECT email FROM public.users LIMIT 100")`,
		ForColumn(table, "email", sqlCtx))
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "users", QuoteIdent(models.DialectPostgres, "users"))
	assert.Equal(t, `"User Events"`, QuoteIdent(models.DialectPostgres, "User Events"))
	assert.Equal(t, "`order-items`", QuoteIdent(models.DialectMySQL, "order-items"))
	assert.Equal(t, `"say ""hi"""`, QuoteIdent(models.DialectDuckDB, `say "hi"`))
}
