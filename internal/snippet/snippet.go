// Package snippet generates notebook code for a selected table or column.
package snippet

import (
	"fmt"
	"strings"

	"github.com/seralvarez/dstree/internal/models"
)

// ImportStatement must be present in the notebook before any generated
// snippet runs.
const ImportStatement = `use "datakit"`

// ForTable produces the code to insert for a table. The source-kind set is
// closed; an unhandled kind is a programming error and panics rather than
// returning a wrong or empty snippet.
func ForTable(t models.Table, sqlCtx *models.SQLContext) string {
	switch t.Source {
	case models.SourceCatalog:
		ident := t.Name
		if sqlCtx != nil && sqlCtx.Database != "" {
			ident = sqlCtx.Database + "." + t.Name
		}
		return fmt.Sprintf("sql.load(%q)", ident)

	case models.SourceLocal:
		if sqlCtx != nil {
			return selectAll(t.Name, sqlCtx)
		}
		name := t.Variable
		if name == "" {
			name = t.Name
		}
		return fmt.Sprintf("view(%s)", name)

	case models.SourceDuckDB:
		if sqlCtx != nil {
			return selectAll(t.Name, sqlCtx)
		}
		return selectAll(t.Name, &models.SQLContext{Dialect: models.DialectDuckDB})

	case models.SourceConnection:
		if sqlCtx != nil {
			return selectAll(t.Name, sqlCtx)
		}
		return selectAll(t.Name, &models.SQLContext{})

	default:
		panic(fmt.Sprintf("unhandled table source %v", t.Source))
	}
}

// ForColumn produces a column-preview query for one column of a table.
func ForColumn(t models.Table, column string, sqlCtx *models.SQLContext) string {
	ctx := sqlCtx
	if ctx == nil {
		ctx = &models.SQLContext{}
	}
	return fmt.Sprintf("sql.query(%q)",
		fmt.Sprintf("SELECT %s FROM %s LIMIT 100",
			QuoteIdent(ctx.Dialect, column), qualify(t.Name, ctx)))
}

func selectAll(table string, sqlCtx *models.SQLContext) string {
	return fmt.Sprintf("sql.query(%q)",
		fmt.Sprintf("SELECT * FROM %s LIMIT 100", qualify(table, sqlCtx)))
}

// qualify builds the dialect-quoted reference for a table, omitting parts
// covered by the context defaults and the schemaless sentinel.
func qualify(table string, sqlCtx *models.SQLContext) string {
	var parts []string

	if sqlCtx.Database != "" && sqlCtx.Database != sqlCtx.DefaultDatabase {
		parts = append(parts, sqlCtx.Database)
	}
	if sqlCtx.Schema != "" && sqlCtx.Schema != models.SchemalessName &&
		sqlCtx.Schema != sqlCtx.DefaultSchema {
		// A database qualifier without a schema is ambiguous; keep schema
		// whenever the database is present.
		parts = append(parts, sqlCtx.Schema)
	} else if len(parts) > 0 {
		schema := sqlCtx.DefaultSchema
		if schema == "" || schema == models.SchemalessName {
			schema = "main"
		}
		parts = append(parts, schema)
	}
	parts = append(parts, table)

	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = QuoteIdent(sqlCtx.Dialect, p)
	}
	return strings.Join(quoted, ".")
}

// QuoteIdent quotes an identifier for the dialect, skipping the quotes when
// the name is a plain lowercase identifier.
func QuoteIdent(dialect models.Dialect, name string) string {
	if plainIdent(name) {
		return name
	}
	switch dialect {
	case models.DialectMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

func plainIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
