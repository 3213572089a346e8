package request

import (
	"context"
	"fmt"

	"github.com/seralvarez/dstree/internal/models"
)

// LocalDatabaseName names the single pseudo-database of the in-memory engine.
const LocalDatabaseName = "memory"

// Local serves metadata for in-memory tables declared by notebook variables.
// There is no transport behind it; the source callback reads the notebook's
// current tables. The single database uses the schemaless sentinel, so tables
// render directly under it.
type Local struct {
	source func() []models.Table
}

// NewLocal creates a requester over the given table source.
func NewLocal(source func() []models.Table) *Local {
	return &Local{source: source}
}

// Close is a no-op; there is no connection to release.
func (l *Local) Close() error { return nil }

// Refresh returns the fixed memory database. It has no databases at all when
// the notebook declares no tables, which hides the internal engine.
func (l *Local) Refresh(ctx context.Context) ([]models.Database, error) {
	if len(l.source()) == 0 {
		return nil, nil
	}
	return []models.Database{{
		Name:    LocalDatabaseName,
		Schemas: []models.Schema{{Name: models.SchemalessName}},
	}}, nil
}

// TableList returns the notebook's in-memory tables.
func (l *Local) TableList(ctx context.Context, sqlCtx models.SQLContext) ([]models.Table, error) {
	return l.source(), nil
}

// TableDetail returns one in-memory table by name.
func (l *Local) TableDetail(ctx context.Context, sqlCtx models.SQLContext, table string) (models.Table, error) {
	for _, t := range l.source() {
		if t.Name == table {
			return t, nil
		}
	}
	return models.Table{}, fmt.Errorf("unknown in-memory table %q", table)
}
