// Package request implements the metadata transport behind the data-source
// tree: engine-specific requesters that list databases, tables, and columns.
package request

import (
	"context"
	"sync"

	"github.com/seralvarez/dstree/internal/models"
)

// Requester fetches metadata for one engine. Implementations are registered
// per engine name in a Registry.
type Requester interface {
	// TableList returns the tables of (database, schema), without columns.
	TableList(ctx context.Context, sqlCtx models.SQLContext) ([]models.Table, error)

	// TableDetail returns one table with its column metadata populated.
	TableDetail(ctx context.Context, sqlCtx models.SQLContext, table string) (models.Table, error)

	// Refresh re-discovers the engine's databases and schemas. Tables and
	// columns are left for lazy fetching.
	Refresh(ctx context.Context) ([]models.Database, error)

	// Close releases the underlying connection, if any.
	Close() error
}

// Registry maps engine names to their requesters.
type Registry struct {
	mu       sync.RWMutex
	byEngine map[string]Requester
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byEngine: make(map[string]Requester)}
}

// Register binds a requester to an engine name, replacing any previous one.
func (r *Registry) Register(engine string, req Requester) {
	r.mu.Lock()
	r.byEngine[engine] = req
	r.mu.Unlock()
}

// For returns the requester for an engine.
func (r *Registry) For(engine string) (Requester, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.byEngine[engine]
	return req, ok
}

// Close closes every registered requester, keeping the first error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for _, req := range r.byEngine {
		if err := req.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
