// Package fetch implements the one-shot metadata fetch cache: each
// (engine, database, schema) table-list fetch and each per-table column fetch
// runs at most once, and completed results merge into the shared store.
package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seralvarez/dstree/internal/models"
	"github.com/seralvarez/dstree/internal/request"
)

// ErrNoData marks a fetch that completed but returned nothing. The requested
// flag stays set: this is the at-most-once policy, not a masked failure.
var ErrNoData = errors.New("no tables available")

// State is the lifecycle of one fetch key.
type State int

const (
	// StateIdle means no fetch was requested for the key yet.
	StateIdle State = iota
	// StateLoading covers the window from request to merge or failure.
	StateLoading
	// StateLoaded means results were merged into the store.
	StateLoaded
	// StateEmpty means the fetch completed with zero items.
	StateEmpty
	// StateError means the fetch failed. No automatic retry happens; only
	// forgetting the key re-arms it.
	StateError
)

// Key identifies a pending or completed fetch. Table is empty for table-list
// fetches and set for column fetches.
type Key struct {
	Engine   string
	Database string
	Schema   string
	Table    string
}

// TablesKey builds the key for a table-list fetch.
func TablesKey(sqlCtx models.SQLContext) Key {
	return Key{Engine: sqlCtx.Engine, Database: sqlCtx.Database, Schema: sqlCtx.Schema}
}

// ColumnsKey builds the key for a column fetch.
func ColumnsKey(sqlCtx models.SQLContext, table string) Key {
	return Key{Engine: sqlCtx.Engine, Database: sqlCtx.Database, Schema: sqlCtx.Schema, Table: table}
}

// Resolver finds the requester serving an engine.
type Resolver interface {
	For(engine string) (request.Requester, bool)
}

type status struct {
	state State
	err   error
}

// Cache gates fetches and records their outcomes. Begin must be called on the
// event-loop side before the asynchronous fetch starts; that closes the race
// between a flag check and the fetch goroutine.
type Cache struct {
	mu      sync.Mutex
	status  map[Key]status
	store   *models.Store
	reqs    Resolver
	log     *zap.Logger
	timeout time.Duration
}

// New creates a cache merging into store and resolving engines through reqs.
// A zero timeout leaves fetch deadlines to the transport.
func New(store *models.Store, reqs Resolver, log *zap.Logger, timeout time.Duration) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		status:  make(map[Key]status),
		store:   store,
		reqs:    reqs,
		log:     log,
		timeout: timeout,
	}
}

// Begin marks key as requested and loading. It returns false if a fetch was
// already requested for the key, whether in flight or completed; callers must
// not start a fetch in that case.
func (c *Cache) Begin(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.status[key]; ok {
		return false
	}
	c.status[key] = status{state: StateLoading}
	return true
}

// State reports the key's current state and, for StateEmpty and StateError,
// the error that put it there.
func (c *Cache) State(key Key) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.status[key]
	if !ok {
		return StateIdle, nil
	}
	return st.state, st.err
}

// Forget discards a key's state so a future render may fetch again. This is
// the remount path; nothing calls it automatically on failure.
func (c *Cache) Forget(key Key) {
	c.mu.Lock()
	delete(c.status, key)
	c.mu.Unlock()
}

// ForgetEngine discards every key belonging to an engine. Used by Refresh.
func (c *Cache) ForgetEngine(engine string) {
	c.mu.Lock()
	for key := range c.status {
		if key.Engine == engine {
			delete(c.status, key)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) finish(key Key, state State, err error) {
	c.mu.Lock()
	c.status[key] = status{state: state, err: err}
	c.mu.Unlock()
}

func (c *Cache) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// FetchTables runs the table-list fetch for sqlCtx and records the outcome.
// The caller must have won Begin(TablesKey(sqlCtx)) first. Safe to call from
// a background goroutine; errors are recorded per key, never returned.
func (c *Cache) FetchTables(ctx context.Context, sqlCtx models.SQLContext) {
	key := TablesKey(sqlCtx)

	req, ok := c.reqs.For(sqlCtx.Engine)
	if !ok {
		c.finish(key, StateError, errors.New("no requester for engine "+sqlCtx.Engine))
		return
	}

	ctx, cancel := c.fetchContext(ctx)
	defer cancel()

	tables, err := req.TableList(ctx, sqlCtx)
	if err != nil {
		c.log.Warn("table list fetch failed",
			zap.String("engine", sqlCtx.Engine),
			zap.String("database", sqlCtx.Database),
			zap.String("schema", sqlCtx.Schema),
			zap.Error(err))
		c.finish(key, StateError, err)
		return
	}
	if len(tables) == 0 {
		c.finish(key, StateEmpty, ErrNoData)
		return
	}

	c.store.MergeTables(sqlCtx.Engine, sqlCtx.Database, sqlCtx.Schema, tables)
	c.finish(key, StateLoaded, nil)
}

// FetchColumns runs the column fetch for one table and records the outcome.
// The caller must have won Begin(ColumnsKey(sqlCtx, table)) first.
func (c *Cache) FetchColumns(ctx context.Context, sqlCtx models.SQLContext, table string) {
	key := ColumnsKey(sqlCtx, table)

	req, ok := c.reqs.For(sqlCtx.Engine)
	if !ok {
		c.finish(key, StateError, errors.New("no requester for engine "+sqlCtx.Engine))
		return
	}

	ctx, cancel := c.fetchContext(ctx)
	defer cancel()

	detail, err := req.TableDetail(ctx, sqlCtx, table)
	if err != nil {
		c.log.Warn("column fetch failed",
			zap.String("engine", sqlCtx.Engine),
			zap.String("table", table),
			zap.Error(err))
		c.finish(key, StateError, err)
		return
	}
	if len(detail.Columns) == 0 {
		c.finish(key, StateEmpty, ErrNoData)
		return
	}

	c.store.MergeTableDetail(sqlCtx.Engine, sqlCtx.Database, sqlCtx.Schema, detail)
	c.finish(key, StateLoaded, nil)
}

// Refresh re-discovers an engine's databases and re-arms its fetch keys.
// Best-effort: the error is returned for display but leaves the old metadata
// in place. The call never returns before floor has elapsed, so a fast
// refresh still shows visible feedback.
func (c *Cache) Refresh(ctx context.Context, engine string, floor time.Duration) error {
	start := time.Now()
	defer func() {
		if remaining := floor - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}()

	req, ok := c.reqs.For(engine)
	if !ok {
		return errors.New("no requester for engine " + engine)
	}

	ctx, cancel := c.fetchContext(ctx)
	defer cancel()

	databases, err := req.Refresh(ctx)
	if err != nil {
		c.log.Warn("refresh failed", zap.String("engine", engine), zap.Error(err))
		return err
	}

	conn, ok := c.store.Get(engine)
	if !ok {
		return errors.New("unknown engine " + engine)
	}
	conn.Databases = databases
	c.store.Upsert(conn)
	c.ForgetEngine(engine)

	c.log.Info("engine refreshed",
		zap.String("engine", engine),
		zap.Int("databases", len(databases)))
	return nil
}
