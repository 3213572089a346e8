package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seralvarez/dstree/internal/models"
	"github.com/seralvarez/dstree/internal/request"
)

type fakeRequester struct {
	mu         sync.Mutex
	listCalls  int
	descCalls  int
	tables     []models.Table
	detail     models.Table
	err        error
	refreshErr error
}

func (f *fakeRequester) TableList(ctx context.Context, sqlCtx models.SQLContext) ([]models.Table, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	return f.tables, f.err
}

func (f *fakeRequester) TableDetail(ctx context.Context, sqlCtx models.SQLContext, table string) (models.Table, error) {
	f.mu.Lock()
	f.descCalls++
	f.mu.Unlock()
	return f.detail, f.err
}

func (f *fakeRequester) Refresh(ctx context.Context) ([]models.Database, error) {
	return []models.Database{{Name: "app", Schemas: []models.Schema{{Name: "public"}}}}, f.refreshErr
}

func (f *fakeRequester) Close() error { return nil }

func newFixture(req *fakeRequester) (*Cache, *models.Store) {
	store := models.NewStore()
	store.Upsert(models.Connection{Name: "pg", Dialect: models.DialectPostgres})
	reg := request.NewRegistry()
	reg.Register("pg", req)
	return New(store, reg, nil, 0), store
}

func pgCtx() models.SQLContext {
	return models.SQLContext{Engine: "pg", Database: "app", Schema: "public"}
}

func TestCache_DeduplicatesTableFetch(t *testing.T) {
	req := &fakeRequester{tables: []models.Table{{Name: "users"}}}
	cache, _ := newFixture(req)
	key := TablesKey(pgCtx())

	// First render wins the gate; re-renders before resolution do not.
	require.True(t, cache.Begin(key))
	assert.False(t, cache.Begin(key))
	assert.False(t, cache.Begin(key))

	cache.FetchTables(context.Background(), pgCtx())

	assert.Equal(t, 1, req.listCalls)
	state, err := cache.State(key)
	assert.Equal(t, StateLoaded, state)
	assert.NoError(t, err)
}

func TestCache_EmptyResultIsTerminal(t *testing.T) {
	req := &fakeRequester{tables: nil}
	cache, _ := newFixture(req)
	key := TablesKey(pgCtx())

	require.True(t, cache.Begin(key))
	cache.FetchTables(context.Background(), pgCtx())

	state, err := cache.State(key)
	assert.Equal(t, StateEmpty, state)
	assert.ErrorIs(t, err, ErrNoData)

	// A later render must not re-issue the fetch.
	assert.False(t, cache.Begin(key))
	assert.Equal(t, 1, req.listCalls)
}

func TestCache_FailureIsNodeLocal(t *testing.T) {
	boom := errors.New("connection reset")
	req := &fakeRequester{err: boom}
	cache, _ := newFixture(req)

	a := pgCtx()
	b := pgCtx()
	b.Schema = "analytics"

	require.True(t, cache.Begin(TablesKey(a)))
	cache.FetchTables(context.Background(), a)

	state, err := cache.State(TablesKey(a))
	assert.Equal(t, StateError, state)
	assert.ErrorIs(t, err, boom)

	// The sibling schema is untouched and can still fetch.
	state, _ = cache.State(TablesKey(b))
	assert.Equal(t, StateIdle, state)
	assert.True(t, cache.Begin(TablesKey(b)))
}

func TestCache_SiblingColumnFetchesAreIndependent(t *testing.T) {
	req := &fakeRequester{detail: models.Table{Name: "users", Columns: []models.Column{{Name: "id"}}}}
	cache, _ := newFixture(req)

	keyA := ColumnsKey(pgCtx(), "users")
	keyB := ColumnsKey(pgCtx(), "orders")

	require.True(t, cache.Begin(keyA))
	require.True(t, cache.Begin(keyB))

	cache.FetchColumns(context.Background(), pgCtx(), "users")

	stateA, _ := cache.State(keyA)
	stateB, _ := cache.State(keyB)
	assert.Equal(t, StateLoaded, stateA)
	assert.Equal(t, StateLoading, stateB, "resolving one sibling must not affect the other")
}

func TestCache_FetchMergesIntoStore(t *testing.T) {
	req := &fakeRequester{tables: []models.Table{{Name: "users"}, {Name: "orders"}}}
	cache, store := newFixture(req)

	notified := 0
	store.Subscribe(func() { notified++ })

	require.True(t, cache.Begin(TablesKey(pgCtx())))
	cache.FetchTables(context.Background(), pgCtx())

	conn, ok := store.Get("pg")
	require.True(t, ok)
	require.Len(t, conn.Databases, 1)
	assert.Len(t, conn.Databases[0].Schemas[0].Tables, 2)
	assert.Positive(t, notified, "merge must notify store subscribers")
}

func TestCache_ForgetRearmsKey(t *testing.T) {
	req := &fakeRequester{err: errors.New("down")}
	cache, _ := newFixture(req)
	key := TablesKey(pgCtx())

	require.True(t, cache.Begin(key))
	cache.FetchTables(context.Background(), pgCtx())
	require.False(t, cache.Begin(key))

	cache.Forget(key)

	state, _ := cache.State(key)
	assert.Equal(t, StateIdle, state)
	assert.True(t, cache.Begin(key))
}

func TestCache_RefreshRearmsEngineAndReplacesDatabases(t *testing.T) {
	req := &fakeRequester{tables: []models.Table{{Name: "users"}}}
	cache, store := newFixture(req)
	key := TablesKey(pgCtx())

	require.True(t, cache.Begin(key))
	cache.FetchTables(context.Background(), pgCtx())

	err := cache.Refresh(context.Background(), "pg", 0)
	require.NoError(t, err)

	conn, _ := store.Get("pg")
	require.Len(t, conn.Databases, 1)
	assert.Empty(t, conn.Databases[0].Schemas[0].Tables, "refresh resets to lazily-fetched skeleton")

	state, _ := cache.State(key)
	assert.Equal(t, StateIdle, state, "refresh must re-arm the engine's fetch keys")
}

func TestCache_RefreshHoldsMinimumFloor(t *testing.T) {
	req := &fakeRequester{}
	cache, _ := newFixture(req)

	floor := 50 * time.Millisecond
	start := time.Now()
	err := cache.Refresh(context.Background(), "pg", floor)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), floor,
		"a fast refresh must stay busy until the floor elapses")
}

func TestCache_RefreshErrorKeepsOldMetadata(t *testing.T) {
	req := &fakeRequester{tables: []models.Table{{Name: "users"}}}
	cache, store := newFixture(req)

	require.True(t, cache.Begin(TablesKey(pgCtx())))
	cache.FetchTables(context.Background(), pgCtx())

	req.refreshErr = errors.New("server restarting")
	err := cache.Refresh(context.Background(), "pg", 0)
	require.Error(t, err)

	conn, _ := store.Get("pg")
	require.Len(t, conn.Databases, 1)
	assert.NotEmpty(t, conn.Databases[0].Schemas[0].Tables, "failed refresh must not drop metadata")
}
