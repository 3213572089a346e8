package models

import "sync"

// Store holds the shared connection/metadata state. Fetch results merge into
// it with replace-by-key semantics, so repeated merges with overlapping keys
// never duplicate entries and a late-arriving response is harmless.
//
// Subscribers are notified after every mutation so derived views (sorted and
// filtered lists) recompute instead of polling.
type Store struct {
	mu    sync.RWMutex
	order []string
	conns map[string]*Connection
	subs  []func()
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		conns: make(map[string]*Connection),
	}
}

// Subscribe registers fn to run after every mutation. Callbacks run outside
// the store lock, on the mutating goroutine.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}

// Upsert adds or replaces a connection by name, preserving first-seen order.
func (s *Store) Upsert(conn Connection) {
	s.mu.Lock()
	if _, ok := s.conns[conn.Name]; !ok {
		s.order = append(s.order, conn.Name)
	}
	s.conns[conn.Name] = &conn
	s.mu.Unlock()

	s.notify()
}

// Get returns a snapshot of the named connection.
func (s *Store) Get(name string) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.conns[name]
	if !ok {
		return Connection{}, false
	}
	return cloneConnection(conn), true
}

// Connections returns snapshots of all connections in first-seen order.
func (s *Store) Connections() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Connection, 0, len(s.order))
	for _, name := range s.order {
		if conn, ok := s.conns[name]; ok {
			out = append(out, cloneConnection(conn))
		}
	}
	return out
}

// MergeTables merges a fetched table list into (engine, database, schema),
// replacing tables that already exist by name and appending the rest. The
// database and schema are created on first merge.
func (s *Store) MergeTables(engine, database, schema string, tables []Table) {
	s.mu.Lock()
	if conn, ok := s.conns[engine]; ok {
		sc := findSchema(conn, database, schema)
		for _, t := range tables {
			replaceTable(sc, t)
		}
	}
	s.mu.Unlock()

	s.notify()
}

// MergeTableDetail merges a single fetched table (typically carrying column
// metadata) into its schema, replacing any previous entry with the same name.
func (s *Store) MergeTableDetail(engine, database, schema string, table Table) {
	s.mu.Lock()
	if conn, ok := s.conns[engine]; ok {
		replaceTable(findSchema(conn, database, schema), table)
	}
	s.mu.Unlock()

	s.notify()
}

// DropDatabases clears the named engine's databases. Used on refresh before
// re-discovery so stale metadata does not linger.
func (s *Store) DropDatabases(engine string) {
	s.mu.Lock()
	if conn, ok := s.conns[engine]; ok {
		conn.Databases = nil
	}
	s.mu.Unlock()

	s.notify()
}

func findSchema(conn *Connection, database, schema string) *Schema {
	var db *Database
	for i := range conn.Databases {
		if conn.Databases[i].Name == database {
			db = &conn.Databases[i]
			break
		}
	}
	if db == nil {
		conn.Databases = append(conn.Databases, Database{Name: database})
		db = &conn.Databases[len(conn.Databases)-1]
	}

	for i := range db.Schemas {
		if db.Schemas[i].Name == schema {
			return &db.Schemas[i]
		}
	}
	db.Schemas = append(db.Schemas, Schema{Name: schema})
	return &db.Schemas[len(db.Schemas)-1]
}

func replaceTable(sc *Schema, t Table) {
	for i := range sc.Tables {
		if sc.Tables[i].Name == t.Name {
			sc.Tables[i] = t
			return
		}
	}
	sc.Tables = append(sc.Tables, t)
}

func cloneConnection(c *Connection) Connection {
	out := *c
	out.Databases = make([]Database, len(c.Databases))
	for i, db := range c.Databases {
		outDB := db
		outDB.Schemas = make([]Schema, len(db.Schemas))
		for j, sc := range db.Schemas {
			outSC := sc
			outSC.Tables = make([]Table, len(sc.Tables))
			copy(outSC.Tables, sc.Tables)
			outDB.Schemas[j] = outSC
		}
		out.Databases[i] = outDB
	}
	return out
}
