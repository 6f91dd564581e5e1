// Package store implements the SqliteIndex, HybridSearcher and GraphStore
// components: the single SQLite database that backs full-text search,
// approximate-nearest-neighbour vector search, and the typed knowledge
// graph over a tree of Markdown entries.
package store

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"knowvault/internal/knowerrors"
	"knowvault/internal/logging"
)

// Index is the single-process SQLite database backing search and the
// knowledge graph. All writes go through mu so that, even with multiple
// cooperative callers, at most one transaction is in flight; FTS and
// vector reads are served without the write lock.
type Index struct {
	db        *sql.DB
	mu        sync.RWMutex
	path      string
	dim       int
	vectorExt bool // true if a real vec0 extension is loaded (vs. the pure-Go shim)
}

// Open creates or opens the SQLite index at path with a fixed embedding
// dimension. Opening an existing database with a different dimension than
// it was created with is a fatal configuration error (DimensionMismatch).
func Open(path string, dim int) (*Index, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if dim <= 0 {
		return nil, knowerrors.NewDimensionMismatch(path, fmt.Errorf("embedding dimension must be positive, got %d", dim))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, knowerrors.NewIOError(path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, knowerrors.NewIOError(path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA cache_size = -65536", // ~64 MiB
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.StoreDebug("pragma failed (%s): %v", pragma, err)
		}
	}

	idx := &Index{db: db, path: path, dim: dim}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := idx.checkDimension(); err != nil {
		db.Close()
		return nil, err
	}
	idx.detectVecExtension()

	logging.Store("SqliteIndex opened at %s (dim=%d, native-vec=%v)", path, dim, idx.vectorExt)
	return idx, nil
}

func (idx *Index) DB() *sql.DB { return idx.db }

func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			file_path TEXT UNIQUE NOT NULL,
			content TEXT NOT NULL,
			type TEXT NOT NULL,
			importance REAL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			last_accessed TEXT,
			title TEXT NOT NULL,
			tags_json TEXT NOT NULL DEFAULT '[]',
			source TEXT DEFAULT ''
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			content, content='entries', content_rowid='rowid', tokenize='porter unicode61'
		)`,
		`CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
			INSERT INTO entries_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
			INSERT INTO entries_fts(entries_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
			INSERT INTO entries_fts(entries_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
			INSERT INTO entries_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
		`CREATE TABLE IF NOT EXISTS knowledge (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			file_path TEXT UNIQUE NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			last_accessed TEXT,
			access_count INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS entry_tags (
			entry_id TEXT NOT NULL REFERENCES knowledge(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			PRIMARY KEY (entry_id, tag)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entry_tags_tag ON entry_tags(tag)`,
		`CREATE TABLE IF NOT EXISTS connections (
			source_id TEXT NOT NULL REFERENCES knowledge(id) ON DELETE CASCADE,
			target_id TEXT NOT NULL REFERENCES knowledge(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			note TEXT DEFAULT '',
			created_at TEXT NOT NULL,
			PRIMARY KEY (source_id, target_id, type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_connections_target ON connections(target_id)`,
		`CREATE TABLE IF NOT EXISTS schema_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
	}

	for _, s := range stmts {
		if _, err := idx.db.Exec(s); err != nil {
			return knowerrors.NewIndexCorruption(fmt.Errorf("schema init: %w", err))
		}
	}

	if err := idx.createVecTable(); err != nil {
		return err
	}
	return RunMigrations(idx.db)
}

// createVecTable creates entries_vec. Under the sqlite_vec+cgo build tag a
// real vec0 virtual table from github.com/asg017/sqlite-vec-go-bindings is
// used; otherwise the pure-Go vec0 compatibility module registered in
// vec_compat.go provides the same surface.
func (idx *Index) createVecTable() error {
	q := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS entries_vec USING vec0(embedding float[%d], content TEXT, metadata TEXT)", idx.dim)
	if _, err := idx.db.Exec(q); err != nil {
		return knowerrors.NewIndexCorruption(fmt.Errorf("entries_vec init: %w", err))
	}
	return nil
}

// checkDimension records the configured dimension on first open and
// rejects reopening with a different one.
func (idx *Index) checkDimension() error {
	var stored string
	err := idx.db.QueryRow(`SELECT value FROM schema_meta WHERE key = 'embedding_dim'`).Scan(&stored)
	if err == sql.ErrNoRows {
		_, err := idx.db.Exec(`INSERT INTO schema_meta(key, value) VALUES ('embedding_dim', ?)`, fmt.Sprintf("%d", idx.dim))
		return err
	}
	if err != nil {
		return knowerrors.NewIOError(idx.path, err)
	}
	if stored != fmt.Sprintf("%d", idx.dim) {
		return knowerrors.NewDimensionMismatch(idx.path, fmt.Errorf("database was created with dimension %s, opened with %d", stored, idx.dim))
	}
	return nil
}

func (idx *Index) detectVecExtension() {
	var name string
	err := idx.db.QueryRow(`SELECT name FROM sqlite_master WHERE name = 'entries_vec' AND sql LIKE '%vec0%'`).Scan(&name)
	idx.vectorExt = err == nil
}

// CosineSimilarity computes cosine similarity between two equal-length
// vectors; mismatched lengths and zero vectors both yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		af, bf := float64(a[i]), float64(b[i])
		dot += af * bf
		na += af * af
		nb += bf * bf
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Stats reports per-table row counts for entries, knowledge, entry_tags and
// connections.
func (idx *Index) Stats() (map[string]int64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stats := make(map[string]int64)
	for _, table := range []string{"entries", "knowledge", "entry_tags", "connections"} {
		var count int64
		if err := idx.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			continue
		}
		stats[table] = count
	}
	return stats, nil
}
