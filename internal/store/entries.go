package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"knowvault/internal/knowerrors"
)

// EntryRow is the row-level view of an entry as stored in both the entries
// and knowledge tables. KnowledgeStore builds its richer Entry type on top
// of this.
type EntryRow struct {
	RowID        int64
	ID           string
	FilePath     string
	Content      string
	Type         string
	Importance   float64
	CreatedAt    string
	UpdatedAt    string
	LastAccessed sql.NullString
	Title        string
	Tags         []string
	Source       string
	AccessCount  int64
}

// Insert writes a brand-new entry across entries, knowledge, and
// entry_tags in a single transaction. The caller embeds the content and
// calls UpsertVector separately once it has the vector; entries can exist
// briefly without a vector row (search simply won't surface them via the
// ANN pool until that completes).
func (idx *Index) Insert(e EntryRow) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return knowerrors.NewIOError(e.ID, err)
	}
	defer tx.Rollback()

	tagsJSON, err := json.Marshal(e.Tags)
	if err != nil {
		return knowerrors.NewIOError(e.ID, err)
	}

	if _, err := tx.Exec(
		`INSERT INTO entries(id, file_path, content, type, importance, created_at, updated_at, last_accessed, title, tags_json, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.FilePath, e.Content, e.Type, e.Importance, e.CreatedAt, e.UpdatedAt, nullableString(e.LastAccessed), e.Title, string(tagsJSON), e.Source,
	); err != nil {
		return knowerrors.NewIOError(e.ID, fmt.Errorf("insert entries: %w", err))
	}

	if _, err := tx.Exec(
		`INSERT INTO knowledge(id, title, type, file_path, created_at, updated_at, last_accessed, access_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		e.ID, e.Title, e.Type, e.FilePath, e.CreatedAt, e.UpdatedAt, nullableString(e.LastAccessed),
	); err != nil {
		return knowerrors.NewIOError(e.ID, fmt.Errorf("insert knowledge: %w", err))
	}

	if err := insertTagsLocked(tx, e.ID, e.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return knowerrors.NewIOError(e.ID, err)
	}
	return nil
}

// Update rewrites content, title, tags, and updated_at for an existing
// entry. Tag rows are replaced wholesale rather than diffed, since the
// Markdown frontmatter is always the full tag list.
func (idx *Index) Update(e EntryRow) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return knowerrors.NewIOError(e.ID, err)
	}
	defer tx.Rollback()

	tagsJSON, err := json.Marshal(e.Tags)
	if err != nil {
		return knowerrors.NewIOError(e.ID, err)
	}

	res, err := tx.Exec(
		`UPDATE entries SET content = ?, title = ?, tags_json = ?, updated_at = ?, type = ?, importance = ?
		 WHERE id = ?`,
		e.Content, e.Title, string(tagsJSON), e.UpdatedAt, e.Type, e.Importance, e.ID,
	)
	if err != nil {
		return knowerrors.NewIOError(e.ID, fmt.Errorf("update entries: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return knowerrors.NewNotFound(e.ID)
	}

	if _, err := tx.Exec(
		`UPDATE knowledge SET title = ?, updated_at = ? WHERE id = ?`,
		e.Title, e.UpdatedAt, e.ID,
	); err != nil {
		return knowerrors.NewIOError(e.ID, fmt.Errorf("update knowledge: %w", err))
	}

	if _, err := tx.Exec(`DELETE FROM entry_tags WHERE entry_id = ?`, e.ID); err != nil {
		return knowerrors.NewIOError(e.ID, fmt.Errorf("clear tags: %w", err))
	}
	if err := insertTagsLocked(tx, e.ID, e.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return knowerrors.NewIOError(e.ID, err)
	}
	return nil
}

func insertTagsLocked(tx *sql.Tx, entryID string, tags []string) error {
	for _, tag := range tags {
		// Stored form: lowercase, trimmed, whitespace runs as '-', no trailing '/'.
		tag = strings.TrimRight(strings.Join(strings.Fields(strings.ToLower(tag)), "-"), "/")
		if tag == "" {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO entry_tags(entry_id, tag) VALUES (?, ?) ON CONFLICT(entry_id, tag) DO NOTHING`,
			entryID, tag,
		); err != nil {
			return knowerrors.NewIOError(entryID, fmt.Errorf("insert tag %q: %w", tag, err))
		}
	}
	return nil
}

// Get loads a single entry by id, joining tags from entry_tags.
func (idx *Index) Get(id string) (*EntryRow, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.getLocked(id)
}

func (idx *Index) getLocked(id string) (*EntryRow, error) {
	var e EntryRow
	var tagsJSON string
	err := idx.db.QueryRow(
		`SELECT rowid, id, file_path, content, type, importance, created_at, updated_at, last_accessed, title, tags_json, source
		 FROM entries WHERE id = ?`, id,
	).Scan(&e.RowID, &e.ID, &e.FilePath, &e.Content, &e.Type, &e.Importance, &e.CreatedAt, &e.UpdatedAt, &e.LastAccessed, &e.Title, &tagsJSON, &e.Source)
	if err == sql.ErrNoRows {
		return nil, knowerrors.NewNotFound(id)
	}
	if err != nil {
		return nil, knowerrors.NewIOError(id, err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &e.Tags)

	_ = idx.db.QueryRow(`SELECT access_count FROM knowledge WHERE id = ?`, id).Scan(&e.AccessCount)
	return &e, nil
}

// IdsByPrefix returns every entry id beginning "prefix-", for IdAllocator
// to compute the next numeric suffix from.
func (idx *Index) IdsByPrefix(prefix string) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`SELECT id FROM entries WHERE id LIKE ?`, prefix+"-%")
	if err != nil {
		return nil, knowerrors.NewIOError(prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, knowerrors.NewIOError(prefix, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetByPath loads a single entry by its relative file path.
func (idx *Index) GetByPath(filePath string) (*EntryRow, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var id string
	err := idx.db.QueryRow(`SELECT id FROM entries WHERE file_path = ?`, filePath).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, knowerrors.NewNotFound(filePath)
	}
	if err != nil {
		return nil, knowerrors.NewIOError(filePath, err)
	}
	return idx.getLocked(id)
}

// List returns every entry, optionally filtered by type, ordered by
// updated_at descending.
func (idx *Index) List(entryType string) ([]*EntryRow, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	query := `SELECT id, file_path, content, type, importance, created_at, updated_at, last_accessed, title, tags_json, source,
		COALESCE((SELECT k.access_count FROM knowledge k WHERE k.id = entries.id), 0) FROM entries`
	args := []any{}
	if entryType != "" {
		query += ` WHERE type = ?`
		args = append(args, entryType)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, knowerrors.NewIOError("", err)
	}
	defer rows.Close()

	var out []*EntryRow
	for rows.Next() {
		var e EntryRow
		var tagsJSON string
		if err := rows.Scan(&e.ID, &e.FilePath, &e.Content, &e.Type, &e.Importance, &e.CreatedAt, &e.UpdatedAt, &e.LastAccessed, &e.Title, &tagsJSON, &e.Source, &e.AccessCount); err != nil {
			return nil, knowerrors.NewIOError("", err)
		}
		_ = json.Unmarshal([]byte(tagsJSON), &e.Tags)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// TouchAccess bumps access_count and last_accessed for entries returned
// from a search. Only entries actually returned are touched.
func (idx *Index) TouchAccess(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := idx.db.Begin()
	if err != nil {
		return knowerrors.NewIOError("", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.Exec(
			`UPDATE knowledge SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`,
			now, id,
		); err != nil {
			return knowerrors.NewIOError(id, err)
		}
		if _, err := tx.Exec(`UPDATE entries SET last_accessed = ? WHERE id = ?`, now, id); err != nil {
			return knowerrors.NewIOError(id, err)
		}
	}
	return tx.Commit()
}

// Delete removes an entry and every row that references it: tags,
// connections (both directions, via cascadeLocked in graph.go), the FTS
// row (via trigger), and the vector row. Callers unlink the Markdown file
// themselves after this succeeds.
func (idx *Index) Delete(id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return knowerrors.NewIOError(id, err)
	}
	defer tx.Rollback()

	if err := cascadeLocked(tx, id); err != nil {
		return err
	}

	var rowID int64
	err = tx.QueryRow(`SELECT rowid FROM entries WHERE id = ?`, id).Scan(&rowID)
	if err == sql.ErrNoRows {
		return knowerrors.NewNotFound(id)
	}
	if err != nil {
		return knowerrors.NewIOError(id, err)
	}

	if _, err := tx.Exec(`DELETE FROM entries_vec WHERE rowid = ?`, rowID); err != nil {
		// best-effort: a missing vector row is not a failure
		_ = err
	}
	if _, err := tx.Exec(`DELETE FROM entries WHERE id = ?`, id); err != nil {
		return knowerrors.NewIOError(id, err)
	}
	if _, err := tx.Exec(`DELETE FROM knowledge WHERE id = ?`, id); err != nil {
		return knowerrors.NewIOError(id, err)
	}

	return tx.Commit()
}

func nullableString(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.String
}
