package store

import (
	"database/sql"
	"strings"
	"time"

	"knowvault/internal/knowerrors"
)

// Connection is a single directed edge as returned to callers.
type Connection struct {
	SourceID  string
	TargetID  string
	Type      string
	Note      string
	CreatedAt string
}

// Direction filters GetConnections by edge orientation relative to the
// queried id.
type Direction int

const (
	DirectionOutgoing Direction = iota
	DirectionIncoming
	DirectionBoth
)

// inverseOf is the deterministic inverse-type table from the graph
// design: related and contradicts are self-inverse, the rest form pairs.
var inverseOf = map[string]string{
	"related":        "related",
	"contradicts":    "contradicts",
	"builds_on":      "extended_by",
	"extended_by":    "builds_on",
	"part_of":        "contains",
	"contains":       "part_of",
	"supersedes":     "superseded_by",
	"superseded_by":  "supersedes",
}

// supersessionTypes are excluded from getActiveConnectionCount: they
// represent archival lineage, not live relationships, and must not keep a
// superseded entry artificially "active" in decay decisions.
var supersessionTypes = map[string]bool{
	"supersedes":    true,
	"superseded_by": true,
}

// InverseType returns the deterministic inverse of a connection type, or
// the type itself if no mapping is registered (treated as self-inverse).
func InverseType(t string) string {
	if inv, ok := inverseOf[t]; ok {
		return inv
	}
	return t
}

// Connect creates a forward edge (s, t, type) and its inverse (t, s,
// inv(type)) atomically. UPSERT semantics mean calling Connect again with
// the same triple adds no row and is not an error; it replaces the note on
// both rows.
func (idx *Index) Connect(sourceID, targetID, connType, note string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return knowerrors.NewIOError(sourceID, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	inv := InverseType(connType)

	if _, err := tx.Exec(
		`INSERT INTO connections(source_id, target_id, type, note, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source_id, target_id, type) DO UPDATE SET note = excluded.note`,
		sourceID, targetID, connType, note, now,
	); err != nil {
		return knowerrors.NewIOError(sourceID, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO connections(source_id, target_id, type, note, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source_id, target_id, type) DO UPDATE SET note = excluded.note`,
		targetID, sourceID, inv, note, now,
	); err != nil {
		return knowerrors.NewIOError(targetID, err)
	}

	return tx.Commit()
}

// GetConnections filters connections touching id by direction and an
// optional set of types (nil/empty means all types).
func (idx *Index) GetConnections(id string, dir Direction, types []string) ([]Connection, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.getConnectionsLocked(id, dir, types)
}

func (idx *Index) getConnectionsLocked(id string, dir Direction, types []string) ([]Connection, error) {
	var query string
	args := []any{}

	switch dir {
	case DirectionOutgoing:
		query = `SELECT source_id, target_id, type, note, created_at FROM connections WHERE source_id = ?`
		args = append(args, id)
	case DirectionIncoming:
		query = `SELECT source_id, target_id, type, note, created_at FROM connections WHERE target_id = ?`
		args = append(args, id)
	default:
		query = `SELECT source_id, target_id, type, note, created_at FROM connections WHERE source_id = ? OR target_id = ?`
		args = append(args, id, id)
	}

	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, t)
		}
		query += ` AND type IN (` + strings.Join(placeholders, ",") + `)`
	}

	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, knowerrors.NewIOError(id, err)
	}
	defer rows.Close()

	var out []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.SourceID, &c.TargetID, &c.Type, &c.Note, &c.CreatedAt); err != nil {
			return nil, knowerrors.NewIOError(id, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetConnectionCount counts every row where id appears as either
// endpoint.
func (idx *Index) GetConnectionCount(id string) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var count int
	err := idx.db.QueryRow(
		`SELECT COUNT(*) FROM connections WHERE source_id = ? OR target_id = ?`, id, id,
	).Scan(&count)
	if err != nil {
		return 0, knowerrors.NewIOError(id, err)
	}
	return count, nil
}

// GetActiveConnectionCount is GetConnectionCount excluding supersession
// edges, which represent archival lineage rather than a live relationship.
func (idx *Index) GetActiveConnectionCount(id string) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var count int
	err := idx.db.QueryRow(
		`SELECT COUNT(*) FROM connections
		 WHERE (source_id = ? OR target_id = ?) AND type NOT IN ('supersedes', 'superseded_by')`,
		id, id,
	).Scan(&count)
	if err != nil {
		return 0, knowerrors.NewIOError(id, err)
	}
	return count, nil
}

// TraversalHit is one node discovered by Traverse, at its shortest
// distance from the start and the connection type on which it was first
// reached.
type TraversalHit struct {
	ID       string
	Distance int
	Via      string
}

// Traverse performs a breadth-first walk from startID, capped at depth 2
// (values above the cap are clamped, not rejected). Uses a cameFrom-style
// visited map rather than storing a full path per queue entry, since only
// the discovering edge type is needed, not the whole path.
func (idx *Index) Traverse(startID string, dir Direction, depth int, types []string) ([]TraversalHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if depth > 2 {
		depth = 2
	}
	if depth < 1 {
		depth = 1
	}

	visited := map[string]bool{startID: true}
	var hits []TraversalHit

	frontier := []string{startID}
	for d := 1; d <= depth && len(frontier) > 0; d++ {
		var next []string
		for _, node := range frontier {
			conns, err := idx.getConnectionsLocked(node, dir, types)
			if err != nil {
				return nil, err
			}
			for _, c := range conns {
				other := c.TargetID
				via := c.Type
				if other == node {
					other = c.SourceID
					via = InverseType(c.Type)
				}
				if other == node || visited[other] {
					continue
				}
				visited[other] = true
				hits = append(hits, TraversalHit{ID: other, Distance: d, Via: via})
				next = append(next, other)
			}
		}
		frontier = next
	}
	return hits, nil
}

// GetEntriesByTags returns the union of entries matching any of tags,
// where a filter tag matches an entry tag exactly or as a path-segment
// prefix (tech/ai matches tech/ai/claude but not tech or tech/data).
func (idx *Index) GetEntriesByTags(tags []string) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`SELECT DISTINCT entry_id, tag FROM entry_tags`)
	if err != nil {
		return nil, knowerrors.NewIOError("", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var out []string
	for rows.Next() {
		var entryID, tag string
		if err := rows.Scan(&entryID, &tag); err != nil {
			return nil, knowerrors.NewIOError("", err)
		}
		if seen[entryID] {
			continue
		}
		for _, filter := range tags {
			if tagMatches(tag, filter) {
				seen[entryID] = true
				out = append(out, entryID)
				break
			}
		}
	}
	return out, rows.Err()
}

// tagMatches reports whether tag equals filter or has filter as a
// path-segment prefix (segment-based, not a raw string prefix: "tech/ai"
// must not match "tech/aidata").
func tagMatches(tag, filter string) bool {
	if tag == filter {
		return true
	}
	return strings.HasPrefix(tag, filter+"/")
}

// ExistingTags returns the subset of tags that already label at least one
// entry, so callers can tell a caller-supplied tag list apart into
// already-known vs brand-new tags.
func (idx *Index) ExistingTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	placeholders := make([]string, len(tags))
	args := make([]any, len(tags))
	for i, t := range tags {
		placeholders[i] = "?"
		args[i] = t
	}
	rows, err := idx.db.Query(
		`SELECT DISTINCT tag FROM entry_tags WHERE tag IN (`+strings.Join(placeholders, ",")+`)`,
		args...,
	)
	if err != nil {
		return nil, knowerrors.NewIOError("", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, knowerrors.NewIOError("", err)
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

// GetConnectedEntryIds returns ids reachable from id by exactly one edge
// in either direction, excluding id itself.
func (idx *Index) GetConnectedEntryIds(id string) ([]string, error) {
	conns, err := idx.GetConnections(id, DirectionBoth, nil)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, c := range conns {
		other := c.TargetID
		if other == id {
			other = c.SourceID
		}
		if other == id || seen[other] {
			continue
		}
		seen[other] = true
		out = append(out, other)
	}
	return out, nil
}

// cascadeLocked removes an entry's tags and both directions of its
// connections ahead of removing the entry row itself. Must run inside an
// already-open transaction held by the caller (the *Locked idiom: mu is
// already held by Delete).
func cascadeLocked(tx *sql.Tx, id string) error {
	if _, err := tx.Exec(`DELETE FROM entry_tags WHERE entry_id = ?`, id); err != nil {
		return knowerrors.NewIOError(id, err)
	}
	if _, err := tx.Exec(`DELETE FROM connections WHERE source_id = ? OR target_id = ?`, id, id); err != nil {
		return knowerrors.NewIOError(id, err)
	}
	return nil
}
