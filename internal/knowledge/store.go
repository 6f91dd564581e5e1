// Package knowledge coordinates the codec, path policy, id allocator,
// SqliteIndex, GraphStore/HybridSearcher, embedder, and version store into
// the single public surface an agent or CLI actually calls: create, read,
// update, delete, list, connect, traverse, search.
package knowledge

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"knowvault/internal/codec"
	"knowvault/internal/embedding"
	"knowvault/internal/ids"
	"knowvault/internal/knowerrors"
	"knowvault/internal/logging"
	"knowvault/internal/pathpolicy"
	"knowvault/internal/store"
	"knowvault/internal/version"
)

// Direction mirrors store.Direction as a string so the public surface
// (CLI flags, JSON) doesn't leak the internal iota encoding.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

func (d Direction) toStore() store.Direction {
	switch d {
	case DirectionOutgoing:
		return store.DirectionOutgoing
	case DirectionIncoming:
		return store.DirectionIncoming
	default:
		return store.DirectionBoth
	}
}

// suggestConnectionRatio is the fractional content-length change above
// which an update re-runs search to surface suggested connections.
const suggestConnectionRatio = 0.20

// Store is a single knowledge store rooted at one baseDir.
type Store struct {
	baseDir   string
	index     *store.Index
	vcs       *version.Store
	embedder  embedding.Embedder
	allocator *ids.Allocator
	searchCfg store.SearchOptions

	// writeMu serializes id allocation against the insert that consumes
	// it, since Allocator itself is non-transactional.
	writeMu sync.Mutex
}

// Open wires an already-open SqliteIndex, VersionStore, and Embedder into
// a coordinator rooted at baseDir.
func Open(baseDir string, index *store.Index, vcs *version.Store, embedder embedding.Embedder, searchCfg store.SearchOptions) *Store {
	s := &Store{
		baseDir:   baseDir,
		index:     index,
		vcs:       vcs,
		embedder:  embedder,
		searchCfg: searchCfg,
	}
	s.allocator = ids.New(index.IdsByPrefix)
	return s
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// Create allocates an id, writes the Markdown file, indexes it, embeds its
// content, and commits the change, per the create protocol.
func (s *Store) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	s.writeMu.Lock()
	id, err := s.allocator.Next(input.Type)
	if err != nil {
		s.writeMu.Unlock()
		return nil, err
	}
	relPath, err := pathpolicy.RelPath(input.Type, id, input.Title)
	if err != nil {
		s.writeMu.Unlock()
		return nil, err
	}

	meta := codec.EntryMeta{
		ID:      id,
		Title:   input.Title,
		Type:    input.Type,
		Tags:    input.Tags,
		Created: now(),
		Updated: now(),
	}
	for _, c := range input.Connections {
		meta.Connections = append(meta.Connections, codec.Connection{Target: c.Target, Type: c.Type, Note: c.Note})
	}

	doc := &codec.Document{Frontmatter: codec.ApplyMeta(nil, meta), Body: input.Content}
	raw, err := codec.Serialize(doc)
	if err != nil {
		s.writeMu.Unlock()
		return nil, knowerrors.NewIOError(id, err)
	}

	absPath, err := pathpolicy.Resolve(s.baseDir, relPath)
	if err != nil {
		s.writeMu.Unlock()
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		s.writeMu.Unlock()
		return nil, knowerrors.NewIOError(id, err)
	}
	if err := os.WriteFile(absPath, []byte(raw), 0o644); err != nil {
		s.writeMu.Unlock()
		return nil, knowerrors.NewIOError(id, err)
	}

	existingTags, _ := s.index.ExistingTags(input.Tags)

	if err := s.index.Insert(store.EntryRow{
		ID: id, FilePath: relPath, Content: input.Content, Type: input.Type,
		CreatedAt: meta.Created, UpdatedAt: meta.Updated, Title: input.Title, Tags: input.Tags,
	}); err != nil {
		s.writeMu.Unlock()
		return nil, err
	}
	s.writeMu.Unlock()

	changedFiles := []string{relPath}
	for _, c := range input.Connections {
		if err := s.index.Connect(id, c.Target, c.Type, c.Note); err != nil {
			logging.StoreWarn("create %s: connect to %s failed: %v", id, c.Target, err)
			continue
		}
		if targetPath, err := s.addInverseConnectionToFile(c.Target, id, c.Type, c.Note); err == nil {
			changedFiles = append(changedFiles, targetPath)
		}
	}

	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, input.Content, embedding.TaskRetrievalDocument)
		if err != nil {
			logging.StoreWarn("create %s: embed failed: %v", id, err)
		} else if err := s.index.UpsertVector(id, vec); err != nil {
			logging.StoreWarn("create %s: upsert vector failed: %v", id, err)
		}
	}

	if s.vcs != nil {
		if err := s.vcs.Stage(ctx, changedFiles...); err != nil {
			logging.GitWarn("create %s: stage failed: %v", id, err)
		}
		if err := s.vcs.Commit(ctx, fmt.Sprintf("note: add %s", id)); err != nil {
			logging.GitWarn("create %s: commit failed: %v", id, err)
		}
	}

	suggested, _ := s.suggestConnections(ctx, input.Content, id)

	return &CreateResult{ID: id, FilePath: relPath, SuggestedConnections: suggested, ExistingTags: existingTags}, nil
}

// addInverseConnectionToFile rewrites targetID's frontmatter to add the
// inverse edge, since files are ground truth for connections too.
func (s *Store) addInverseConnectionToFile(targetID, sourceID, connType, note string) (string, error) {
	entry, err := s.index.Get(targetID)
	if err != nil {
		return "", err
	}
	absPath, err := pathpolicy.Resolve(s.baseDir, entry.FilePath)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return "", knowerrors.NewIOError(targetID, err)
	}
	doc, err := codec.Parse(string(raw))
	if err != nil {
		return "", knowerrors.NewIOError(targetID, err)
	}
	meta := codec.ExtractMeta(doc.Frontmatter)
	meta.Connections = append(meta.Connections, codec.Connection{Target: sourceID, Type: store.InverseType(connType), Note: note})
	doc.Frontmatter = codec.ApplyMeta(doc.Frontmatter, meta)

	newRaw, err := codec.Serialize(doc)
	if err != nil {
		return "", knowerrors.NewIOError(targetID, err)
	}
	if err := os.WriteFile(absPath, []byte(newRaw), 0o644); err != nil {
		return "", knowerrors.NewIOError(targetID, err)
	}
	return entry.FilePath, nil
}

// Read loads an entry by id, enriched with its current connections.
func (s *Store) Read(id string) (*Entry, error) {
	row, err := s.index.Get(id)
	if err != nil {
		return nil, err
	}
	return s.toEntry(row)
}

// ReadByPath loads an entry by its file path relative to baseDir.
func (s *Store) ReadByPath(relPath string) (*Entry, error) {
	if _, err := pathpolicy.Resolve(s.baseDir, relPath); err != nil {
		return nil, err
	}
	row, err := s.index.GetByPath(relPath)
	if err != nil {
		return nil, err
	}
	return s.toEntry(row)
}

func (s *Store) toEntry(row *store.EntryRow) (*Entry, error) {
	conns, err := s.index.GetConnections(row.ID, store.DirectionOutgoing, nil)
	if err != nil {
		return nil, err
	}
	out := &Entry{
		ID: row.ID, FilePath: row.FilePath, Title: row.Title, Type: row.Type,
		Content: row.Content, Tags: row.Tags, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
		AccessCount: row.AccessCount,
	}
	for _, c := range conns {
		out.Connections = append(out.Connections, Connection{Target: c.TargetID, Type: c.Type, Note: c.Note})
	}
	return out, nil
}

// Update rewrites an entry's body, re-indexes it, and, if the content
// length changed by at least 20%, surfaces suggested connections from a
// fresh search over the new body.
func (s *Store) Update(ctx context.Context, relPath, content, reason string) (*UpdateResult, error) {
	absPath, err := pathpolicy.Resolve(s.baseDir, relPath)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, knowerrors.NewIOError(relPath, err)
	}
	doc, err := codec.Parse(string(raw))
	if err != nil {
		return nil, knowerrors.NewIOError(relPath, err)
	}
	meta := codec.ExtractMeta(doc.Frontmatter)
	if meta.ID == "" {
		return nil, knowerrors.NewNotFound(relPath)
	}

	oldBody := doc.Body
	meta.Updated = now()
	doc.Body = content
	doc.Frontmatter = codec.ApplyMeta(doc.Frontmatter, meta)

	newRaw, err := codec.Serialize(doc)
	if err != nil {
		return nil, knowerrors.NewIOError(meta.ID, err)
	}
	if err := os.WriteFile(absPath, []byte(newRaw), 0o644); err != nil {
		return nil, knowerrors.NewIOError(meta.ID, err)
	}

	existing, err := s.index.Get(meta.ID)
	if err != nil {
		return nil, err
	}

	if err := s.index.Update(store.EntryRow{
		ID: meta.ID, FilePath: relPath, Content: content, Type: existing.Type,
		Importance: existing.Importance, CreatedAt: existing.CreatedAt, UpdatedAt: meta.Updated,
		Title: meta.Title, Tags: meta.Tags,
	}); err != nil {
		return nil, err
	}

	indexed := true
	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, content, embedding.TaskRetrievalDocument)
		if err != nil {
			logging.StoreWarn("update %s: embed failed: %v", meta.ID, err)
			indexed = false
		} else if err := s.index.UpsertVector(meta.ID, vec); err != nil {
			logging.StoreWarn("update %s: upsert vector failed: %v", meta.ID, err)
			indexed = false
		}
	}

	var suggested []SearchResult
	if oldLen := len(oldBody); oldLen > 0 {
		ratio := math.Abs(float64(len(content)-oldLen)) / float64(oldLen)
		if ratio >= suggestConnectionRatio {
			suggested, _ = s.suggestConnections(ctx, content, meta.ID)
		}
	}

	if s.vcs != nil {
		if err := s.vcs.Stage(ctx, relPath); err != nil {
			logging.GitWarn("update %s: stage failed: %v", meta.ID, err)
		}
		if err := s.vcs.Commit(ctx, fmt.Sprintf("update %s: %s", meta.ID, reason)); err != nil {
			logging.GitWarn("update %s: commit failed: %v", meta.ID, err)
		}
	}

	diff := fmt.Sprintf("reason: %s\n--- old (%d bytes)\n+++ new (%d bytes)", reason, len(oldBody), len(content))

	return &UpdateResult{Success: true, Diff: diff, Indexed: indexed, SuggestedConnections: suggested}, nil
}

// Delete removes an entry's rows (tags, connections, FTS, vector), then
// unlinks its file, then commits the deletion.
func (s *Store) Delete(ctx context.Context, id string) error {
	entry, err := s.index.Get(id)
	if err != nil {
		return err
	}
	if err := s.index.Delete(id); err != nil {
		return err
	}

	absPath, err := pathpolicy.Resolve(s.baseDir, entry.FilePath)
	if err == nil {
		if rmErr := os.Remove(absPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.StoreWarn("delete %s: file removal failed: %v", id, rmErr)
		}
	}

	if s.vcs != nil {
		if err := s.vcs.Stage(ctx, entry.FilePath); err != nil {
			logging.GitWarn("delete %s: stage failed: %v", id, err)
		}
		if err := s.vcs.Commit(ctx, fmt.Sprintf("forget: remove %s", id)); err != nil {
			logging.GitWarn("delete %s: commit failed: %v", id, err)
		}
	}
	return nil
}

// List returns every entry, optionally filtered by type.
func (s *Store) List(entryType string) ([]*Entry, error) {
	rows, err := s.index.List(entryType)
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		e, err := s.toEntry(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Connect links two entries and mirrors the edge into both frontmatter
// files.
func (s *Store) Connect(ctx context.Context, sourceID, targetID, connType, note string) error {
	if err := s.index.Connect(sourceID, targetID, connType, note); err != nil {
		return err
	}
	var changed []string
	if path, err := s.addInverseConnectionToFile(targetID, sourceID, connType, note); err == nil {
		changed = append(changed, path)
	}
	if path, err := s.addInverseConnectionToFile(sourceID, targetID, store.InverseType(connType), note); err == nil {
		changed = append(changed, path)
	}
	if s.vcs != nil && len(changed) > 0 {
		if err := s.vcs.Stage(ctx, changed...); err != nil {
			logging.GitWarn("connect %s->%s: stage failed: %v", sourceID, targetID, err)
		}
		if err := s.vcs.Commit(ctx, fmt.Sprintf("connect: %s %s %s", sourceID, connType, targetID)); err != nil {
			logging.GitWarn("connect %s->%s: commit failed: %v", sourceID, targetID, err)
		}
	}
	return nil
}

// Traverse walks the knowledge graph from startID, enriching each hit with
// its title and type.
func (s *Store) Traverse(startID string, dir Direction, depth int, types []string) ([]TraverseResult, error) {
	hits, err := s.index.Traverse(startID, dir.toStore(), depth, types)
	if err != nil {
		return nil, err
	}
	out := make([]TraverseResult, 0, len(hits))
	for _, h := range hits {
		row, err := s.index.Get(h.ID)
		if err != nil {
			continue
		}
		out = append(out, TraverseResult{ID: h.ID, Title: row.Title, Type: row.Type, ConnectionType: h.Via, Distance: h.Distance})
	}
	return out, nil
}

// Search embeds the query, runs HybridSearcher, enriches each hit with its
// graph data, applies any tags/connected-to filters, and bumps
// access_count on exactly the entries returned.
func (s *Store) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, int, error) {
	storeOpts := s.searchCfg
	if opts.Limit > 0 {
		storeOpts.Limit = opts.Limit
	}
	if opts.MinScore > 0 {
		storeOpts.MinScore = opts.MinScore
	}

	var queryVec []float32
	if s.embedder != nil && query != "" {
		v, err := s.embedder.Embed(ctx, query, embedding.TaskRetrievalQuery)
		if err != nil {
			logging.SearchWarn("embed query failed, falling back to text-only: %v", err)
		} else {
			queryVec = v
		}
	}

	hits, err := s.index.Hybrid(query, queryVec, storeOpts)
	if err != nil {
		return nil, 0, err
	}

	if len(opts.Tags) > 0 {
		allowed, err := s.index.GetEntriesByTags(opts.Tags)
		if err != nil {
			return nil, 0, err
		}
		hits = intersectHits(hits, allowed)
	}
	if opts.ConnectedTo != "" {
		allowed, err := s.index.GetConnectedEntryIds(opts.ConnectedTo)
		if err != nil {
			return nil, 0, err
		}
		hits = intersectHits(hits, allowed)
	}

	results := make([]SearchResult, 0, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		row, err := s.index.Get(h.ID)
		if err != nil {
			continue
		}
		conns, err := s.index.GetConnections(h.ID, store.DirectionOutgoing, nil)
		if err != nil {
			continue
		}
		matchType := "hybrid"
		if h.VectorOnly {
			matchType = "vector"
		} else if queryVec == nil {
			matchType = "fts"
		}
		sr := SearchResult{
			ID: h.ID, Title: row.Title, Content: row.Content, Tags: row.Tags,
			Score: h.Score, MatchType: matchType, StoreSource: string(SourceProject),
		}
		for _, c := range conns {
			sr.Connections = append(sr.Connections, Connection{Target: c.TargetID, Type: c.Type, Note: c.Note})
		}
		results = append(results, sr)
		ids = append(ids, h.ID)
	}

	if err := s.index.TouchAccess(ids); err != nil {
		logging.SearchWarn("touch access failed: %v", err)
	}

	return results, len(results), nil
}

func intersectHits(hits []store.SearchHit, allowed []string) []store.SearchHit {
	set := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		set[id] = true
	}
	out := hits[:0]
	for _, h := range hits {
		if set[h.ID] {
			out = append(out, h)
		}
	}
	return out
}

// suggestConnections runs a hybrid search over content and returns up to 5
// other entries as suggested connections, excluding excludeID.
func (s *Store) suggestConnections(ctx context.Context, content, excludeID string) ([]SearchResult, error) {
	results, _, err := s.Search(ctx, content, SearchOptions{Limit: 6})
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, 5)
	for _, r := range results {
		if r.ID == excludeID {
			continue
		}
		out = append(out, r)
		if len(out) == 5 {
			break
		}
	}
	return out, nil
}

// DecayCandidates passes through to SqliteIndex's archival proposal.
func (s *Store) DecayCandidates(cfg store.DecayConfig) ([]store.DecayCandidate, error) {
	return s.index.DecayCandidates(cfg)
}

// rebuildTarget is one Markdown file queued for re-embedding once the
// indexing pass below has made its entry row and graph edges current.
type rebuildTarget struct {
	id   string
	body string
}

// rebuildConcurrency caps how many files are re-embedded at once: each
// embed call is a network round trip, so bounding it keeps a large vault
// rebuild from opening hundreds of simultaneous requests to the embedding
// provider.
const rebuildConcurrency = 8

// Rebuild repopulates the SqliteIndex by scanning every Markdown file under
// baseDir: files are ground truth, so the index can always be reconstructed
// from them. Entry rows and graph edges are written in the scan itself,
// since SQLite writes serialize through the index's own lock anyway;
// re-embedding is the slow, network-bound step, so it runs as a pool of
// goroutines bounded by rebuildConcurrency once the scan completes.
func (s *Store) Rebuild(ctx context.Context) (int, error) {
	var rebuilt int
	var targets []rebuildTarget

	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			logging.StoreWarn("rebuild: read %s failed: %v", rel, err)
			return nil
		}
		doc, err := codec.Parse(string(raw))
		if err != nil {
			logging.StoreWarn("rebuild: parse %s failed: %v", rel, err)
			return nil
		}
		meta := codec.ExtractMeta(doc.Frontmatter)
		if meta.ID == "" {
			return nil
		}

		row := store.EntryRow{
			ID: meta.ID, FilePath: rel, Content: doc.Body, Type: meta.Type,
			CreatedAt: meta.Created, UpdatedAt: meta.Updated, Title: meta.Title, Tags: meta.Tags,
		}
		if _, getErr := s.index.Get(meta.ID); getErr == nil {
			err = s.index.Update(row)
		} else {
			err = s.index.Insert(row)
		}
		if err != nil {
			logging.StoreWarn("rebuild: index %s failed: %v", meta.ID, err)
			return nil
		}

		for _, c := range meta.Connections {
			if connErr := s.index.Connect(meta.ID, c.Target, c.Type, c.Note); connErr != nil {
				logging.StoreWarn("rebuild: connect %s->%s failed: %v", meta.ID, c.Target, connErr)
			}
		}

		if s.embedder != nil {
			targets = append(targets, rebuildTarget{id: meta.ID, body: doc.Body})
		}

		rebuilt++
		return nil
	})
	if err != nil {
		return rebuilt, err
	}

	if len(targets) == 0 {
		return rebuilt, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(rebuildConcurrency)
	for _, target := range targets {
		target := target
		eg.Go(func() error {
			vec, embedErr := s.embedder.Embed(egCtx, target.body, embedding.TaskRetrievalDocument)
			if embedErr != nil {
				logging.StoreWarn("rebuild: embed %s failed: %v", target.id, embedErr)
				return nil
			}
			if vecErr := s.index.UpsertVector(target.id, vec); vecErr != nil {
				logging.StoreWarn("rebuild: upsert vector %s failed: %v", target.id, vecErr)
			}
			return nil
		})
	}
	_ = eg.Wait()

	return rebuilt, nil
}
