package knowledge

import (
	"context"
	"sort"
)

// MultiStore fans Search and Traverse across a project store and a global
// store, tagging each result with its origin, while routing every write to
// the project store. Used when an agent wants entries shared across
// projects (global) layered underneath project-local notes.
type MultiStore struct {
	project *Store
	global  *Store
}

// NewMultiStore pairs a project-scoped Store with a global one. global may
// be nil, in which case MultiStore behaves exactly like project alone.
func NewMultiStore(project, global *Store) *MultiStore {
	return &MultiStore{project: project, global: global}
}

func (m *MultiStore) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	return m.project.Create(ctx, input)
}

func (m *MultiStore) Read(id string) (*Entry, error) {
	entry, err := m.project.Read(id)
	if err == nil {
		return entry, nil
	}
	if m.global == nil {
		return nil, err
	}
	return m.global.Read(id)
}

func (m *MultiStore) Update(ctx context.Context, relPath, content, reason string) (*UpdateResult, error) {
	return m.project.Update(ctx, relPath, content, reason)
}

func (m *MultiStore) Delete(ctx context.Context, id string) error {
	return m.project.Delete(ctx, id)
}

func (m *MultiStore) Connect(ctx context.Context, sourceID, targetID, connType, note string) error {
	return m.project.Connect(ctx, sourceID, targetID, connType, note)
}

func (m *MultiStore) Traverse(startID string, dir Direction, depth int, types []string) ([]TraverseResult, error) {
	hits, err := m.project.Traverse(startID, dir, depth, types)
	if err != nil {
		return nil, err
	}
	if m.global == nil {
		return hits, nil
	}
	if globalHits, err := m.global.Traverse(startID, dir, depth, types); err == nil {
		hits = append(hits, globalHits...)
	}
	return hits, nil
}

// Search runs the query against both stores and merges results sorted by
// score, tagging each with its storeSource. The project store's own write
// budget still governs TouchAccess for its hits; the global store touches
// its own hits independently.
func (m *MultiStore) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, int, error) {
	projectResults, _, err := m.project.Search(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	for i := range projectResults {
		projectResults[i].StoreSource = string(SourceProject)
	}
	if m.global == nil {
		return projectResults, len(projectResults), nil
	}

	globalResults, _, err := m.global.Search(ctx, query, opts)
	if err != nil {
		return projectResults, len(projectResults), nil
	}
	for i := range globalResults {
		globalResults[i].StoreSource = string(SourceGlobal)
	}

	merged := append(projectResults, globalResults...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })

	limit := opts.Limit
	if limit <= 0 {
		limit = len(merged)
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, len(merged), nil
}
