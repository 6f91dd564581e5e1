package knowledge

// ConnectionInput is a connection supplied by a caller when creating or
// linking entries.
type ConnectionInput struct {
	Target string
	Type   string
	Note   string
}

// Connection is a connection as reported back to a caller, including the
// direction-agnostic type actually stored.
type Connection struct {
	Target string
	Type   string
	Note   string
}

// Entry is the coordinator's public view of a knowledge entry, joining the
// row-level SqliteIndex fields with its graph edges.
type Entry struct {
	ID          string
	FilePath    string
	Title       string
	Type        string
	Content     string
	Tags        []string
	Connections []Connection
	CreatedAt   string
	UpdatedAt   string
	AccessCount int64
}

// CreateInput is the payload for Store.Create.
type CreateInput struct {
	Title       string
	Type        string
	Content     string
	Tags        []string
	Connections []ConnectionInput
}

// CreateResult is returned by Store.Create.
type CreateResult struct {
	ID                   string
	FilePath             string
	SuggestedConnections []SearchResult
	ExistingTags         []string
}

// UpdateResult is returned by Store.Update.
type UpdateResult struct {
	Success              bool
	Diff                 string
	Indexed              bool
	SuggestedConnections []SearchResult
}

// Source labels which store in a MultiStore a result or write came from.
type Source string

const (
	SourceProject Source = "project"
	SourceGlobal  Source = "global"
)

// SearchResult is one ranked, enriched hit from Store.Search.
type SearchResult struct {
	ID          string
	Title       string
	Content     string
	Tags        []string
	Connections []Connection
	Score       float64
	MatchType   string // "fts", "vector", or "hybrid"
	StoreSource string // "project" or "global" in MultiStore mode
}

// SearchOptions narrows a Store.Search call beyond the underlying ranking
// weights: a tag filter, a connected-to filter, and a result cap.
type SearchOptions struct {
	Limit       int
	MinScore    float64
	Tags        []string
	ConnectedTo string
}

// TraverseResult is one node discovered by Store.Traverse.
type TraverseResult struct {
	ID             string
	Title          string
	Type           string
	ConnectionType string
	Distance       int
}
