package store

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"sort"
	"time"

	"knowvault/internal/knowerrors"
	"knowvault/internal/logging"
)

// SearchOptions configures a single hybrid search call; Hybrid replaces
// zero values with DefaultSearchOptions' defaults (the three weights only
// when all three are zero).
type SearchOptions struct {
	Limit         int
	MinScore      float64
	WeightFts     float64
	WeightVector  float64
	WeightRecency float64
	RrfK          int
}

// DefaultSearchOptions mirrors the defaults named in the fusion design:
// limit 5, minScore 0.3, weights 0.3/0.5/0.2, rrfK 60.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:         5,
		MinScore:      0.3,
		WeightFts:     0.3,
		WeightVector:  0.5,
		WeightRecency: 0.2,
		RrfK:          60,
	}
}

func (o SearchOptions) withDefaults() SearchOptions {
	d := DefaultSearchOptions()
	if o.Limit <= 0 {
		o.Limit = d.Limit
	}
	if o.MinScore == 0 {
		o.MinScore = d.MinScore
	}
	if o.WeightFts == 0 && o.WeightVector == 0 && o.WeightRecency == 0 {
		o.WeightFts, o.WeightVector, o.WeightRecency = d.WeightFts, d.WeightVector, d.WeightRecency
	}
	if o.RrfK <= 0 {
		o.RrfK = d.RrfK
	}
	return o
}

// SearchHit is one ranked result from Hybrid.
type SearchHit struct {
	ID         string
	Score      float64
	VectorOnly bool
}

// EncodeVector serialises a float32 vector as a little-endian byte blob,
// the wire format entries_vec stores embeddings in.
func EncodeVector(vec []float32) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(len(vec) * 4)
	_ = binary.Write(buf, binary.LittleEndian, vec)
	return buf.Bytes()
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	_ = binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec)
	return vec
}

// UpsertVector writes or replaces the embedding for an entry. A vector
// whose length does not match the index's configured dimension is
// rejected rather than silently truncated or padded.
func (idx *Index) UpsertVector(entryID string, vec []float32) error {
	if len(vec) != idx.dim {
		return knowerrors.NewDimensionMismatch(entryID, nil)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	var rowID int64
	if err := idx.db.QueryRow(`SELECT rowid FROM entries WHERE id = ?`, entryID).Scan(&rowID); err != nil {
		if err == sql.ErrNoRows {
			return knowerrors.NewNotFound(entryID)
		}
		return knowerrors.NewIOError(entryID, err)
	}

	if _, err := idx.db.Exec(`DELETE FROM entries_vec WHERE rowid = ?`, rowID); err != nil {
		return knowerrors.NewIOError(entryID, err)
	}
	if _, err := idx.db.Exec(
		`INSERT INTO entries_vec(rowid, embedding, content, metadata) VALUES (?, ?, '', ?)`,
		rowID, EncodeVector(vec), entryID,
	); err != nil {
		return knowerrors.NewIOError(entryID, err)
	}
	return nil
}

// Hybrid runs the fused FTS+vector search described in the hybrid search
// design: pull poolSize = 3*limit candidates from each leg, rank within
// each leg, combine with reciprocal rank fusion plus a recency term, drop
// anything under minScore, sort, and truncate to limit.
func (idx *Index) Hybrid(queryText string, queryVector []float32, opts SearchOptions) ([]SearchHit, error) {
	opts = opts.withDefaults()
	poolSize := opts.Limit * 3

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ftsRanks, vectorOnly := idx.ftsRankLocked(queryText, poolSize)
	vecRanks, err := idx.vectorRankLocked(queryVector, poolSize)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool)
	for id := range ftsRanks {
		ids[id] = true
	}
	for id := range vecRanks {
		ids[id] = true
	}

	sentinelFts := len(ftsRanks) + 1
	sentinelVec := len(vecRanks) + 1

	hits := make([]SearchHit, 0, len(ids))
	for id := range ids {
		rf, ok := ftsRanks[id]
		if !ok {
			rf = sentinelFts
		}
		rv, ok := vecRanks[id]
		if !ok {
			rv = sentinelVec
		}
		rec := idx.recencyLocked(id)

		score := opts.WeightFts/float64(opts.RrfK+rf) +
			opts.WeightVector/float64(opts.RrfK+rv) +
			opts.WeightRecency*rec

		if score < opts.MinScore {
			continue
		}
		hits = append(hits, SearchHit{ID: id, Score: score, VectorOnly: vectorOnly})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		ui, uj := idx.updatedAtLocked(hits[i].ID), idx.updatedAtLocked(hits[j].ID)
		if ui != uj {
			return ui > uj
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

// ftsRankLocked returns a 1-based rank per entry id from BM25 full-text
// search. A tokenizer-rejected query (FtsSyntax) degrades to an empty FTS
// leg and reports vectorOnly=true rather than failing the whole search.
func (idx *Index) ftsRankLocked(queryText string, poolSize int) (map[string]int, bool) {
	if queryText == "" {
		return map[string]int{}, false
	}

	rows, err := idx.db.Query(
		`SELECT e.id FROM entries_fts f
		 JOIN entries e ON e.rowid = f.rowid
		 WHERE entries_fts MATCH ?
		 ORDER BY bm25(entries_fts) ASC
		 LIMIT ?`, queryText, poolSize,
	)
	if err != nil {
		logging.StoreDebug("fts query rejected, falling back to vector-only: %v", err)
		return map[string]int{}, true
	}
	defer rows.Close()

	ranks := make(map[string]int)
	rank := 1
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ranks[id] = rank
		rank++
	}
	return ranks, false
}

// vectorRankLocked returns a 1-based rank per entry id from cosine
// distance over entries_vec. A nil/empty query vector yields an empty
// leg rather than an error, since text-only queries are valid.
func (idx *Index) vectorRankLocked(queryVector []float32, poolSize int) (map[string]int, error) {
	if len(queryVector) == 0 {
		return map[string]int{}, nil
	}

	rows, err := idx.db.Query(
		`SELECT e.id, v.embedding FROM entries_vec v JOIN entries e ON e.rowid = v.rowid`,
	)
	if err != nil {
		return nil, knowerrors.NewIOError("", err)
	}
	defer rows.Close()

	type scored struct {
		id    string
		score float64
	}
	var candidates []scored
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			continue
		}
		vec := DecodeVector(blob)
		candidates = append(candidates, scored{id: id, score: CosineSimilarity(queryVector, vec)})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > poolSize {
		candidates = candidates[:poolSize]
	}

	ranks := make(map[string]int, len(candidates))
	for i, c := range candidates {
		ranks[c.id] = i + 1
	}
	return ranks, nil
}

// recencyLocked computes 1/(1 + days_since_update/365); entries with an
// unparseable or missing updated_at get a recency factor of 0.
func (idx *Index) recencyLocked(id string) float64 {
	var updatedAt string
	if err := idx.db.QueryRow(`SELECT updated_at FROM entries WHERE id = ?`, id).Scan(&updatedAt); err != nil {
		return 0
	}
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return 0
	}
	days := time.Since(t).Hours() / 24
	if days < 0 {
		days = 0
	}
	return 1 / (1 + days/365)
}

func (idx *Index) updatedAtLocked(id string) string {
	var updatedAt string
	_ = idx.db.QueryRow(`SELECT updated_at FROM entries WHERE id = ?`, id).Scan(&updatedAt)
	return updatedAt
}
