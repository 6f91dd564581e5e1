package config

// SearchConfig holds the tunables for HybridSearcher's reciprocal rank
// fusion: the result limit, the score floor, the three leg weights (FTS,
// vector, recency) and the RRF constant k.
type SearchConfig struct {
	Limit         int     `yaml:"limit" json:"limit"`
	MinScore      float64 `yaml:"min_score" json:"min_score"`
	WeightFts     float64 `yaml:"weight_fts" json:"weight_fts"`
	WeightVector  float64 `yaml:"weight_vector" json:"weight_vector"`
	WeightRecency float64 `yaml:"weight_recency" json:"weight_recency"`
	RrfK          int     `yaml:"rrf_k" json:"rrf_k"`
}

// DefaultSearchConfig reproduces the stated defaults: limit 5, minScore
// 0.3, weights 0.3/0.5/0.2, rrfK 60.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Limit:         5,
		MinScore:      0.3,
		WeightFts:     0.3,
		WeightVector:  0.5,
		WeightRecency: 0.2,
		RrfK:          60,
	}
}
