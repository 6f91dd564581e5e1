package config

// ConsolidatorConfig tunes the Consolidator's categorisation and
// duplicate/supersession detection. Keyword lists are data, not code,
// since category vocabulary mixes languages and grows with use.
type ConsolidatorConfig struct {
	CategoryKeywords     map[string][]string `yaml:"category_keywords" json:"category_keywords"`
	SupersessionKeywords []string            `yaml:"supersession_keywords" json:"supersession_keywords"`
	DuplicateThreshold   float64             `yaml:"duplicate_threshold" json:"duplicate_threshold"`
	SupersessionMin      float64             `yaml:"supersession_min" json:"supersession_min"`
	SupersessionMax      float64             `yaml:"supersession_max" json:"supersession_max"`
	MinNoteLength        int                 `yaml:"min_note_length" json:"min_note_length"`
	SuggestionLimit      int                 `yaml:"suggestion_limit" json:"suggestion_limit"`
}

// DefaultConsolidatorConfig mirrors the thresholds named in the
// categorisation design: Jaccard >= 0.6 for duplicates, [0.25, 0.6) plus a
// supersession keyword for supersession, 80-character floor for
// file-worthy notes, and a supersession keyword list mixing English and
// German phrasing.
func DefaultConsolidatorConfig() ConsolidatorConfig {
	return ConsolidatorConfig{
		CategoryKeywords: map[string][]string{
			"decision": {"decided", "decision", "we will", "chose", "choosing", "going with", "approach"},
			"incident": {"outage", "broke", "failed", "bug", "incident", "crash", "error"},
			"workflow": {"steps", "process", "workflow", "procedure", "runbook", "how to"},
			"fact":     {"is a", "refers to", "defined as", "means"},
			"note":     {},
		},
		SupersessionKeywords: []string{
			"replaces", "supersedes", "deprecated", "obsolete", "no longer",
			"nicht mehr", "ersetzt durch", "veraltet",
		},
		DuplicateThreshold: 0.6,
		SupersessionMin:    0.25,
		SupersessionMax:    0.6,
		MinNoteLength:      80,
		SuggestionLimit:    5,
	}
}
