// Package consolidate turns a batch of freeform session notes into an
// ordered plan of store actions: file new entries, skip duplicates, mark
// supersessions, and normalise tags. Building the plan is pure; executing
// it against a knowledge store is the caller's job.
package consolidate

import (
	"context"
	"regexp"
	"strings"

	"knowvault/internal/config"
	"knowvault/internal/knowledge"
	"knowvault/internal/logging"
)

var tokenPattern = regexp.MustCompile(`[a-zA-ZäöüÄÖÜß]+`)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true, "to": true, "of": true, "in": true, "for": true, "on": true, "with": true,
	"at": true, "by": true, "from": true, "as": true, "and": true, "but": true, "or": true,
	"so": true, "if": true, "then": true, "it": true, "its": true, "this": true, "that": true,
	"we": true, "i": true, "you": true, "der": true, "die": true, "das": true, "und": true,
	"ist": true, "ein": true, "eine": true, "nicht": true, "zu": true, "mit": true,
}

// ActionKind identifies the single thing one plan step does to the store.
type ActionKind string

const (
	ActionCreateFile    ActionKind = "create_file"
	ActionSkipDuplicate ActionKind = "skip_duplicate"
	ActionSubsume       ActionKind = "subsume"
	ActionNormalizeTags ActionKind = "normalize_tags"
)

// Action is one ordered step of a consolidation plan.
type Action struct {
	Kind ActionKind

	// Populated for ActionCreateFile.
	Title    string
	Type     string
	Content  string
	Tags     []string

	// Populated for ActionSkipDuplicate / ActionSubsume: the existing entry
	// the note relates to.
	ExistingID string
	Similarity float64

	// Populated for ActionNormalizeTags: the tag set a skipped/merged note
	// still contributes.
	NormalizedTags []string

	Note string // the source note text, for traceability in dry-run output
}

// Plan is the ordered sequence of actions a Consolidate call produces.
type Plan struct {
	Actions []Action
}

// ExistingEntry is the minimal view of a stored entry the consolidator
// needs for duplicate/supersession comparison.
type ExistingEntry struct {
	ID      string
	Content string
	Tags    []string
}

// Consolidate scores each note against categoryKeywords, checks it for
// duplication/supersession against existing, and emits an ordered Plan.
func Consolidate(cfg config.ConsolidatorConfig, notes []string, existing []ExistingEntry) *Plan {
	plan := &Plan{}
	for _, note := range notes {
		action := classifyNote(cfg, note, existing)
		plan.Actions = append(plan.Actions, action)
		logging.ConsolidateDebug("note classified as %s (len=%d)", action.Kind, len(note))
	}
	return plan
}

func classifyNote(cfg config.ConsolidatorConfig, note string, existing []ExistingEntry) Action {
	noteTokens := tokenize(note)
	noteTags := deriveTags(noteTokens)

	bestID := ""
	bestSim := 0.0
	for _, e := range existing {
		sim := jaccard(noteTokens, tokenize(e.Content))
		if sim > bestSim {
			bestSim = sim
			bestID = e.ID
		}
	}

	if bestID != "" && bestSim >= cfg.DuplicateThreshold {
		return Action{Kind: ActionSkipDuplicate, ExistingID: bestID, Similarity: bestSim, NormalizedTags: noteTags, Note: note}
	}
	if bestID != "" && bestSim >= cfg.SupersessionMin && bestSim < cfg.SupersessionMax && hasSupersessionKeyword(cfg, note) {
		return Action{Kind: ActionSubsume, ExistingID: bestID, Similarity: bestSim, NormalizedTags: noteTags, Note: note}
	}

	category := categorize(cfg, note)
	if category == "fact" {
		return Action{Kind: ActionNormalizeTags, NormalizedTags: noteTags, Note: note}
	}
	if category == "" && len(note) < cfg.MinNoteLength {
		return Action{Kind: ActionNormalizeTags, NormalizedTags: noteTags, Note: note}
	}
	if category == "" {
		category = "note"
	}

	return Action{
		Kind:    ActionCreateFile,
		Title:   deriveTitle(note),
		Type:    entryTypeFor(category),
		Content: note,
		Tags:    noteTags,
		Note:    note,
	}
}

// categorize scores the raw note text against each category's keyword
// phrase list and returns the category with the most keyword hits, or ""
// when no category scores above zero. Matching runs against the original
// text, not the stopword-filtered token set, since several keyword
// phrases ("we will", "is a", "defined as") are built entirely out of
// words tokenize() would otherwise drop.
func categorize(cfg config.ConsolidatorConfig, note string) string {
	lower := strings.ToLower(note)

	best := ""
	bestScore := 0
	for category, keywords := range cfg.CategoryKeywords {
		score := 0
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = category
		}
	}
	return best
}

// entryTypeFor maps a consolidation category to the knowledge type used by
// the store's path policy and id allocator. "fact" never reaches here: it
// short-circuits to ActionNormalizeTags before a file is ever considered.
func entryTypeFor(category string) string {
	switch category {
	case "decision":
		return "decision"
	case "incident":
		return "incident"
	case "workflow":
		return "workflow"
	default:
		return "note"
	}
}

func hasSupersessionKeyword(cfg config.ConsolidatorConfig, note string) bool {
	lower := strings.ToLower(note)
	for _, kw := range cfg.SupersessionKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// tokenize lowercases, regex-splits on letter runs (umlauts included), and
// drops stopwords, mirroring the extraction idiom this codebase already
// applies to free-text search.
func tokenize(text string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if len(tok) <= 2 || stopwords[tok] {
			continue
		}
		out[tok] = true
	}
	return out
}

// jaccard is |A∩B| / |A∪B| over two token sets; two empty sets are
// considered maximally dissimilar (0), not a divide-by-zero 1.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if b[t] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// deriveTags returns up to five of the note's tokens as a small flat tag
// set. The tokens come from a set, so which five are picked follows map
// iteration order and is not defined. Real hierarchical tagging is left to
// the author via explicit frontmatter, this is only a starting suggestion.
func deriveTags(tokens map[string]bool) []string {
	tags := make([]string, 0, len(tokens))
	for t := range tokens {
		tags = append(tags, t)
		if len(tags) >= 5 {
			break
		}
	}
	return tags
}

// deriveTitle takes the first sentence (or first 60 characters) of a note
// as its working title; the author edits it on review.
func deriveTitle(note string) string {
	note = strings.TrimSpace(note)
	if idx := strings.IndexAny(note, ".\n"); idx > 0 && idx < 80 {
		return note[:idx]
	}
	if len(note) > 60 {
		return note[:60]
	}
	return note
}

// Execute runs a Plan's create_file actions against a knowledge store.
// skip_duplicate/subsume/normalize_tags actions touch only tags, which the
// caller applies to the existing entry named by ExistingID (subsume also
// expects the caller to record a supersedes connection from the new
// context to ExistingID once the entry exists).
func Execute(ctx context.Context, store *knowledge.Store, plan *Plan) ([]knowledge.CreateResult, error) {
	var results []knowledge.CreateResult
	for _, action := range plan.Actions {
		if action.Kind != ActionCreateFile {
			continue
		}
		result, err := store.Create(ctx, knowledge.CreateInput{
			Title:   action.Title,
			Type:    action.Type,
			Content: action.Content,
			Tags:    action.Tags,
		})
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}
