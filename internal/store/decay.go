package store

import (
	"sort"
	"time"

	"knowvault/internal/knowerrors"
)

// DecayConfig tunes DecayCandidates: how long an entry of a given type may
// go untouched before it is eligible for archival, and how much access
// activity disqualifies it regardless of age.
type DecayConfig struct {
	GracePeriod        map[string]time.Duration
	DefaultGracePeriod time.Duration
	MaxAccessCount     int64
}

// DefaultDecayConfig weights incidents and sessions for faster decay than
// decisions and entities, which tend to stay relevant longer.
func DefaultDecayConfig() DecayConfig {
	return DecayConfig{
		GracePeriod: map[string]time.Duration{
			"decision": 180 * 24 * time.Hour,
			"entity":   365 * 24 * time.Hour,
			"pattern":  180 * 24 * time.Hour,
			"workflow": 180 * 24 * time.Hour,
			"note":     90 * 24 * time.Hour,
			"incident": 60 * 24 * time.Hour,
			"session":  30 * 24 * time.Hour,
		},
		DefaultGracePeriod: 90 * 24 * time.Hour,
		MaxAccessCount:     2,
	}
}

func (c DecayConfig) graceFor(entryType string) time.Duration {
	if d, ok := c.GracePeriod[entryType]; ok {
		return d
	}
	return c.DefaultGracePeriod
}

// DecayCandidate is one proposed archival target. It never causes a
// delete on its own; the caller decides whether to act on it.
type DecayCandidate struct {
	ID          string
	Title       string
	Type        string
	LastActive  time.Time
	AccessCount int64
	Reason      string
}

// DecayCandidates proposes entries whose last activity predates their
// type's grace period, whose access_count sits at or below the ceiling,
// and whose active connection count (supersession edges excluded) is
// zero. It returns a ranked list, oldest-last-active first; it never
// deletes anything.
func (idx *Index) DecayCandidates(cfg DecayConfig) ([]DecayCandidate, error) {
	entries, err := idx.List("")
	if err != nil {
		return nil, err
	}

	var out []DecayCandidate
	for _, e := range entries {
		lastActive, err := parseLastActive(e)
		if err != nil {
			continue
		}

		if e.AccessCount > cfg.MaxAccessCount {
			continue
		}
		if time.Since(lastActive) < cfg.graceFor(e.Type) {
			continue
		}

		activeConns, err := idx.GetActiveConnectionCount(e.ID)
		if err != nil {
			return nil, err
		}
		if activeConns > 0 {
			continue
		}

		out = append(out, DecayCandidate{
			ID:          e.ID,
			Title:       e.Title,
			Type:        e.Type,
			LastActive:  lastActive,
			AccessCount: e.AccessCount,
			Reason:      "no access or connections within grace period",
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].LastActive.Before(out[j].LastActive) })
	return out, nil
}

func parseLastActive(e *EntryRow) (time.Time, error) {
	if e.LastAccessed.Valid && e.LastAccessed.String != "" {
		if t, err := time.Parse(time.RFC3339, e.LastAccessed.String); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339, e.CreatedAt)
	if err != nil {
		return time.Time{}, knowerrors.NewIOError(e.ID, err)
	}
	return t, nil
}
