// Package pathpolicy maps knowledge types to on-disk directories and file
// names, and guards every caller-supplied path against traversal outside
// the store's base directory.
package pathpolicy

import (
	"fmt"
	"path/filepath"
	"strings"

	"knowvault/internal/knowerrors"
)

// Dir maps a knowledge type to its directory under baseDir.
var Dir = map[string]string{
	"decision": "semantic/decisions",
	"entity":   "semantic/entities",
	"note":     "semantic/notes",
	"incident": "episodic/incidents",
	"session":  "episodic/sessions",
	"pattern":  "procedural/patterns",
	"workflow": "procedural/workflows",
}

const maxSlugLen = 50

var umlauts = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "ae", "Ö", "oe", "Ü", "ue",
)

// Slug lowercases title, expands German umlauts, collapses non-alphanumerics
// to '-', strips leading/trailing '-', and caps length at 50.
func Slug(title string) string {
	s := strings.ToLower(umlauts.Replace(title))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > maxSlugLen {
		out = strings.TrimRight(out[:maxSlugLen], "-")
	}
	return out
}

// FileName returns "{id}-{slug(title)}.md".
func FileName(id, title string) string {
	return fmt.Sprintf("%s-%s.md", id, Slug(title))
}

// RelPath returns the path of a new entry's file, relative to baseDir.
func RelPath(knowledgeType, id, title string) (string, error) {
	dir, ok := Dir[knowledgeType]
	if !ok {
		return "", knowerrors.NewInvalidType(knowledgeType)
	}
	return filepath.Join(dir, FileName(id, title)), nil
}

// Resolve canonicalises a caller-supplied relative path against baseDir and
// rejects it with PathTraversal if the result escapes baseDir.
func Resolve(baseDir, relPath string) (string, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", knowerrors.NewIOError(relPath, err)
	}
	joined := filepath.Join(base, relPath)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", knowerrors.NewIOError(relPath, err)
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", knowerrors.NewPathTraversal(relPath)
	}
	return abs, nil
}
