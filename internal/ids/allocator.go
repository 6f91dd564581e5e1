// Package ids allocates sequential typed identifiers (dec-001, inc-001, ...).
package ids

import (
	"fmt"
	"strconv"
	"strings"

	"knowvault/internal/knowerrors"
)

// Prefix maps a knowledge type to its id prefix.
var Prefix = map[string]string{
	"decision": "dec",
	"incident": "inc",
	"entity":   "entity",
	"pattern":  "pat",
	"workflow": "wf",
	"note":     "note",
	"session":  "session",
}

// ExistingIDsFunc returns every currently allocated id of the given prefix
// (e.g. all ids beginning "dec-"). The allocator looks at the maximum
// numeric suffix among these and never at a count, so gaps left by
// deletions are tolerated.
type ExistingIDsFunc func(prefix string) ([]string, error)

// Allocator is non-transactional: callers requiring uniqueness under
// concurrency must wrap Next and the subsequent insert in one transaction.
type Allocator struct {
	existing ExistingIDsFunc
}

func New(existing ExistingIDsFunc) *Allocator {
	return &Allocator{existing: existing}
}

// Next returns the next id for knowledgeType, zero-padded to 3 digits.
func (a *Allocator) Next(knowledgeType string) (string, error) {
	prefix, ok := Prefix[knowledgeType]
	if !ok {
		return "", knowerrors.NewInvalidType(knowledgeType)
	}

	ids, err := a.existing(prefix)
	if err != nil {
		return "", knowerrors.NewIOError(prefix, err)
	}

	max := 0
	for _, id := range ids {
		n, ok := suffixOf(id, prefix)
		if ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, max+1), nil
}

func suffixOf(id, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
