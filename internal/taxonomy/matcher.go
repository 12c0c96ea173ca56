// Package taxonomy maps stream classification labels onto the platform's taxonomy tree.
package taxonomy

import (
	"context"
	"fmt"

	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
)

// DefaultPrefixes are the external-catalog tags the broker prepends to cross-matched labels.
var DefaultPrefixes = []string{"(SIMBAD) ", "(TNS) "}

// Result is either Found with a canonical class name or NotFound.
type Result struct {
	name  string
	found bool
}

// NotFound is the result of a label absent from every branch.
var NotFound = Result{}

// Found wraps a canonical class name.
func Found(name string) Result {
	return Result{name: name, found: true}
}

// Name returns the canonical class name and whether the label was matched.
func (r Result) Name() (string, bool) {
	return r.name, r.found
}

// Found reports whether the label was matched.
func (r Result) Found() bool {
	return r.found
}

func (r Result) String() string {
	if !r.found {
		return "NotFound"
	}
	return fmt.Sprintf("Found(%s)", r.name)
}

// Matcher resolves labels against the taxonomy currently stored on the platform.
// The tree is fetched on every call so that taxonomy edits apply to the next alert.
type Matcher struct {
	reader   ports.TaxonomyReader
	prefixes []string
}

// NewMatcher builds a matcher; nil prefixes select DefaultPrefixes.
func NewMatcher(reader ports.TaxonomyReader, prefixes []string) *Matcher {
	if prefixes == nil {
		prefixes = DefaultPrefixes
	}
	return &Matcher{reader: reader, prefixes: prefixes}
}

// Resolve fetches the taxonomy and searches it for label.
func (m *Matcher) Resolve(ctx context.Context, label string, taxonomyID int) (Result, error) {
	if taxonomyID <= 0 {
		return NotFound, domain.ErrTaxonomyNotConfigured
	}
	if label == "" {
		return NotFound, nil
	}

	tax, err := m.reader.GetTaxonomy(ctx, taxonomyID)
	if err != nil {
		return NotFound, fmt.Errorf("fetch taxonomy %d: %w", taxonomyID, err)
	}

	return Match(tax.Hierarchy, label, m.prefixes), nil
}

// Match walks the tree depth-first in document order and returns the first node whose
// class name or alias equals label, either verbatim or with one of the catalog prefixes.
func Match(root domain.TaxonomyNode, label string, prefixes []string) Result {
	stack := []*domain.TaxonomyNode{&root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if nameMatches(node.Class, label, prefixes) {
			return Found(node.Class)
		}
		for _, alias := range node.OtherNames {
			if nameMatches(alias, label, prefixes) {
				return Found(node.Class)
			}
		}

		// reversed so the first child is popped first
		for i := len(node.Subclasses) - 1; i >= 0; i-- {
			stack = append(stack, &node.Subclasses[i])
		}
	}
	return NotFound
}

func nameMatches(name, label string, prefixes []string) bool {
	if name == label {
		return true
	}
	for _, prefix := range prefixes {
		if name == prefix+label {
			return true
		}
	}
	return false
}
