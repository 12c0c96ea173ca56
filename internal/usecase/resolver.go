package usecase

import (
	"context"
	"fmt"
	"strings"

	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
)

// Lookup is the read side of the platform used to resolve entities.
type Lookup interface {
	ports.InstrumentDirectory
	ports.SourceProbe
	ports.ClassificationProbe
}

// Resolver maps alert fields onto existing platform entities.
type Resolver struct {
	lookup Lookup
}

// NewResolver wraps a platform lookup.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// ResolveInstrument returns the first registered instrument, in listing order,
// whose lowercased name contains any of the candidate names lowercased.
func (r *Resolver) ResolveInstrument(ctx context.Context, names []string) (domain.Instrument, error) {
	registered, err := r.lookup.ListInstruments(ctx)
	if err != nil {
		return domain.Instrument{}, err
	}

	for _, inst := range registered {
		have := strings.ToLower(inst.Name)
		for _, name := range names {
			want := strings.ToLower(strings.TrimSpace(name))
			if want != "" && strings.Contains(have, want) {
				return inst, nil
			}
		}
	}

	return domain.Instrument{}, fmt.Errorf("%w: %s", domain.ErrInstrumentNotFound, strings.Join(names, ", "))
}

// SourceExists reports whether objectID is already a source.
func (r *Resolver) SourceExists(ctx context.Context, objectID string) (bool, error) {
	return r.lookup.SourceExists(ctx, objectID)
}

// ExistingClassification returns the first classification attached to objectID.
func (r *Resolver) ExistingClassification(ctx context.Context, objectID string) (domain.ClassificationRef, bool, error) {
	refs, err := r.lookup.ListClassifications(ctx, objectID)
	if err != nil {
		return domain.ClassificationRef{}, false, err
	}
	if len(refs) == 0 {
		return domain.ClassificationRef{}, false, nil
	}
	return refs[0], true, nil
}
