package discount

import (
	"context"
	"sort"
)

// Static is an in-memory Source.
type Static struct {
	defs []Definition
}

// NewStatic builds a Static source. Definitions are kept sorted by ID.
func NewStatic(defs ...Definition) *Static {
	sorted := append([]Definition(nil), defs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &Static{defs: sorted}
}

// DefinitionsByType implements Source.
func (s *Static) DefinitionsByType(_ context.Context, t Type) ([]Definition, error) {
	out := []Definition{}
	if s == nil {
		return out, nil
	}
	for _, d := range s.defs {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out, nil
}
