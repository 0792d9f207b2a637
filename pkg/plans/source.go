package plans

import (
	"context"
	"maps"
)

// Source defines how plans are loaded into a catalog.
type Source interface {
	Load(ctx context.Context) ([]Plan, error)
}

type inMemSource struct {
	plans []Plan
}

// NewInMemSource returns an in-memory Source with a deep copy of the given
// plans. Panics if no plans are provided so the catalog is never empty.
func NewInMemSource(plans ...Plan) Source {
	if len(plans) == 0 {
		panic("plans: at least one plan is required")
	}
	return &inMemSource{plans: clonePlans(plans)}
}

// Load returns a copy of the plans, keeping the source's state immutable.
func (s *inMemSource) Load(_ context.Context) ([]Plan, error) {
	return clonePlans(s.plans), nil
}

func clonePlans(in []Plan) []Plan {
	out := make([]Plan, len(in))
	for i, p := range in {
		p.Quotas = maps.Clone(p.Quotas)
		p.PriceIDs = maps.Clone(p.PriceIDs)
		out[i] = p
	}
	return out
}
