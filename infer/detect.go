package infer

import (
	"context"

	"github.com/relspect/relspect/catalog"
	"github.com/relspect/relspect/naming"
)

// analysis is the shared, read-only state one detection pass runs over.
// Detectors are pure functions of it, so per-table analyses can run
// concurrently without locking.
type analysis struct {
	cat     *catalog.Catalog
	res     *naming.Resolver
	sampler catalog.DistinctValueSampler
	opts    Options
}

// detector produces the candidates of one relationship kind for a
// table. The set of detectors is closed: adding a kind means adding a
// variant to Kind and an entry here, which keeps the merge step
// exhaustive.
type detector func(ctx context.Context, a *analysis, t catalog.Table) []Candidate

//nolint:gochecknoglobals
var detectors = []detector{
	detectBelongsTo,
	detectHasOne,
	detectHasMany,
	detectBelongsToMany,
	detectMorphTo,
	detectMorphOneMany,
}

func (a *analysis) softDeleteColumn() string {
	if a.opts.SoftDeleteColumn != "" {
		return a.opts.SoftDeleteColumn
	}

	return "deleted_at"
}

func (a *analysis) sampleLimit() int {
	if a.opts.SampleLimit > 0 {
		return a.opts.SampleLimit
	}

	return defaultSampleLimit
}

// defaultSampleLimit caps distinct-value sampling so a polymorphic-type
// scan cannot degrade into a full table scan.
const defaultSampleLimit = 100
