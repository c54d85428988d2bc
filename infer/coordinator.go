package infer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/relspect/relspect/catalog"
	"github.com/relspect/relspect/naming"
)

// MorphPolicy decides what happens to a structural polymorphic match
// when distinct-value sampling is unavailable.
type MorphPolicy string

const (
	// MorphAcceptUnsampled emits the candidate with low confidence.
	// This is the default.
	MorphAcceptUnsampled MorphPolicy = "accept-unsampled"
	// MorphRejectUnsampled drops candidates that data could not confirm.
	MorphRejectUnsampled MorphPolicy = "reject-unsampled"
)

// Override is one explicitly declared relationship, layered on top of
// auto-detection with precedence.
type Override struct {
	Kind string `koanf:"kind" yaml:"kind" json:"kind"`
	// Related table name, or model-style name
	Related    string `koanf:"related" yaml:"related" json:"related"`
	ForeignKey string `koanf:"foreign_key" yaml:"foreign_key" json:"foreign_key"`
	OwnerKey   string `koanf:"owner_key" yaml:"owner_key" json:"owner_key"`
	Method     string `koanf:"method" yaml:"method" json:"method"`
	Comment    string `koanf:"comment" yaml:"comment" json:"comment"`
}

// Options configure a Coordinator. The zero value uses default naming
// patterns, no overrides, no sampler and a single worker.
type Options struct {
	Patterns  naming.Patterns
	Overrides map[string][]Override

	// Sampler is the optional live-data capability; absent by default
	Sampler catalog.DistinctValueSampler

	MorphPolicy      MorphPolicy
	SoftDeleteColumn string
	SampleLimit      int
	Concurrency      int
}

// Coordinator orchestrates all detectors for a table, merges custom
// overrides, deduplicates method names, wires bidirectional mappings
// and runs the cross-cutting structural analyses. It holds no mutable
// state: every Analyze call is a pure function of the snapshot, the
// configuration and the target table.
type Coordinator struct {
	a     *analysis
	graph *Graph

	// Custom candidates per table, built once at construction
	custom map[string][]Candidate
}

// New validates the configuration eagerly, so that malformed overrides
// and naming templates surface before any Analyze call, and builds the
// relationship graph once for the snapshot.
func New(cat *catalog.Catalog, opts Options) (*Coordinator, error) {
	if len(opts.Patterns.ForeignKeyTemplates) == 0 && opts.Patterns.MorphTypeSuffix == "" {
		opts.Patterns = naming.DefaultPatterns()
	}
	if opts.MorphPolicy == "" {
		opts.MorphPolicy = MorphAcceptUnsampled
	}

	res, err := naming.NewResolver(opts.Patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid naming configuration: %w", err)
	}

	c := &Coordinator{
		a: &analysis{
			cat:     cat,
			res:     res,
			sampler: opts.Sampler,
			opts:    opts,
		},
		graph: NewGraph(cat),
	}

	if c.custom, err = c.buildCustom(opts.Overrides); err != nil {
		return nil, err
	}

	return c, nil
}

// buildCustom converts user-supplied overrides into candidates,
// validating them in the process.
func (c *Coordinator) buildCustom(overrides map[string][]Override) (map[string][]Candidate, error) {
	custom := make(map[string][]Candidate, len(overrides))

	for table, decls := range overrides {
		if _, ok := c.a.cat.Get(table); !ok {
			return nil, fmt.Errorf("override for unknown table %q", table)
		}

		for _, decl := range decls {
			cand, err := c.overrideCandidate(table, decl)
			if err != nil {
				return nil, fmt.Errorf("override on table %q: %w", table, err)
			}
			custom[table] = append(custom[table], cand)
		}
	}

	return custom, nil
}

func (c *Coordinator) overrideCandidate(table string, decl Override) (Candidate, error) {
	kind, err := ParseKind(decl.Kind)
	if err != nil {
		return Candidate{}, err
	}

	related := ""
	if kind != MorphTo {
		related, err = c.resolveTable(decl.Related)
		if err != nil {
			return Candidate{}, err
		}
	}

	morph := ""
	if kind.IsMorph() {
		morph = c.a.res.MorphNameFromID(decl.ForeignKey)
	}

	method := decl.Method
	if method == "" {
		method = c.a.res.MethodName(string(kind), table, related, decl.ForeignKey, morph, kind.IsToMany())
	}

	cand := Candidate{
		Kind:        kind,
		Table:       table,
		Related:     related,
		Method:      method,
		IsCustom:    true,
		Confidence:  ConfidenceHigh,
		Description: decl.Comment,
	}
	if decl.ForeignKey != "" {
		cand.ForeignKey = []string{decl.ForeignKey}
	}
	if decl.OwnerKey != "" {
		cand.OwnerKey = []string{decl.OwnerKey}
	}

	return cand, nil
}

// resolveTable accepts a raw table key or a model-style name.
func (c *Coordinator) resolveTable(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("related table is required")
	}
	if _, ok := c.a.cat.Get(name); ok {
		return name, nil
	}

	for _, t := range c.a.cat.Tables {
		if c.a.res.ModelName(t.Key) == name {
			return t.Key, nil
		}
	}

	return "", fmt.Errorf("unknown related table or model %q", name)
}

// Analyze runs all detectors for the table, merges custom overrides,
// assigns final deduplicated method names and attaches the structural
// report. An empty relationship set is a valid, non-error result; the
// only fatal condition is a table missing from the catalog.
func (c *Coordinator) Analyze(ctx context.Context, table string) (RelationshipSet, error) {
	t, ok := c.a.cat.Get(table)
	if !ok {
		return RelationshipSet{}, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	// Custom overrides come first so that they win method names
	cands := append([]Candidate{}, c.custom[table]...)
	for _, detect := range detectors {
		cands = append(cands, detect(ctx, c.a, t)...)
	}

	cands = c.dropShadowed(table, cands)
	c.dedupeMethods(cands)
	sortCandidates(cands)

	return RelationshipSet{
		Table:         table,
		Relationships: cands,
		Report:        c.buildReport(t, cands),
	}, nil
}

// dropShadowed removes auto-detected candidates that a custom override
// redeclares. The override carries the user's intent; the structural
// duplicate would only produce a suffixed twin. An override can stand
// in for exactly one relationship, so it never removes more than one:
// a table with several keys to the same related table keeps the keys
// the override does not cover.
func (c *Coordinator) dropShadowed(table string, cands []Candidate) []Candidate {
	customs := c.custom[table]
	if len(customs) == 0 {
		return cands
	}

	consumed := make([]bool, len(customs))

	out := cands[:0]
	for _, cand := range cands {
		if !cand.IsCustom && shadowedBy(cand, customs, consumed) {
			continue
		}
		out = append(out, cand)
	}

	return out
}

// shadowedBy reports whether a custom override redeclares the
// structural candidate. A custom that names its foreign key shadows the
// candidate with that exact key; a keyless custom consumes only the
// first candidate of its kind and related table.
func shadowedBy(cand Candidate, customs []Candidate, consumed []bool) bool {
	for i, cu := range customs {
		if cu.Kind != cand.Kind || cu.Related != cand.Related {
			continue
		}

		if len(cu.ForeignKey) > 0 {
			if len(cand.ForeignKey) > 0 && cu.ForeignKey[0] == cand.ForeignKey[0] {
				return true
			}
			continue
		}

		if consumed[i] {
			continue
		}
		consumed[i] = true

		return true
	}

	return false
}

// dedupeMethods resolves method-name collisions in place. Candidates
// earlier in the slice keep their name (customs are always first);
// later ones first get a related-table discriminator, then a numbered
// suffix. Nothing is ever dropped.
func (c *Coordinator) dedupeMethods(cands []Candidate) {
	used := make(map[string]struct{}, len(cands))

	for i := range cands {
		name := cands[i].Method
		if _, taken := used[name]; !taken {
			used[name] = struct{}{}
			continue
		}

		var alts []string
		if cands[i].Related != "" {
			alts = append(alts, name+c.a.res.ModelName(cands[i].Related))
		}
		if cands[i].Pivot != nil {
			alts = append(alts, name+"Via"+c.a.res.ModelName(cands[i].Pivot.Table))
		}

		resolved := false
		for _, alt := range alts {
			if _, taken := used[alt]; !taken && alt != name {
				cands[i].Method = alt
				used[alt] = struct{}{}
				resolved = true
				break
			}
		}
		if resolved {
			continue
		}

		// Configured alternatives exhausted: numbered suffix
		for n := 2; ; n++ {
			alt := fmt.Sprintf("%s%d", name, n)
			if _, taken := used[alt]; !taken {
				cands[i].Method = alt
				used[alt] = struct{}{}
				break
			}
		}
	}
}

// buildReport runs the cross-cutting analyses: cycle detection over the
// foreign-key graph, self-reference detection and multi-type
// polymorphism detection.
func (c *Coordinator) buildReport(t catalog.Table, cands []Candidate) StructuralReport {
	report := StructuralReport{
		Cycles:         c.graph.CyclesFrom(t.Key),
		SelfReferences: SelfReferences(t),
	}

	for _, cand := range cands {
		if cand.Kind != MorphTo || cand.Morph == nil {
			continue
		}
		if len(cand.Morph.TypeValues) > 1 {
			report.MultiTypeMorphs = append(report.MultiTypeMorphs, MultiTypeMorph{
				Name:       cand.Morph.Name,
				TypeColumn: cand.Morph.TypeColumn,
				Values:     cand.Morph.TypeValues,
			})
		}
	}

	return report
}

// SchemaAnalysis is the aggregated result of a whole-schema run.
// Per-table failures never abort the other tables.
type SchemaAnalysis struct {
	Sets    []RelationshipSet `json:"sets"`
	Errors  map[string]error  `json:"-"`
	Profile ConventionProfile `json:"profile"`
}

// AnalyzeAll analyzes every table in the snapshot, running tables
// concurrently with a bounded number of workers. Detectors share the
// immutable snapshot and the read-only graph, so no locking is needed
// beyond collecting results.
func (c *Coordinator) AnalyzeAll(ctx context.Context) SchemaAnalysis {
	keys := c.a.cat.Keys()
	sort.Strings(keys)

	concurrency := c.a.opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	sets := make([]RelationshipSet, len(keys))
	errs := make([]error, len(keys))

	limiter := newConcurrencyLimiter(concurrency)
	wg := sync.WaitGroup{}
	for i, key := range keys {
		wg.Add(1)
		limiter.get()
		go func(i int, key string) {
			defer wg.Done()
			defer limiter.put()
			sets[i], errs[i] = c.Analyze(ctx, key)
		}(i, key)
	}
	wg.Wait()

	result := SchemaAnalysis{
		Sets:    make([]RelationshipSet, 0, len(keys)),
		Errors:  map[string]error{},
		Profile: c.Profile(),
	}
	for i, key := range keys {
		if errs[i] != nil {
			result.Errors[key] = errs[i]
			continue
		}
		result.Sets = append(result.Sets, sets[i])
	}

	return result
}

// concurrencyLimiter mirrors the bounded-worker helper used when
// assembling catalogs.
type concurrencyLimiter chan struct{}

func newConcurrencyLimiter(capacity int) concurrencyLimiter {
	ret := make(concurrencyLimiter, capacity)
	for i := 0; i < capacity; i++ {
		ret <- struct{}{}
	}

	return ret
}

func (c concurrencyLimiter) get() {
	<-c
}

func (c concurrencyLimiter) put() {
	c <- struct{}{}
}
