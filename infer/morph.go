package infer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/relspect/relspect/catalog"
)

// morphPair is a {name}_type / {name}_id column pair found on a table.
type morphPair struct {
	name    string
	typeCol string
	idCol   string
}

func morphPairs(a *analysis, t catalog.Table) []morphPair {
	var pairs []morphPair

	for _, col := range t.Columns {
		name := a.res.MorphName(col.Name)
		if name == "" {
			continue
		}

		typeCol, idCol := a.res.MorphColumns(name)
		if !t.HasColumn(idCol) {
			continue
		}

		pairs = append(pairs, morphPair{name: name, typeCol: typeCol, idCol: idCol})
	}

	return pairs
}

// detectMorphTo finds polymorphic parent slots on the table itself.
// This is purely local: no cross-table scan is needed.
func detectMorphTo(ctx context.Context, a *analysis, t catalog.Table) []Candidate {
	var out []Candidate

	for _, pair := range morphPairs(a, t) {
		values, sampled := sampleTypes(ctx, a, t.Key, pair.typeCol)

		typeColumn, _ := t.GetColumn(pair.typeCol)
		idColumn, _ := t.GetColumn(pair.idCol)

		out = append(out, Candidate{
			Kind:       MorphTo,
			Table:      t.Key,
			Method:     a.res.MethodName(string(MorphTo), t.Key, "", "", pair.name, false),
			ForeignKey: []string{pair.idCol},
			Required:   !typeColumn.Nullable && !idColumn.Nullable,
			Confidence: ConfidenceHigh,
			Morph: &MorphInfo{
				Name:       pair.name,
				TypeColumn: pair.typeCol,
				IDColumn:   pair.idCol,
				TypeValues: values,
				Sampled:    sampled,
			},
			Description: fmt.Sprintf("%s.%s/%s is a polymorphic reference", t.Key, pair.typeCol, pair.idCol),
		})
	}

	return out
}

// detectMorphOneMany finds tables that point back at t through a
// polymorphic column pair. Classification between one and many follows
// whether the pair is covered by a uniqueness constraint. When the type
// column cannot be sampled the structural match alone is used, subject
// to the configured policy, and the candidate is flagged as lower
// confidence instead of being silently omitted.
func detectMorphOneMany(ctx context.Context, a *analysis, t catalog.Table) []Candidate {
	var out []Candidate

	model := a.res.ModelName(t.Key)

	for _, other := range a.cat.Tables {
		if other.Key == t.Key {
			continue
		}

		for _, pair := range morphPairs(a, other) {
			values, sampled := sampleTypes(ctx, a, other.Key, pair.typeCol)

			var matched []string
			if sampled {
				for _, v := range values {
					if denotesTable(v, t.Key, model) {
						matched = append(matched, v)
					}
				}
				if len(matched) == 0 {
					continue
				}
			} else if a.opts.MorphPolicy == MorphRejectUnsampled {
				continue
			}

			kind := MorphMany
			if other.HasExactUnique(pair.typeCol, pair.idCol) {
				kind = MorphOne
			}

			confidence := ConfidenceHigh
			if !sampled {
				confidence = ConfidenceLow
			}

			out = append(out, Candidate{
				Kind:          kind,
				Table:         t.Key,
				Related:       other.Key,
				Method:        a.res.MethodName(string(kind), t.Key, other.Key, "", pair.name, kind.IsToMany()),
				ForeignKey:    []string{pair.idCol},
				OwnerKey:      primaryKeyColumns(t),
				SoftDeletes:   other.CanSoftDelete(a.softDeleteColumn()),
				Confidence:    confidence,
				Morph: &MorphInfo{
					Name:       pair.name,
					TypeColumn: pair.typeCol,
					IDColumn:   pair.idCol,
					TypeValues: matched,
					Sampled:    sampled,
				},
				Description: fmt.Sprintf("%s.%s/%s can reference %s", other.Key, pair.typeCol, pair.idCol, t.Key),
			})
		}
	}

	return out
}

// sampleTypes fetches the distinct values of a type column, capped at
// the configured limit. A missing sampler or a failing query degrades
// to "no samples", never to an error: static-only analysis is a valid
// mode of operation.
func sampleTypes(ctx context.Context, a *analysis, table, column string) ([]string, bool) {
	if a.sampler == nil {
		return nil, false
	}

	values, err := a.sampler.DistinctValues(ctx, table, column, a.sampleLimit())
	if err != nil {
		return nil, false
	}

	sort.Strings(values)

	return values, true
}

// denotesTable reports whether a sampled type value names the table:
// the raw table name, the studly singular model name, or a fully
// qualified name ending in the model name.
func denotesTable(value, tableKey, model string) bool {
	if value == tableKey || value == model {
		return true
	}

	for _, sep := range []string{"\\", ".", "/"} {
		if strings.HasSuffix(value, sep+model) {
			return true
		}
	}

	return false
}

func primaryKeyColumns(t catalog.Table) []string {
	if t.Constraints.Primary == nil {
		return nil
	}

	return t.Constraints.Primary.Columns
}
