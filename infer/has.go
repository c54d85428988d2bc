package infer

import (
	"context"
	"fmt"

	"github.com/relspect/relspect/catalog"
)

// detectHasOne classifies inbound foreign keys whose columns carry a
// uniqueness constraint on the owning table. Uniqueness is the single
// discriminating rule between has-one and has-many.
func detectHasOne(_ context.Context, a *analysis, t catalog.Table) []Candidate {
	return detectHas(a, t, true)
}

// detectHasMany classifies inbound foreign keys without a uniqueness
// constraint on their columns.
func detectHasMany(_ context.Context, a *analysis, t catalog.Table) []Candidate {
	return detectHas(a, t, false)
}

// detectHas scans every other table for a foreign key referencing t and
// emits one candidate per qualifying key.
func detectHas(a *analysis, t catalog.Table, wantUnique bool) []Candidate {
	var out []Candidate

	kind := HasMany
	if wantUnique {
		kind = HasOne
	}

	for _, other := range a.cat.Tables {
		if other.Key == t.Key {
			continue
		}

		for _, fk := range other.Constraints.Foreign {
			if fk.ForeignTable != t.Key {
				continue
			}
			if !referencesPrimaryKey(t, fk.ForeignColumns) {
				continue
			}
			if other.HasExactUnique(fk.Columns...) != wantUnique {
				continue
			}

			fkCol := ""
			if len(fk.Columns) > 0 {
				fkCol = fk.Columns[0]
			}

			out = append(out, Candidate{
				Kind:          kind,
				Table:         t.Key,
				Related:       other.Key,
				Method:        a.res.MethodName(string(kind), t.Key, other.Key, fkCol, "", kind.IsToMany()),
				ForeignKey:    fk.Columns,
				OwnerKey:      fk.ForeignColumns,
				Required:      false,
				CascadeDelete: fk.OnDelete == catalog.ActionCascade,
				CascadeUpdate: fk.OnUpdate == catalog.ActionCascade,
				SoftDeletes:   other.CanSoftDelete(a.softDeleteColumn()),
				Confidence:    ConfidenceHigh,
				Inverse: &InverseRef{
					Kind:   BelongsTo,
					Table:  other.Key,
					Method: a.res.MethodName(string(BelongsTo), other.Key, t.Key, fkCol, "", false),
				},
				Description: fmt.Sprintf("%s.%s references %s", other.Key, fkCol, t.Key),
			})
		}
	}

	return out
}

// referencesPrimaryKey reports whether the foreign columns are the
// primary key of t, or the whole key when the constraint does not name
// columns explicitly.
func referencesPrimaryKey(t catalog.Table, foreignColumns []string) bool {
	if t.Constraints.Primary == nil {
		// Without a primary key any unique target column qualifies
		return t.HasExactUnique(foreignColumns...)
	}
	if len(foreignColumns) == 0 {
		return true
	}

	pk := t.Constraints.Primary.Columns
	if len(pk) != len(foreignColumns) {
		// A reference to a non-key unique column still associates the
		// tables, it just does not ride on the primary key
		return t.HasExactUnique(foreignColumns...)
	}

	for i, col := range pk {
		if foreignColumns[i] != col {
			return t.HasExactUnique(foreignColumns...)
		}
	}

	return true
}
