package infer

import (
	"context"
	"fmt"

	"github.com/relspect/relspect/catalog"
)

// detectBelongsTo emits one candidate per foreign key owned by the
// table. Self-referencing keys are legal and emitted tagged, so that
// downstream cycle analysis can recognize them.
func detectBelongsTo(_ context.Context, a *analysis, t catalog.Table) []Candidate {
	var out []Candidate

	for _, fk := range t.Constraints.Foreign {
		related, ok := a.cat.Get(fk.ForeignTable)
		if !ok {
			continue // no matching target table
		}

		fkCol := ""
		if len(fk.Columns) > 0 {
			fkCol = fk.Columns[0]
		}

		method := a.res.MethodName(string(BelongsTo), t.Key, related.Key, fkCol, "", false)

		// The inverse is governed by whether the local key is unique:
		// a unique child key means the parent has exactly one child.
		inverseKind := HasMany
		if t.HasExactUnique(fk.Columns...) {
			inverseKind = HasOne
		}

		out = append(out, Candidate{
			Kind:            BelongsTo,
			Table:           t.Key,
			Related:         related.Key,
			Method:          method,
			ForeignKey:      fk.Columns,
			OwnerKey:        fk.ForeignColumns,
			Required:        !t.AllNullable(fk.Columns...),
			CascadeDelete:   fk.OnDelete == catalog.ActionCascade,
			CascadeUpdate:   fk.OnUpdate == catalog.ActionCascade,
			SoftDeletes:     related.CanSoftDelete(a.softDeleteColumn()),
			SelfReferencing: fk.IsSelfReferencing(t.Key),
			Confidence:      ConfidenceHigh,
			Inverse: &InverseRef{
				Kind:   inverseKind,
				Table:  related.Key,
				Method: a.res.MethodName(string(inverseKind), related.Key, t.Key, fkCol, "", inverseKind.IsToMany()),
			},
			Description: fmt.Sprintf("%s.%s references %s", t.Key, fkCol, related.Key),
		})
	}

	return out
}
