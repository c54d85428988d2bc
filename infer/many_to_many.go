package infer

import (
	"context"
	"fmt"
	"slices"

	"github.com/relspect/relspect/catalog"
)

//nolint:gochecknoglobals
var timestampColumns = []string{"created_at", "updated_at"}

// detectBelongsToMany discovers many-to-many associations through
// junction tables. Foreign-key topology alone (two or more keys, one of
// them referencing the analyzed table) is sufficient for detection;
// naming conformance and a strict junction shape only raise or lower
// confidence and break ties when a pivot could pair the table with
// several others.
func detectBelongsToMany(_ context.Context, a *analysis, t catalog.Table) []Candidate {
	var out []Candidate

	for _, pivot := range a.cat.Tables {
		if pivot.Key == t.Key {
			continue
		}
		if len(pivot.Constraints.Foreign) < 2 {
			continue
		}

		var toSource, toOther []catalog.ForeignKey
		for _, fk := range pivot.Constraints.Foreign {
			if _, ok := a.cat.Get(fk.ForeignTable); !ok {
				continue
			}
			if fk.ForeignTable == t.Key {
				toSource = append(toSource, fk)
			} else {
				toOther = append(toOther, fk)
			}
		}
		if len(toSource) == 0 {
			continue
		}

		// Self many-to-many: two keys referencing the analyzed table
		// pair it with itself. This is the primary reading when the
		// pivot involves no third table, otherwise it survives as a
		// lower-confidence secondary.
		if len(toSource) >= 2 {
			out = append(out, pivotCandidate(a, t, t, pivot, toSource[0], toSource[1], len(toOther) == 0))
		}
		if len(toOther) == 0 {
			continue
		}

		// With more than one possible pairing, naming conformance picks
		// the primary pair; the rest stay as lower-confidence
		// secondaries rather than being discarded.
		ambiguous := len(toOther) > 1
		for i, sourceFK := range toSource {
			for _, otherFK := range toOther {
				primary := i == 0 && (!ambiguous || a.res.MatchesPivotName(pivot.Key, t.Key, otherFK.ForeignTable))
				out = append(out, pivotCandidate(a, t, mustGet(a.cat, otherFK.ForeignTable), pivot, sourceFK, otherFK, primary))
			}
		}
	}

	return out
}

func pivotCandidate(
	a *analysis,
	t, related, pivot catalog.Table,
	sourceFK, relatedFK catalog.ForeignKey,
	primary bool,
) Candidate {
	nameConforms := a.res.MatchesPivotName(pivot.Key, t.Key, related.Key)

	// Topology alone is enough to detect; the strict junction shape or
	// a conforming name raises certainty, a pivot that looks like a
	// business table of its own lowers it.
	confidence := ConfidenceLow
	if primary {
		confidence = ConfidenceHigh
		if !nameConforms && !isStrictJunction(pivot) && hasBusinessColumns(pivot, sourceFK, relatedFK) {
			confidence = ConfidenceLow
		}
	}

	method := a.res.MethodName(string(BelongsToMany), t.Key, related.Key, "", "", true)

	return Candidate{
		Kind:          BelongsToMany,
		Table:         t.Key,
		Related:       related.Key,
		Method:        method,
		ForeignKey:    sourceFK.Columns,
		OwnerKey:      sourceFK.ForeignColumns,
		CascadeDelete: sourceFK.OnDelete == catalog.ActionCascade,
		CascadeUpdate: sourceFK.OnUpdate == catalog.ActionCascade,
		SoftDeletes:   related.CanSoftDelete(a.softDeleteColumn()),
		Confidence:    confidence,
		Pivot: &PivotInfo{
			Table:         pivot.Key,
			ForeignKey:    first(sourceFK.Columns),
			RelatedKey:    first(relatedFK.Columns),
			Fields:        pivotFields(pivot, sourceFK, relatedFK),
			HasTimestamps: hasTimestamps(pivot),
			NameConforms:  nameConforms,
		},
		Inverse: &InverseRef{
			Kind:   BelongsToMany,
			Table:  related.Key,
			Method: a.res.MethodName(string(BelongsToMany), related.Key, t.Key, "", "", true),
		},
		Description: fmt.Sprintf("%s and %s are joined through %s", t.Key, related.Key, pivot.Key),
	}
}

// isStrictJunction reports whether the table has the canonical
// junction-table shape: every column is covered by its two foreign keys
// and the combination is unique. Grounded in the same shape check used
// for join tables in SQL code generators.
func isStrictJunction(t catalog.Table) bool {
	if len(t.Constraints.Foreign) != 2 {
		return false
	}

	colNames := catalog.ColumnNames(t.Columns)

	if !allColsInList(colNames, t.Constraints.Foreign[0].Columns, t.Constraints.Foreign[1].Columns) {
		return false
	}

	return t.HasExactUnique(colNames...)
}

func hasBusinessColumns(t catalog.Table, fks ...catalog.ForeignKey) bool {
	return len(pivotFields(t, fks...)) > 0
}

// pivotFields are the extra columns on the pivot: not part of either
// foreign key, not the primary key, not timestamps.
func pivotFields(t catalog.Table, fks ...catalog.ForeignKey) []string {
	var keyCols []string
	for _, fk := range fks {
		keyCols = append(keyCols, fk.Columns...)
	}
	if t.Constraints.Primary != nil {
		keyCols = append(keyCols, t.Constraints.Primary.Columns...)
	}

	var fields []string
	for _, col := range t.Columns {
		if slices.Contains(keyCols, col.Name) {
			continue
		}
		if slices.Contains(timestampColumns, col.Name) {
			continue
		}
		fields = append(fields, col.Name)
	}

	return fields
}

func hasTimestamps(t catalog.Table) bool {
	for _, name := range timestampColumns {
		if !t.HasColumn(name) {
			return false
		}
	}

	return true
}

func allColsInList(cols, list1, list2 []string) bool {
ColumnsLoop:
	for _, col := range cols {
		for _, sideCol := range list1 {
			if col == sideCol {
				continue ColumnsLoop
			}
		}
		for _, sideCol := range list2 {
			if col == sideCol {
				continue ColumnsLoop
			}
		}
		return false
	}

	return true
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}

	return ss[0]
}

func mustGet(c *catalog.Catalog, key string) catalog.Table {
	t, _ := c.Get(key)
	return t
}
