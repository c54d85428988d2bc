package infer

// ConventionProfile summarizes how closely the whole schema follows the
// configured naming conventions. It is a diagnostic aid: detection
// itself never requires conformance.
type ConventionProfile struct {
	TotalForeignKeys int `json:"total_foreign_keys"`
	// Matches per configured foreign-key template
	PatternMatches map[string]int `json:"pattern_matches"`
	UnmatchedKeys  int            `json:"unmatched_keys"`

	JunctionTables     int `json:"junction_tables"`
	ConformingPivots   int `json:"conforming_pivots"`
	PolymorphicColumns int `json:"polymorphic_columns"`
}

// Profile scans every table in the snapshot once.
func (c *Coordinator) Profile() ConventionProfile {
	templates := c.a.res.ForeignKeyTemplates()

	p := ConventionProfile{
		PatternMatches: make(map[string]int, len(templates)),
	}

	for _, t := range c.a.cat.Tables {
		for _, fk := range t.Constraints.Foreign {
			if len(fk.Columns) != 1 {
				continue
			}
			p.TotalForeignKeys++

			idx := c.a.res.MatchesForeignKeyPattern(fk.Columns[0], fk.ForeignTable, first(fk.ForeignColumns))
			if idx < 0 {
				p.UnmatchedKeys++
				continue
			}
			p.PatternMatches[templates[idx]]++
		}

		if isStrictJunction(t) {
			p.JunctionTables++
			fks := t.Constraints.Foreign
			if c.a.res.MatchesPivotName(t.Key, fks[0].ForeignTable, fks[1].ForeignTable) {
				p.ConformingPivots++
			}
		}

		for _, col := range t.Columns {
			if name := c.a.res.MorphName(col.Name); name != "" {
				if _, idCol := c.a.res.MorphColumns(name); t.HasColumn(idCol) {
					p.PolymorphicColumns++
				}
			}
		}
	}

	return p
}
