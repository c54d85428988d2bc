package catalog

// Table metadata from the database schema. A Table is an immutable
// snapshot for the duration of one analysis run.
type Table struct {
	Key string `json:"key"`
	// For dbs with real schemas, like Postgres.
	Schema  string   `json:"schema"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`

	Constraints Constraints `json:"constraints"`
	Indexes     []Index     `json:"indexes"`
}

// GetColumn by name.
func (t Table) GetColumn(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}

	return Column{}, false
}

func (t Table) HasColumn(name string) bool {
	_, ok := t.GetColumn(name)
	return ok
}

// CanSoftDelete reports whether the table carries a conventional
// soft-delete marker: a nullable date-time column.
func (t Table) CanSoftDelete(deleteColumn string) bool {
	if deleteColumn == "" {
		deleteColumn = "deleted_at"
	}

	for _, column := range t.Columns {
		if column.Name == deleteColumn && column.Nullable && column.Type == TypeDateTime {
			return true
		}
	}
	return false
}

// HasExactUnique returns true if the table has a uniqueness guarantee on
// exactly these columns. Primary keys and unique indexes count.
func (t Table) HasExactUnique(cols ...string) bool {
	if len(cols) == 0 {
		return false
	}

	// Primary keys are unique
	if t.Constraints.Primary != nil && sliceMatch(t.Constraints.Primary.Columns, cols) {
		return true
	}

	for _, u := range t.Constraints.Uniques {
		if sliceMatch(u.Columns, cols) {
			return true
		}
	}

	for _, idx := range t.Indexes {
		if idx.Unique && sliceMatch(idx.Columns, cols) {
			return true
		}
	}

	return false
}

// AllNullable returns true if every named column is nullable.
func (t Table) AllNullable(cols ...string) bool {
	foundNullable := 0
	for _, col := range t.Columns {
		for _, cname := range cols {
			if col.Name == cname && col.Nullable {
				foundNullable++
				if foundNullable == len(cols) {
					return true
				}
			}
		}
	}

	return false
}

func sliceMatch[T comparable, Ts ~[]T](a, b Ts) bool {
	if len(a) != len(b) {
		return false
	}

	if len(a) == 0 {
		return false
	}

	var matches int
	for _, v1 := range a {
		for _, v2 := range b {
			if v1 == v2 {
				matches++
			}
		}
	}

	return matches == len(a)
}
