package catalog

// ReferentialAction is the cascade behavior of a foreign key when the
// referenced row is deleted or updated.
type ReferentialAction string

const (
	ActionUnspecified ReferentialAction = ""
	ActionNoAction    ReferentialAction = "NO ACTION"
	ActionRestrict    ReferentialAction = "RESTRICT"
	ActionCascade     ReferentialAction = "CASCADE"
	ActionSetNull     ReferentialAction = "SET NULL"
	ActionSetDefault  ReferentialAction = "SET DEFAULT"
)

type Constraints struct {
	Primary *Constraint  `yaml:"primary" json:"primary"`
	Foreign []ForeignKey `yaml:"foreign" json:"foreign"`
	Uniques []Constraint `yaml:"uniques" json:"uniques"`
}

// Constraint represents a primary key or unique constraint.
type Constraint struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []string `yaml:"columns" json:"columns"`
}

// ForeignKey represents a foreign key constraint. Columns and
// ForeignColumns always have the same arity.
type ForeignKey struct {
	Name           string            `yaml:"name" json:"name"`
	Columns        []string          `yaml:"columns" json:"columns"`
	ForeignTable   string            `yaml:"foreign_table" json:"foreign_table"`
	ForeignColumns []string          `yaml:"foreign_columns" json:"foreign_columns"`
	OnDelete       ReferentialAction `yaml:"on_delete" json:"on_delete"`
	OnUpdate       ReferentialAction `yaml:"on_update" json:"on_update"`
}

// IsSelfReferencing reports whether the foreign key points back at its
// owning table.
func (f ForeignKey) IsSelfReferencing(owner string) bool {
	return f.ForeignTable == owner
}

// DBConstraints lists all constraints in the database schema keyed by
// table name.
type DBConstraints struct {
	PKs     map[string]*Constraint
	FKs     map[string][]ForeignKey
	Uniques map[string][]Constraint
}

// DBIndexes lists all indexes in the database schema keyed by table name.
type DBIndexes map[string][]Index

// Index represents an index in a table.
type Index struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []string `yaml:"columns" json:"columns"`
	Unique  bool     `yaml:"unique" json:"unique"`
}
