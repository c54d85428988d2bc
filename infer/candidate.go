package infer

import "sort"

// Confidence grades how strong the structural signal behind a candidate
// is. Low confidence candidates are still emitted, never silently
// dropped.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// PivotInfo carries the junction-table metadata of a BelongsToMany
// candidate.
type PivotInfo struct {
	Table string `json:"table"`
	// The pivot column referencing the source table
	ForeignKey string `json:"foreign_key"`
	// The pivot column referencing the related table
	RelatedKey string `json:"related_key"`
	// Non-key, non-timestamp columns on the pivot
	Fields        []string `json:"fields,omitempty"`
	HasTimestamps bool     `json:"has_timestamps"`
	// Whether the pivot follows the {a}_{b} naming convention
	NameConforms bool `json:"name_conforms"`
}

// MorphInfo carries the polymorphic metadata of a Morph* candidate.
type MorphInfo struct {
	Name       string `json:"name"`
	TypeColumn string `json:"type_column"`
	IDColumn   string `json:"id_column"`
	// Distinct type-column values observed by sampling, empty when
	// sampling was unavailable
	TypeValues []string `json:"type_values,omitempty"`
	Sampled    bool     `json:"sampled"`
}

// InverseRef points at the logical inverse of a relationship. It is
// synthesized from the forward relationship's own kind, never from a
// second detection pass.
type InverseRef struct {
	Kind   Kind   `json:"kind"`
	Table  string `json:"table"`
	Method string `json:"method"`
}

// Candidate is one inferred (or user-declared) relationship.
type Candidate struct {
	Kind  Kind   `json:"kind"`
	Table string `json:"table"`
	// Related is empty for MorphTo, which targets many tables
	Related string `json:"related,omitempty"`
	// Method is unique within the source table's relationship set
	Method string `json:"method"`

	ForeignKey []string `json:"foreign_key,omitempty"`
	OwnerKey   []string `json:"owner_key,omitempty"`

	// True when the foreign key column(s) are non-nullable
	Required bool `json:"required"`

	CascadeDelete bool `json:"cascade_delete"`
	CascadeUpdate bool `json:"cascade_update"`
	// True when the related table carries a soft-delete marker column
	SoftDeletes     bool `json:"soft_deletes"`
	SelfReferencing bool `json:"self_referencing"`

	IsCustom   bool       `json:"is_custom"`
	Confidence Confidence `json:"confidence"`

	Pivot   *PivotInfo  `json:"pivot,omitempty"`
	Morph   *MorphInfo  `json:"morph,omitempty"`
	Inverse *InverseRef `json:"inverse,omitempty"`

	Description string `json:"description,omitempty"`
}

// Cycle is one foreign-key cycle reachable from the analyzed table. The
// path starts and ends at the same table.
type Cycle struct {
	Path           []string `json:"path"`
	TablesInvolved []string `json:"tables_involved"`
}

// SelfReference is a foreign key whose referenced table equals its
// owning table.
type SelfReference struct {
	Column     string `json:"column"`
	References string `json:"references"`
}

// MultiTypeMorph reports a morph slot whose type column holds more than
// one distinct value, i.e. it is used polymorphically in practice.
type MultiTypeMorph struct {
	Name       string   `json:"name"`
	TypeColumn string   `json:"type_column"`
	Values     []string `json:"values"`
}

// StructuralReport bundles the cross-cutting analyses run alongside
// relationship detection.
type StructuralReport struct {
	Cycles          []Cycle          `json:"cycles,omitempty"`
	SelfReferences  []SelfReference  `json:"self_references,omitempty"`
	MultiTypeMorphs []MultiTypeMorph `json:"multi_type_morphs,omitempty"`
}

// RelationshipSet is the full analysis result for one table. It is a
// stable, serializable structure with no references back into a live
// connection.
type RelationshipSet struct {
	Table         string           `json:"table"`
	Relationships []Candidate      `json:"relationships"`
	Report        StructuralReport `json:"report"`
}

// sortCandidates orders candidates deterministically: custom overrides
// first, then by kind, related table and method name.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.IsCustom != b.IsCustom {
			return a.IsCustom
		}
		if a.Kind != b.Kind {
			return kindOrder[a.Kind] < kindOrder[b.Kind]
		}
		if a.Related != b.Related {
			return a.Related < b.Related
		}
		return a.Method < b.Method
	})
}
