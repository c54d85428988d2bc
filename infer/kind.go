package infer

import "fmt"

// Kind is the closed set of relationship kinds the engine can infer.
type Kind string

const (
	BelongsTo     Kind = "belongs_to"
	HasOne        Kind = "has_one"
	HasMany       Kind = "has_many"
	BelongsToMany Kind = "belongs_to_many"
	MorphTo       Kind = "morph_to"
	MorphOne      Kind = "morph_one"
	MorphMany     Kind = "morph_many"
)

//nolint:gochecknoglobals
var kindOrder = map[Kind]int{
	BelongsTo:     0,
	HasOne:        1,
	HasMany:       2,
	BelongsToMany: 3,
	MorphTo:       4,
	MorphOne:      5,
	MorphMany:     6,
}

// ParseKind accepts both snake_case and camelCase spellings so that
// user-supplied overrides can use either.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "belongs_to", "belongsTo":
		return BelongsTo, nil
	case "has_one", "hasOne":
		return HasOne, nil
	case "has_many", "hasMany":
		return HasMany, nil
	case "belongs_to_many", "belongsToMany":
		return BelongsToMany, nil
	case "morph_to", "morphTo":
		return MorphTo, nil
	case "morph_one", "morphOne":
		return MorphOne, nil
	case "morph_many", "morphMany":
		return MorphMany, nil
	}

	return "", fmt.Errorf("unknown relationship kind %q", s)
}

func (k Kind) String() string {
	return string(k)
}

// IsToMany reports whether the kind relates to multiple rows.
func (k Kind) IsToMany() bool {
	switch k {
	case HasMany, BelongsToMany, MorphMany:
		return true
	default:
		return false
	}
}

// IsMorph reports whether the kind is polymorphic.
func (k Kind) IsMorph() bool {
	switch k {
	case MorphTo, MorphOne, MorphMany:
		return true
	default:
		return false
	}
}
