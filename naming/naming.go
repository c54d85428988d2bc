// Package naming derives relationship method names, singular/plural
// display forms and polymorphic name/column pairs from table and column
// names using a configurable set of naming patterns. Everything here is
// pure: same inputs always produce the same output.
package naming

import (
	"fmt"
	"strings"

	"github.com/volatiletech/strmangle"
)

// Patterns configures how names are derived. The zero value is not
// usable, use DefaultPatterns.
type Patterns struct {
	// Ordered foreign-key naming templates. Recognized placeholders are
	// {table}, {singular} and {key}.
	ForeignKeyTemplates []string `koanf:"foreign_key_templates" yaml:"foreign_key_templates" json:"foreign_key_templates"`

	// Suffixes of a polymorphic column pair.
	MorphTypeSuffix string `koanf:"morph_type_suffix" yaml:"morph_type_suffix" json:"morph_type_suffix"`
	MorphIDSuffix   string `koanf:"morph_id_suffix" yaml:"morph_id_suffix" json:"morph_id_suffix"`

	// Per-kind method templates. Recognized placeholders are {related},
	// {related_plural} and {morph}. When a kind has no template the
	// resolver falls back to its built-in derivation.
	MethodTemplates map[string]string `koanf:"method_templates" yaml:"method_templates" json:"method_templates"`
}

// DefaultPatterns matches the common snake_case convention:
// users.id <- posts.user_id, commentable_type/commentable_id.
func DefaultPatterns() Patterns {
	return Patterns{
		ForeignKeyTemplates: []string{"{singular}_{key}", "{table}_{key}", "{key}"},
		MorphTypeSuffix:     "_type",
		MorphIDSuffix:       "_id",
	}
}

// TemplatePlaceholders that Validate accepts, per template class.
var (
	fkPlaceholders     = []string{"{table}", "{singular}", "{key}"}
	methodPlaceholders = []string{"{related}", "{related_plural}", "{morph}"}
)

// Validate eagerly rejects templates with unknown placeholders so that
// bad configuration surfaces before any analysis runs.
func (p Patterns) Validate() error {
	if len(p.ForeignKeyTemplates) == 0 {
		return fmt.Errorf("naming: at least one foreign key template is required")
	}
	if p.MorphTypeSuffix == "" || p.MorphIDSuffix == "" {
		return fmt.Errorf("naming: morph type/id suffixes cannot be empty")
	}
	if p.MorphTypeSuffix == p.MorphIDSuffix {
		return fmt.Errorf("naming: morph type and id suffixes must differ")
	}

	for _, tpl := range p.ForeignKeyTemplates {
		if err := checkPlaceholders(tpl, fkPlaceholders); err != nil {
			return fmt.Errorf("naming: foreign key template %q: %w", tpl, err)
		}
	}
	for kind, tpl := range p.MethodTemplates {
		if err := checkPlaceholders(tpl, methodPlaceholders); err != nil {
			return fmt.Errorf("naming: method template for %q: %w", kind, err)
		}
	}

	return nil
}

func checkPlaceholders(tpl string, known []string) error {
	rest := tpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return nil
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return fmt.Errorf("unterminated placeholder")
		}

		ph := rest[open : open+closing+1]
		found := false
		for _, k := range known {
			if ph == k {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown placeholder %s", ph)
		}

		rest = rest[open+closing+1:]
	}
}

// Resolver maps table and column names to relationship method names and
// singular/plural forms.
type Resolver struct {
	patterns Patterns
}

// NewResolver validates the patterns and builds a resolver.
func NewResolver(patterns Patterns) (*Resolver, error) {
	if err := patterns.Validate(); err != nil {
		return nil, err
	}

	return &Resolver{patterns: patterns}, nil
}

func (r *Resolver) Singular(name string) string {
	return strmangle.Singular(name)
}

func (r *Resolver) Plural(name string) string {
	return strmangle.Plural(name)
}

// ModelName is the studly-cased singular spelling of a table name:
// blog_posts -> BlogPost.
func (r *Resolver) ModelName(table string) string {
	return strmangle.TitleCase(strmangle.Singular(last(table)))
}

// ForeignKeyCandidates lists the column names that would conventionally
// hold a reference to the given table, in pattern order:
// users -> [user_id users_id id].
func (r *Resolver) ForeignKeyCandidates(table, key string) []string {
	if table == "" {
		return nil
	}
	if key == "" {
		key = "id"
	}

	name := last(table)
	out := make([]string, 0, len(r.patterns.ForeignKeyTemplates))
	for _, tpl := range r.patterns.ForeignKeyTemplates {
		col := strings.NewReplacer(
			"{table}", name,
			"{singular}", strmangle.Singular(name),
			"{key}", key,
		).Replace(tpl)
		out = append(out, col)
	}

	return out
}

// MatchesForeignKeyPattern reports which configured template (by index)
// the column satisfies for the given table, or -1.
func (r *Resolver) MatchesForeignKeyPattern(column, table, key string) int {
	for i, candidate := range r.ForeignKeyCandidates(table, key) {
		if column == candidate {
			return i
		}
	}

	return -1
}

// ForeignKeyTemplates returns the configured templates in order.
func (r *Resolver) ForeignKeyTemplates() []string {
	return r.patterns.ForeignKeyTemplates
}

// MorphNameFromID extracts the morph name from an id column:
// commentable_id -> commentable. Empty when the column does not carry
// the configured suffix.
func (r *Resolver) MorphNameFromID(idColumn string) string {
	if !strings.HasSuffix(idColumn, r.patterns.MorphIDSuffix) {
		return ""
	}

	return strings.TrimSuffix(idColumn, r.patterns.MorphIDSuffix)
}

// MorphName extracts the shared prefix of a polymorphic pair from its
// type column: commentable_type -> commentable. Empty when the column
// does not carry the configured suffix.
func (r *Resolver) MorphName(typeColumn string) string {
	if !strings.HasSuffix(typeColumn, r.patterns.MorphTypeSuffix) {
		return ""
	}

	return strings.TrimSuffix(typeColumn, r.patterns.MorphTypeSuffix)
}

// MorphColumns returns the type/id column pair for a morph name.
func (r *Resolver) MorphColumns(morph string) (typeCol, idCol string) {
	return morph + r.patterns.MorphTypeSuffix, morph + r.patterns.MorphIDSuffix
}

// MatchesPivotName reports whether the pivot table follows the
// `{a}_{b}` or `{b}_{a}` convention for its two endpoints, in singular
// or plural spellings.
func (r *Resolver) MatchesPivotName(pivot, a, b string) bool {
	as := strmangle.Singular(last(a))
	bs := strmangle.Singular(last(b))
	ap := strmangle.Plural(last(a))
	bp := strmangle.Plural(last(b))

	pivot = last(pivot)
	for _, left := range []string{as, ap} {
		for _, right := range []string{bs, bp} {
			if pivot == left+"_"+right || pivot == right+"_"+left {
				return true
			}
		}
	}

	return false
}

// last part of a dot.separated.string
func last(s string) string {
	ss := strings.Split(s, ".")
	return ss[len(ss)-1]
}
