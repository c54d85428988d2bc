package naming

import (
	"strings"

	"github.com/volatiletech/strmangle"
)

//nolint:gochecknoglobals
var identifierSuffixes = []string{"_id", "_uuid", "_guid", "_oid"}

// trimSuffixes from the identifier
func trimSuffixes(str string) string {
	ln := len(str)
	for _, s := range identifierSuffixes {
		str = strings.TrimSuffix(str, s)
		if len(str) != ln {
			break
		}
	}

	return str
}

// MethodName derives the relationship method name for a candidate. The
// kind string is one of the relationship kind spellings ("belongs_to",
// "has_many", ...), related is the related table name (empty for
// morph-to), fkColumn is the local foreign key column and morph the
// morph name (empty outside Morph* kinds). toMany controls the plural
// form. A configured method template for the kind takes precedence over
// the built-in derivation.
func (r *Resolver) MethodName(kind, from, related, fkColumn, morph string, toMany bool) string {
	if tpl, ok := r.patterns.MethodTemplates[kind]; ok {
		name := strings.NewReplacer(
			"{related}", strmangle.Singular(last(related)),
			"{related_plural}", strmangle.Plural(last(related)),
			"{morph}", morph,
		).Replace(tpl)
		return strmangle.TitleCase(name)
	}

	// A morph-to candidate has no single related table; its method is
	// named after the morph slot itself.
	if morph != "" && related == "" {
		if toMany {
			return strmangle.TitleCase(strmangle.Plural(morph))
		}
		return strmangle.TitleCase(morph)
	}

	return formatMethod(r.derivedBase(from, related, fkColumn), toMany)
}

// derivedBase picks the name stem the way a reader would: the related
// table name when the foreign key column matches either endpoint,
// otherwise the column itself as a discriminator.
func (r *Resolver) derivedBase(from, related, fkColumn string) string {
	if fkColumn == "" {
		return last(related)
	}

	colTrimmed := strmangle.Singular(trimSuffixes(fkColumn))

	if colTrimmed == strmangle.Singular(last(related)) ||
		colTrimmed == strmangle.Singular(last(from)) {
		return last(related)
	}

	// Self-referencing keys keep only the column stem: manager_id on
	// employees becomes Manager, not ManagerEmployee.
	if from == related {
		return colTrimmed
	}

	return colTrimmed + "_" + last(related)
}

func formatMethod(name string, toMany bool) string {
	if toMany {
		return strmangle.TitleCase(strmangle.Plural(name))
	}

	return strmangle.TitleCase(strmangle.Singular(name))
}
