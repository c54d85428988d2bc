package psql

import (
	"strings"

	"github.com/relspect/relspect/catalog"
)

// translateColumnType maps an information_schema data type to the
// semantic column type the inference engine works with.
func translateColumnType(dataType, udtName string) catalog.ColumnType {
	switch strings.ToLower(dataType) {
	case "smallint", "integer", "bigint", "smallserial", "serial", "bigserial":
		return catalog.TypeInt
	case "real", "double precision":
		return catalog.TypeFloat
	case "numeric", "decimal", "money":
		return catalog.TypeDecimal
	case "character varying", "character", "citext":
		return catalog.TypeString
	case "text":
		return catalog.TypeText
	case "boolean":
		return catalog.TypeBool
	case "timestamp without time zone", "timestamp with time zone", "time without time zone", "time with time zone":
		return catalog.TypeDateTime
	case "date":
		return catalog.TypeDate
	case "json", "jsonb":
		return catalog.TypeJSON
	case "bytea":
		return catalog.TypeBinary
	case "point", "line", "lseg", "box", "path", "polygon", "circle":
		return catalog.TypeGeometry
	case "uuid":
		return catalog.TypeUUID
	case "user-defined":
		if udtName != "" {
			return catalog.TypeEnum
		}
		return catalog.TypeUnknown
	default:
		return catalog.TypeUnknown
	}
}
