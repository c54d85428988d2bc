package psql

import (
	"testing"

	"github.com/relspect/relspect/catalog"
)

func TestTranslateColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dataType string
		udtName  string
		want     catalog.ColumnType
	}{
		{"integer", "int4", catalog.TypeInt},
		{"bigserial", "int8", catalog.TypeInt},
		{"double precision", "float8", catalog.TypeFloat},
		{"numeric", "numeric", catalog.TypeDecimal},
		{"character varying", "varchar", catalog.TypeString},
		{"text", "text", catalog.TypeText},
		{"boolean", "bool", catalog.TypeBool},
		{"timestamp with time zone", "timestamptz", catalog.TypeDateTime},
		{"TIMESTAMP WITHOUT TIME ZONE", "timestamp", catalog.TypeDateTime},
		{"date", "date", catalog.TypeDate},
		{"jsonb", "jsonb", catalog.TypeJSON},
		{"bytea", "bytea", catalog.TypeBinary},
		{"point", "point", catalog.TypeGeometry},
		{"uuid", "uuid", catalog.TypeUUID},
		{"USER-DEFINED", "mood", catalog.TypeEnum},
		{"USER-DEFINED", "", catalog.TypeUnknown},
		{"tsvector", "tsvector", catalog.TypeUnknown},
	}

	for _, tt := range tests {
		if got := translateColumnType(tt.dataType, tt.udtName); got != tt.want {
			t.Errorf("translateColumnType(%q, %q) = %s, want %s",
				tt.dataType, tt.udtName, got, tt.want)
		}
	}
}
