package sqlite

import (
	"testing"

	"github.com/relspect/relspect/catalog"
)

func TestTranslateColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  string
		want catalog.ColumnType
	}{
		{"INTEGER", catalog.TypeInt},
		{"bigint", catalog.TypeInt},
		{"unsigned big int", catalog.TypeInt},
		{"REAL", catalog.TypeFloat},
		{"NUMERIC", catalog.TypeDecimal},
		{"VARCHAR(255)", catalog.TypeString},
		{"nvarchar(70)", catalog.TypeString},
		{"CLOB", catalog.TypeString},
		{"TEXT", catalog.TypeText},
		{"BOOLEAN", catalog.TypeBool},
		{"DATETIME", catalog.TypeDateTime},
		{"TIMESTAMP", catalog.TypeDateTime},
		{"DATE", catalog.TypeDate},
		{"JSON", catalog.TypeJSON},
		{"BLOB", catalog.TypeBinary},
		{"UUID", catalog.TypeUUID},
		{"", catalog.TypeUnknown},
		{"GEOMETRY", catalog.TypeUnknown},
	}

	for _, tt := range tests {
		if got := translateColumnType(tt.typ); got != tt.want {
			t.Errorf("translateColumnType(%q) = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestReferentialAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		s    string
		want catalog.ReferentialAction
	}{
		{"CASCADE", catalog.ActionCascade},
		{"cascade", catalog.ActionCascade},
		{"SET NULL", catalog.ActionSetNull},
		{"SET DEFAULT", catalog.ActionSetDefault},
		{"RESTRICT", catalog.ActionRestrict},
		{"NO ACTION", catalog.ActionNoAction},
		{"", catalog.ActionUnspecified},
	}

	for _, tt := range tests {
		if got := referentialAction(tt.s); got != tt.want {
			t.Errorf("referentialAction(%q) = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestEscape(t *testing.T) {
	t.Parallel()

	if got := escape("it's"); got != "it''s" {
		t.Errorf("escape = %q, want %q", got, "it''s")
	}
}
