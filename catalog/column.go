package catalog

// ColumnType is the semantic type of a column, independent of the
// dialect-specific declared type.
type ColumnType string

const (
	TypeInt      ColumnType = "int"
	TypeFloat    ColumnType = "float"
	TypeDecimal  ColumnType = "decimal"
	TypeString   ColumnType = "string"
	TypeText     ColumnType = "text"
	TypeBool     ColumnType = "bool"
	TypeDateTime ColumnType = "datetime"
	TypeDate     ColumnType = "date"
	TypeEnum     ColumnType = "enum"
	TypeJSON     ColumnType = "json"
	TypeBinary   ColumnType = "binary"
	TypeGeometry ColumnType = "geometry"
	TypeUUID     ColumnType = "uuid"
	TypeUnknown  ColumnType = "unknown"
)

// Column holds information about a database column.
type Column struct {
	Name      string     `json:"name" yaml:"name"`
	DBType    string     `json:"db_type" yaml:"db_type"`
	Type      ColumnType `json:"type" yaml:"type"`
	Default   string     `json:"default" yaml:"default"`
	Comment   string     `json:"comment" yaml:"comment"`
	Nullable  bool       `json:"nullable" yaml:"nullable"`
	Generated bool       `json:"generated" yaml:"generated"`
	AutoIncr  bool       `json:"autoincr" yaml:"autoincr"`
}

// ColumnNames of the columns.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	return names
}
