// Package psql introspects a PostgreSQL database into a catalog
// snapshot, and supports bounded distinct-value sampling for
// polymorphic-type detection.
package psql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/stephenafamo/scan"
	"github.com/stephenafamo/scan/stdscan"

	"github.com/relspect/relspect/catalog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pqDriver        = "github.com/lib/pq"
	pgxStdlibDriver = "github.com/jackc/pgx/v5/stdlib"
	defaultDriver   = pqDriver
)

var rgxValidIdentifier = regexp.MustCompile(`(?i)^[a-z_][a-z0-9_$]*$`)

type Config struct {
	// Connection string
	DSN string
	// The database schemas to introspect
	Schemas pq.StringArray
	// The name of this schema is not prefixed onto table keys
	SharedSchema string
	// Which database/sql driver to connect with
	Driver string
	// How many tables to fetch in parallel
	Concurrency int
}

// New builds a provider, applying defaults.
func New(config Config) (*Driver, error) {
	if config.Schemas == nil {
		config.Schemas = pq.StringArray{"public"}
	}
	if config.SharedSchema == "" {
		config.SharedSchema = config.Schemas[0]
	}
	if config.Driver == "" {
		config.Driver = defaultDriver
	}
	if config.Concurrency < 1 {
		config.Concurrency = 10
	}

	switch config.Driver {
	// These are the only supported drivers
	case pqDriver, pgxStdlibDriver:
	default:
		return nil, fmt.Errorf(
			"unsupported driver %s, supported drivers are: %q, %q",
			config.Driver, pqDriver, pgxStdlibDriver,
		)
	}

	return &Driver{config: config}, nil
}

// Driver holds the connection config and a handle to the database
// connection.
type Driver struct {
	config Config
	conn   *sql.DB
}

func (d *Driver) Dialect() string {
	return "psql"
}

// Assemble connects and loads the full catalog snapshot.
func (d *Driver) Assemble(ctx context.Context) (*catalog.Catalog, error) {
	if d.config.DSN == "" {
		return nil, fmt.Errorf("database dsn is not set")
	}

	if err := d.connect(ctx); err != nil {
		return nil, err
	}

	return catalog.BuildCatalog(ctx, d, d.config.Concurrency)
}

func (d *Driver) connect(ctx context.Context) error {
	if d.conn != nil {
		return nil
	}

	driverName := "postgres"
	if d.config.Driver == pgxStdlibDriver {
		driverName = "pgx"
	}

	conn, err := sql.Open(driverName, d.config.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	d.conn = conn

	return nil
}

// Close the underlying connection.
func (d *Driver) Close() error {
	if d.conn == nil {
		return nil
	}

	return d.conn.Close()
}

const keyClause = "(CASE WHEN table_schema <> $1 THEN table_schema || '.' ELSE '' END || table_name)"

// TablesInfo retrieves all table names from the information_schema.
func (d *Driver) TablesInfo(ctx context.Context) ([]catalog.TableInfo, error) {
	query := fmt.Sprintf(`SELECT
	  %s AS "key",
	  table_schema AS "schema",
	  table_name AS "name"
	FROM information_schema.tables
	WHERE table_schema = ANY($2)
	  AND table_type = 'BASE TABLE'
	ORDER BY table_name`, keyClause)

	infos, err := stdscan.All(
		ctx, d.conn, scan.StructMapper[catalog.TableInfo](),
		query, d.config.SharedSchema, d.config.Schemas,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load table infos: %w", err)
	}

	return infos, nil
}

// TableDetails loads the column list of a single table.
func (d *Driver) TableDetails(ctx context.Context, info catalog.TableInfo) (string, string, []catalog.Column, error) {
	query := `SELECT
	c.column_name,
	c.data_type,
	c.udt_name,
	coalesce(c.column_default, '') AS column_default,
	coalesce(col_description(('"' || c.table_schema || '"."' || c.table_name || '"')::regclass::oid, c.ordinal_position), '') AS column_comment,
	c.is_nullable = 'YES' AS is_nullable,
	(c.is_generated = 'ALWAYS') AS is_generated,
	(c.is_identity = 'YES' OR c.column_default LIKE 'nextval%') AS is_identity
	FROM information_schema.columns AS c
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position`

	rows, err := d.conn.QueryContext(ctx, query, info.Schema, info.Name)
	if err != nil {
		return "", "", nil, err
	}
	defer rows.Close()

	var columns []catalog.Column
	for rows.Next() {
		var colName, dataType, udtName, colDefault, comment string
		var nullable, generated, identity bool
		if err := rows.Scan(&colName, &dataType, &udtName, &colDefault, &comment, &nullable, &generated, &identity); err != nil {
			return "", "", nil, fmt.Errorf("unable to scan for table %s: %w", info.Key, err)
		}

		columns = append(columns, catalog.Column{
			Name:      colName,
			DBType:    dataType,
			Type:      translateColumnType(dataType, udtName),
			Default:   colDefault,
			Comment:   comment,
			Nullable:  nullable,
			Generated: generated,
			AutoIncr:  identity,
		})
	}
	if err := rows.Err(); err != nil {
		return "", "", nil, err
	}

	schema := info.Schema
	if schema == d.config.SharedSchema {
		schema = ""
	}

	return schema, info.Name, columns, nil
}

// Indexes loads all indexes in the introspected schemas keyed by table.
func (d *Driver) Indexes(ctx context.Context) (catalog.DBIndexes, error) {
	ret := catalog.DBIndexes{}

	query := `SELECT
	  n.nspname AS schema_name,
	  t.relname AS table_name,
	  i.relname AS index_name,
	  x.indisunique AS is_unique,
	  ARRAY(
	    SELECT pg_get_indexdef(x.indexrelid, k + 1, TRUE)
	    FROM generate_subscripts(x.indkey, 1) AS k
	    ORDER BY k
	  ) AS index_cols
	FROM pg_index x
	JOIN pg_class t ON t.oid = x.indrelid
	JOIN pg_class i ON i.oid = x.indexrelid
	JOIN pg_namespace n ON n.oid = t.relnamespace
	WHERE n.nspname = ANY($1)
	  AND x.indisvalid AND x.indislive
	ORDER BY n.nspname, t.relname, i.relname`

	res, err := stdscan.All(ctx, d.conn, scan.StructMapper[struct {
		SchemaName string
		TableName  string
		IndexName  string
		IsUnique   bool
		IndexCols  pq.StringArray
	}](), query, d.config.Schemas)
	if err != nil {
		return nil, err
	}

	for _, r := range res {
		key := r.TableName
		if r.SchemaName != "" && r.SchemaName != d.config.SharedSchema {
			key = r.SchemaName + "." + r.TableName
		}

		index := catalog.Index{
			Name:   r.IndexName,
			Unique: r.IsUnique,
		}
		for _, col := range r.IndexCols {
			// Expression indexes do not participate in uniqueness checks
			if !rgxValidIdentifier.MatchString(col) {
				continue
			}
			index.Columns = append(index.Columns, col)
		}

		ret[key] = append(ret[key], index)
	}

	return ret, nil
}

// DistinctValues implements catalog.DistinctValueSampler with a capped
// DISTINCT query, so a polymorphic-type scan stays bounded.
func (d *Driver) DistinctValues(ctx context.Context, table, column string, limit int) ([]string, error) {
	if !rgxValidIdentifier.MatchString(column) {
		return nil, fmt.Errorf("invalid column name %q", column)
	}
	if limit < 1 {
		limit = 1
	}

	t, err := d.qualifyTable(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL LIMIT $1`,
		pq.QuoteIdentifier(column), t, pq.QuoteIdentifier(column),
	)

	return stdscan.All(ctx, d.conn, scan.SingleColumnMapper[string], query, limit)
}

func (d *Driver) qualifyTable(key string) (string, error) {
	schema, name := d.config.SharedSchema, key
	if i := strings.IndexByte(key, '.'); i >= 0 {
		schema, name = key[:i], key[i+1:]
	}

	if !rgxValidIdentifier.MatchString(schema) || !rgxValidIdentifier.MatchString(name) {
		return "", fmt.Errorf("invalid table name %q", key)
	}

	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name), nil
}
