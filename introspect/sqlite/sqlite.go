// Package sqlite introspects a SQLite database into a catalog snapshot
// using the sqlite_master table and PRAGMA functions.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/stephenafamo/scan"
	"github.com/stephenafamo/scan/stdscan"

	"github.com/relspect/relspect/catalog"

	_ "github.com/mattn/go-sqlite3"
)

var rgxValidIdentifier = regexp.MustCompile(`(?i)^[a-z_][a-z0-9_$]*$`)

type Config struct {
	// Path to the database file, or a DSN
	DSN string
	// How many tables to fetch in parallel
	Concurrency int
}

func New(config Config) *Driver {
	if config.Concurrency < 1 {
		config.Concurrency = 10
	}

	return &Driver{config: config}
}

// Driver holds the connection config and a handle to the database
// connection.
type Driver struct {
	config Config
	conn   *sql.DB
}

func (d *Driver) Dialect() string {
	return "sqlite"
}

// Assemble connects and loads the full catalog snapshot.
func (d *Driver) Assemble(ctx context.Context) (*catalog.Catalog, error) {
	if d.config.DSN == "" {
		return nil, fmt.Errorf("database dsn is not set")
	}

	if d.conn == nil {
		conn, err := sql.Open("sqlite3", d.config.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := conn.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		d.conn = conn
	}

	return catalog.BuildCatalog(ctx, d, d.config.Concurrency)
}

// Close the underlying connection.
func (d *Driver) Close() error {
	if d.conn == nil {
		return nil
	}

	return d.conn.Close()
}

func (d *Driver) TablesInfo(ctx context.Context) ([]catalog.TableInfo, error) {
	query := `SELECT name FROM sqlite_master
	WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	ORDER BY name`

	names, err := stdscan.All(ctx, d.conn, scan.SingleColumnMapper[string], query)
	if err != nil {
		return nil, fmt.Errorf("unable to load table infos: %w", err)
	}

	infos := make([]catalog.TableInfo, len(names))
	for i, name := range names {
		infos[i] = catalog.TableInfo{Key: name, Name: name}
	}

	return infos, nil
}

func (d *Driver) TableDetails(ctx context.Context, info catalog.TableInfo) (string, string, []catalog.Column, error) {
	rows, err := d.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_xinfo('%s')", escape(info.Name)))
	if err != nil {
		return "", "", nil, err
	}
	defer rows.Close()

	var columns []catalog.Column
	for rows.Next() {
		var cid, notNull, pk, hidden int
		var name, typ string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk, &hidden); err != nil {
			return "", "", nil, fmt.Errorf("unable to scan for table %s: %w", info.Key, err)
		}
		if hidden != 0 {
			continue
		}

		columns = append(columns, catalog.Column{
			Name:     name,
			DBType:   typ,
			Type:     translateColumnType(typ),
			Default:  dflt.String,
			Nullable: notNull == 0 && pk == 0,
			// In SQLite an INTEGER PRIMARY KEY aliases the rowid
			AutoIncr: pk == 1 && strings.EqualFold(typ, "integer"),
		})
	}
	if err := rows.Err(); err != nil {
		return "", "", nil, err
	}

	return "", info.Name, columns, nil
}

func (d *Driver) Constraints(ctx context.Context) (catalog.DBConstraints, error) {
	ret := catalog.DBConstraints{
		PKs:     map[string]*catalog.Constraint{},
		FKs:     map[string][]catalog.ForeignKey{},
		Uniques: map[string][]catalog.Constraint{},
	}

	infos, err := d.TablesInfo(ctx)
	if err != nil {
		return ret, err
	}

	for _, info := range infos {
		if err := d.tableConstraints(ctx, info.Name, &ret); err != nil {
			return ret, fmt.Errorf("constraints for %s: %w", info.Name, err)
		}
	}

	return ret, nil
}

func (d *Driver) tableConstraints(ctx context.Context, table string, ret *catalog.DBConstraints) error {
	if pk, err := d.primaryKey(ctx, table); err != nil {
		return err
	} else if pk != nil {
		ret.PKs[table] = pk
	}

	fks, err := d.foreignKeys(ctx, table)
	if err != nil {
		return err
	}
	ret.FKs[table] = fks

	uniques, err := d.uniques(ctx, table)
	if err != nil {
		return err
	}
	ret.Uniques[table] = uniques

	return nil
}

func (d *Driver) primaryKey(ctx context.Context, table string) (*catalog.Constraint, error) {
	rows, err := d.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info('%s')", escape(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type pkCol struct {
		name string
		pos  int
	}
	var pkCols []pkCol

	for rows.Next() {
		var cid, notNull, pk int
		var name, typ string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		if pk > 0 {
			pkCols = append(pkCols, pkCol{name: name, pos: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(pkCols) == 0 {
		return nil, nil
	}

	sort.Slice(pkCols, func(i, j int) bool { return pkCols[i].pos < pkCols[j].pos })

	cols := make([]string, len(pkCols))
	for i, c := range pkCols {
		cols[i] = c.name
	}

	return &catalog.Constraint{Name: "pk_" + table, Columns: cols}, nil
}

func (d *Driver) foreignKeys(ctx context.Context, table string) ([]catalog.ForeignKey, error) {
	rows, err := d.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list('%s')", escape(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Multi-column keys share an id and arrive ordered by seq
	byID := map[int]*catalog.ForeignKey{}
	var order []int

	for rows.Next() {
		var id, seq int
		var ftable, from, onUpdate, onDelete, match string
		var to sql.NullString
		if err := rows.Scan(&id, &seq, &ftable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		fk, ok := byID[id]
		if !ok {
			fk = &catalog.ForeignKey{
				Name:         fmt.Sprintf("fk_%s_%d", table, id),
				ForeignTable: ftable,
				OnDelete:     referentialAction(onDelete),
				OnUpdate:     referentialAction(onUpdate),
			}
			byID[id] = fk
			order = append(order, id)
		}

		fk.Columns = append(fk.Columns, from)
		if to.Valid {
			fk.ForeignColumns = append(fk.ForeignColumns, to.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]catalog.ForeignKey, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}

	return out, nil
}

func (d *Driver) uniques(ctx context.Context, table string) ([]catalog.Constraint, error) {
	query := fmt.Sprintf(`SELECT name FROM pragma_index_list('%s')
	WHERE "unique" = 1 AND origin IN ('u', 'c') ORDER BY seq`, escape(table))

	names, err := stdscan.All(ctx, d.conn, scan.SingleColumnMapper[string], query)
	if err != nil {
		return nil, err
	}

	var out []catalog.Constraint
	for _, name := range names {
		cols, err := stdscan.All(
			ctx, d.conn, scan.SingleColumnMapper[string],
			fmt.Sprintf(`SELECT name FROM pragma_index_info('%s') ORDER BY seqno`, escape(name)),
		)
		if err != nil {
			return nil, err
		}
		out = append(out, catalog.Constraint{Name: name, Columns: cols})
	}

	return out, nil
}

// Indexes loads all indexes keyed by table, including the implicit
// unique indexes SQLite creates for constraints.
func (d *Driver) Indexes(ctx context.Context) (catalog.DBIndexes, error) {
	ret := catalog.DBIndexes{}

	infos, err := d.TablesInfo(ctx)
	if err != nil {
		return nil, err
	}

	for _, info := range infos {
		rows, err := d.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list('%s')", escape(info.Name)))
		if err != nil {
			return nil, err
		}

		type idxRow struct {
			name   string
			unique bool
		}
		var idxRows []idxRow

		for rows.Next() {
			var seq, unique, partial int
			var name, origin string
			if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
				rows.Close()
				return nil, err
			}
			idxRows = append(idxRows, idxRow{name: name, unique: unique == 1})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		for _, r := range idxRows {
			cols, err := stdscan.All(
				ctx, d.conn, scan.SingleColumnMapper[string],
				fmt.Sprintf(`SELECT name FROM pragma_index_info('%s') ORDER BY seqno`, escape(r.name)),
			)
			if err != nil {
				return nil, err
			}
			ret[info.Key] = append(ret[info.Key], catalog.Index{
				Name:    r.name,
				Columns: cols,
				Unique:  r.unique,
			})
		}
	}

	return ret, nil
}

// DistinctValues implements catalog.DistinctValueSampler with a capped
// DISTINCT query.
func (d *Driver) DistinctValues(ctx context.Context, table, column string, limit int) ([]string, error) {
	if !rgxValidIdentifier.MatchString(table) || !rgxValidIdentifier.MatchString(column) {
		return nil, fmt.Errorf("invalid identifier %q.%q", table, column)
	}
	if limit < 1 {
		limit = 1
	}

	query := fmt.Sprintf(
		`SELECT DISTINCT "%s" FROM "%s" WHERE "%s" IS NOT NULL LIMIT ?`,
		column, table, column,
	)

	return stdscan.All(ctx, d.conn, scan.SingleColumnMapper[string], query, limit)
}

func referentialAction(s string) catalog.ReferentialAction {
	switch strings.ToUpper(s) {
	case "CASCADE":
		return catalog.ActionCascade
	case "SET NULL":
		return catalog.ActionSetNull
	case "SET DEFAULT":
		return catalog.ActionSetDefault
	case "RESTRICT":
		return catalog.ActionRestrict
	case "NO ACTION":
		return catalog.ActionNoAction
	default:
		return catalog.ActionUnspecified
	}
}

func translateColumnType(typ string) catalog.ColumnType {
	typ = strings.ToLower(typ)
	// Strip any type arguments: varchar(255) -> varchar
	if i := strings.IndexByte(typ, '('); i >= 0 {
		typ = strings.TrimSpace(typ[:i])
	}

	switch {
	case strings.Contains(typ, "int"):
		return catalog.TypeInt
	case typ == "real", typ == "double", typ == "float":
		return catalog.TypeFloat
	case typ == "numeric", typ == "decimal":
		return catalog.TypeDecimal
	case strings.Contains(typ, "char"), typ == "clob":
		return catalog.TypeString
	case typ == "text":
		return catalog.TypeText
	case typ == "boolean", typ == "bool":
		return catalog.TypeBool
	case strings.Contains(typ, "timestamp"), typ == "datetime":
		return catalog.TypeDateTime
	case typ == "date":
		return catalog.TypeDate
	case typ == "json", typ == "jsonb":
		return catalog.TypeJSON
	case typ == "blob":
		return catalog.TypeBinary
	case typ == "uuid":
		return catalog.TypeUUID
	default:
		return catalog.TypeUnknown
	}
}

// escape single quotes for use inside PRAGMA string literals
func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
