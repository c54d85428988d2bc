package psql

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/stephenafamo/scan"
	"github.com/stephenafamo/scan/stdscan"

	"github.com/relspect/relspect/catalog"
)

// Constraints loads every primary key, foreign key and unique
// constraint in the introspected schemas in one query, including the
// referential actions that drive cascade-flag inference.
func (d *Driver) Constraints(ctx context.Context) (catalog.DBConstraints, error) {
	ret := catalog.DBConstraints{
		PKs:     map[string]*catalog.Constraint{},
		FKs:     map[string][]catalog.ForeignKey{},
		Uniques: map[string][]catalog.Constraint{},
	}

	query := `SELECT
		nsp.nspname AS schema
		, rel.relname AS table
		, con.conname AS name
		, con.contype AS type
		, con.confdeltype AS on_delete
		, con.confupdtype AS on_update
		, max(fnsp.nspname) AS foreign_schema
		, max(out.relname) AS foreign_table
		, array_agg(local_cols.column_name ORDER BY ord.n) AS columns
		, (
			CASE WHEN con.contype = 'f'
			THEN array_agg(foreign_cols.column_name ORDER BY ord.n)
			ELSE array[]::text[] END
		) AS foreign_columns
	FROM pg_catalog.pg_constraint con

	INNER JOIN pg_catalog.pg_class rel
		ON rel.oid = con.conrelid

	LEFT JOIN pg_catalog.pg_class out
		ON out.oid = con.confrelid

	INNER JOIN pg_catalog.pg_namespace nsp
		ON nsp.oid = rel.relnamespace

	LEFT JOIN pg_catalog.pg_namespace fnsp
		ON fnsp.oid = out.relnamespace

	CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS ord(attnum, n)

	LEFT JOIN information_schema.columns local_cols
		ON local_cols.table_schema = nsp.nspname
		AND local_cols.table_name = rel.relname
		AND local_cols.ordinal_position = ord.attnum

	LEFT JOIN information_schema.columns foreign_cols
		ON foreign_cols.table_schema = fnsp.nspname
		AND foreign_cols.table_name = out.relname
		AND foreign_cols.ordinal_position = con.confkey[ord.n]

	WHERE nsp.nspname = ANY($1)
	AND con.contype IN ('p', 'f', 'u')
	GROUP BY nsp.nspname, rel.relname, name, con.contype, con.confdeltype, con.confupdtype
	ORDER BY nsp.nspname, rel.relname, name, con.contype`

	constraints, err := stdscan.All(ctx, d.conn, scan.StructMapper[struct {
		Schema         string
		Table          string
		Name           string
		Type           string
		OnDelete       string
		OnUpdate       string
		Columns        pq.StringArray
		ForeignSchema  sql.NullString
		ForeignTable   sql.NullString
		ForeignColumns pq.StringArray
	}](), query, d.config.Schemas)
	if err != nil {
		return ret, err
	}

	for _, c := range constraints {
		key := c.Table
		if c.Schema != "" && c.Schema != d.config.SharedSchema {
			key = c.Schema + "." + c.Table
		}

		switch c.Type {
		case "p":
			ret.PKs[key] = &catalog.Constraint{
				Name:    c.Name,
				Columns: c.Columns,
			}
		case "u":
			ret.Uniques[key] = append(ret.Uniques[key], catalog.Constraint{
				Name:    c.Name,
				Columns: c.Columns,
			})
		case "f":
			fkey := c.ForeignTable.String
			if c.ForeignSchema.Valid && c.ForeignSchema.String != d.config.SharedSchema {
				fkey = c.ForeignSchema.String + "." + c.ForeignTable.String
			}
			ret.FKs[key] = append(ret.FKs[key], catalog.ForeignKey{
				Name:           c.Name,
				Columns:        c.Columns,
				ForeignTable:   fkey,
				ForeignColumns: c.ForeignColumns,
				OnDelete:       referentialAction(c.OnDelete),
				OnUpdate:       referentialAction(c.OnUpdate),
			})
		}
	}

	return ret, nil
}

// referentialAction maps pg_constraint.confdeltype/confupdtype codes.
func referentialAction(code string) catalog.ReferentialAction {
	switch code {
	case "a":
		return catalog.ActionNoAction
	case "r":
		return catalog.ActionRestrict
	case "c":
		return catalog.ActionCascade
	case "n":
		return catalog.ActionSetNull
	case "d":
		return catalog.ActionSetDefault
	default:
		return catalog.ActionUnspecified
	}
}
