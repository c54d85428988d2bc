package infer

import "errors"

// ErrTableNotFound is returned by Analyze when the requested table is
// absent from the catalog snapshot. It is fatal for that call only; a
// whole-schema run reports it per table and carries on.
var ErrTableNotFound = errors.New("table not found in schema catalog")
