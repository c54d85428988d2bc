// Package catalog holds the structural metadata of one database schema:
// tables, columns, keys, uniqueness constraints and indexes. A Catalog
// is a read-only snapshot; the inference engine never mutates it.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Catalog is the snapshot of one database's structural metadata.
type Catalog struct {
	Tables []Table `json:"tables"`

	byKey map[string]int
}

// New builds a Catalog from tables, indexing them by key.
func New(tables []Table) *Catalog {
	c := &Catalog{
		Tables: tables,
		byKey:  make(map[string]int, len(tables)),
	}
	for i, t := range tables {
		c.byKey[t.Key] = i
	}

	return c
}

// Get a table by key.
func (c *Catalog) Get(key string) (Table, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Table{}, false
	}

	return c.Tables[i], true
}

// Keys of every table in the schema, in snapshot order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.Tables))
	for i, t := range c.Tables {
		keys[i] = t.Key
	}

	return keys
}

// Provider assembles a full catalog snapshot, usually from a live
// database connection.
type Provider interface {
	// The dialect
	Dialect() string
	// Assemble the database information into a catalog snapshot
	Assemble(ctx context.Context) (*Catalog, error)
}

// DistinctValueSampler is an optional capability of a provider: fetch up
// to limit distinct values of a column. Used for polymorphic-type
// sampling; absence of this capability is never fatal.
type DistinctValueSampler interface {
	DistinctValues(ctx context.Context, table, column string, limit int) ([]string, error)
}

// Constructor breaks down the functionality required to implement a
// provider such that BuildCatalog can be used to reduce duplication in
// provider implementations.
type Constructor interface {
	// Load basic info about all tables
	TablesInfo(ctx context.Context) ([]TableInfo, error)
	// Load details about a single table
	TableDetails(ctx context.Context, info TableInfo) (schema, name string, _ []Column, _ error)
	// Load all constraints in the database, keyed by TableInfo.Key
	Constraints(ctx context.Context) (DBConstraints, error)
	// Load all indexes in the database, keyed by TableInfo.Key
	Indexes(ctx context.Context) (DBIndexes, error)
}

type TableInfo struct {
	Key    string
	Schema string
	Name   string
}

// BuildCatalog loads the metadata for all tables, fetching table details
// concurrently with a bounded number of workers.
func BuildCatalog(ctx context.Context, c Constructor, concurrency int) (*Catalog, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	infos, err := c.TablesInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get table names: %w", err)
	}

	ret, err := tables(ctx, c, concurrency, infos)
	if err != nil {
		return nil, fmt.Errorf("unable to load tables: %w", err)
	}

	constraints, err := c.Constraints(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load constraints: %w", err)
	}

	indexes, err := c.Indexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load indexes: %w", err)
	}

	for i, t := range ret {
		ret[i].Constraints.Primary = constraints.PKs[t.Key]
		ret[i].Constraints.Foreign = constraints.FKs[t.Key]
		ret[i].Constraints.Uniques = constraints.Uniques[t.Key]
		ret[i].Indexes = indexes[t.Key]
	}

	return New(ret), nil
}

func tables(ctx context.Context, c Constructor, concurrency int, infos []TableInfo) ([]Table, error) {
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key < infos[j].Key
	})

	ret := make([]Table, len(infos))

	limiter := newConcurrencyLimiter(concurrency)
	wg := sync.WaitGroup{}
	errs := make(chan error, len(infos))
	for i, info := range infos {
		wg.Add(1)
		limiter.get()
		go func(i int, info TableInfo) {
			defer wg.Done()
			defer limiter.put()
			t, err := table(ctx, c, info)
			if err != nil {
				errs <- err
				return
			}
			ret[i] = t
		}(i, info)
	}

	wg.Wait()

	// return first error occurred if any
	if len(errs) > 0 {
		return nil, <-errs
	}

	return ret, nil
}

func table(ctx context.Context, c Constructor, info TableInfo) (Table, error) {
	var err error
	t := Table{
		Key: info.Key,
	}

	if t.Schema, t.Name, t.Columns, err = c.TableDetails(ctx, info); err != nil {
		return Table{}, fmt.Errorf("unable to fetch table column info (%s): %w", info.Key, err)
	}

	return t, nil
}

// concurrencyLimiter is a helper structure that can limit the amount of
// concurrently processed requests
type concurrencyLimiter chan struct{}

func newConcurrencyLimiter(capacity int) concurrencyLimiter {
	ret := make(concurrencyLimiter, capacity)
	for i := 0; i < capacity; i++ {
		ret <- struct{}{}
	}

	return ret
}

func (c concurrencyLimiter) get() {
	<-c
}

func (c concurrencyLimiter) put() {
	c <- struct{}{}
}
