package infer

import (
	"context"
	"fmt"
	"testing"

	"github.com/relspect/relspect/catalog"
)

// testCatalog builds the snapshot most tests run against: a blog-style
// schema with one of every relationship shape.
func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Table{
		{
			Key: "users",
			Columns: []catalog.Column{
				{Name: "id", Type: catalog.TypeInt, AutoIncr: true},
				{Name: "name", Type: catalog.TypeString},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "users_pkey", Columns: []string{"id"}},
			},
		},
		{
			Key: "posts",
			Columns: []catalog.Column{
				{Name: "id", Type: catalog.TypeInt, AutoIncr: true},
				{Name: "user_id", Type: catalog.TypeInt},
				{Name: "title", Type: catalog.TypeString},
				{Name: "deleted_at", Type: catalog.TypeDateTime, Nullable: true},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "posts_pkey", Columns: []string{"id"}},
				Foreign: []catalog.ForeignKey{{
					Name:           "posts_user_id_fkey",
					Columns:        []string{"user_id"},
					ForeignTable:   "users",
					ForeignColumns: []string{"id"},
					OnDelete:       catalog.ActionCascade,
				}},
			},
		},
		{
			Key: "profiles",
			Columns: []catalog.Column{
				{Name: "id", Type: catalog.TypeInt, AutoIncr: true},
				{Name: "user_id", Type: catalog.TypeInt},
				{Name: "bio", Type: catalog.TypeText, Nullable: true},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "profiles_pkey", Columns: []string{"id"}},
				Foreign: []catalog.ForeignKey{{
					Name:           "profiles_user_id_fkey",
					Columns:        []string{"user_id"},
					ForeignTable:   "users",
					ForeignColumns: []string{"id"},
					OnDelete:       catalog.ActionCascade,
				}},
				Uniques: []catalog.Constraint{{
					Name:    "profiles_user_id_key",
					Columns: []string{"user_id"},
				}},
			},
		},
		{
			Key: "roles",
			Columns: []catalog.Column{
				{Name: "id", Type: catalog.TypeInt, AutoIncr: true},
				{Name: "label", Type: catalog.TypeString},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "roles_pkey", Columns: []string{"id"}},
			},
		},
		{
			Key: "role_user",
			Columns: []catalog.Column{
				{Name: "role_id", Type: catalog.TypeInt},
				{Name: "user_id", Type: catalog.TypeInt},
				{Name: "assigned_at", Type: catalog.TypeDateTime},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "role_user_pkey", Columns: []string{"role_id", "user_id"}},
				Foreign: []catalog.ForeignKey{
					{
						Name:           "role_user_user_id_fkey",
						Columns:        []string{"user_id"},
						ForeignTable:   "users",
						ForeignColumns: []string{"id"},
						OnDelete:       catalog.ActionCascade,
					},
					{
						Name:           "role_user_role_id_fkey",
						Columns:        []string{"role_id"},
						ForeignTable:   "roles",
						ForeignColumns: []string{"id"},
						OnDelete:       catalog.ActionCascade,
					},
				},
			},
		},
		{
			Key: "comments",
			Columns: []catalog.Column{
				{Name: "id", Type: catalog.TypeInt, AutoIncr: true},
				{Name: "commentable_type", Type: catalog.TypeString},
				{Name: "commentable_id", Type: catalog.TypeInt},
				{Name: "body", Type: catalog.TypeText},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "comments_pkey", Columns: []string{"id"}},
			},
		},
		{
			Key: "images",
			Columns: []catalog.Column{
				{Name: "id", Type: catalog.TypeInt, AutoIncr: true},
				{Name: "imageable_type", Type: catalog.TypeString},
				{Name: "imageable_id", Type: catalog.TypeInt},
				{Name: "url", Type: catalog.TypeString},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "images_pkey", Columns: []string{"id"}},
				Uniques: []catalog.Constraint{{
					Name:    "images_imageable_key",
					Columns: []string{"imageable_type", "imageable_id"},
				}},
			},
		},
		{
			Key: "employees",
			Columns: []catalog.Column{
				{Name: "id", Type: catalog.TypeInt, AutoIncr: true},
				{Name: "manager_id", Type: catalog.TypeInt, Nullable: true},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "employees_pkey", Columns: []string{"id"}},
				Foreign: []catalog.ForeignKey{{
					Name:           "employees_manager_id_fkey",
					Columns:        []string{"manager_id"},
					ForeignTable:   "employees",
					ForeignColumns: []string{"id"},
					OnDelete:       catalog.ActionSetNull,
				}},
			},
		},
		{
			Key: "settings",
			Columns: []catalog.Column{
				{Name: "id", Type: catalog.TypeInt, AutoIncr: true},
				{Name: "key", Type: catalog.TypeString},
				{Name: "value", Type: catalog.TypeText},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "settings_pkey", Columns: []string{"id"}},
			},
		},
	})
}

// fakeSampler serves distinct values from a fixed map keyed by
// "table.column". Missing keys return an error, like a failed query.
type fakeSampler map[string][]string

func (f fakeSampler) DistinctValues(_ context.Context, table, column string, limit int) ([]string, error) {
	values, ok := f[table+"."+column]
	if !ok {
		return nil, fmt.Errorf("no sample data for %s.%s", table, column)
	}

	if len(values) > limit {
		values = values[:limit]
	}

	return values, nil
}

// testSampler reflects typical production data for the fixture schema.
func testSampler() fakeSampler {
	return fakeSampler{
		"comments.commentable_type": {`App\Models\Post`, `App\Models\Video`},
		"images.imageable_type":     {`App\Models\User`},
	}
}

func newCoordinator(t *testing.T, cat *catalog.Catalog, opts Options) *Coordinator {
	t.Helper()

	c, err := New(cat, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return c
}
