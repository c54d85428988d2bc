package infer

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/relspect/relspect/catalog"
)

func TestDetectSelfManyToMany(t *testing.T) {
	t.Parallel()

	cat := catalog.New([]catalog.Table{
		fkTable("users"),
		{
			Key: "followers",
			Columns: []catalog.Column{
				{Name: "follower_id", Type: catalog.TypeInt},
				{Name: "followed_id", Type: catalog.TypeInt},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "followers_pkey", Columns: []string{"follower_id", "followed_id"}},
				Foreign: []catalog.ForeignKey{
					{
						Name:           "followers_follower_id_fkey",
						Columns:        []string{"follower_id"},
						ForeignTable:   "users",
						ForeignColumns: []string{"id"},
					},
					{
						Name:           "followers_followed_id_fkey",
						Columns:        []string{"followed_id"},
						ForeignTable:   "users",
						ForeignColumns: []string{"id"},
					},
				},
			},
		},
	})

	c := newCoordinator(t, cat, Options{})

	got, err := c.Analyze(context.Background(), "users")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	cand := findCandidate(t, got, BelongsToMany, "users")
	if cand.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %s, want high for a strict junction", cand.Confidence)
	}

	wantPivot := &PivotInfo{
		Table:      "followers",
		ForeignKey: "follower_id",
		RelatedKey: "followed_id",
	}
	if diff := cmp.Diff(wantPivot, cand.Pivot); diff != "" {
		t.Errorf("pivot mismatch (-want +got):\n%s", diff)
	}
}

// A pivot with three keys could pair the table with two others. Naming
// conformance picks the primary pairing; the other stays as a
// low-confidence secondary instead of being discarded.
func TestDetectAmbiguousPivot(t *testing.T) {
	t.Parallel()

	cat := catalog.New([]catalog.Table{
		fkTable("posts"),
		fkTable("tags"),
		fkTable("users"),
		{
			Key: "post_tag",
			Columns: []catalog.Column{
				{Name: "post_id", Type: catalog.TypeInt},
				{Name: "tag_id", Type: catalog.TypeInt},
				{Name: "user_id", Type: catalog.TypeInt},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "post_tag_pkey", Columns: []string{"post_id", "tag_id"}},
				Foreign: []catalog.ForeignKey{
					{
						Name:           "post_tag_post_id_fkey",
						Columns:        []string{"post_id"},
						ForeignTable:   "posts",
						ForeignColumns: []string{"id"},
					},
					{
						Name:           "post_tag_tag_id_fkey",
						Columns:        []string{"tag_id"},
						ForeignTable:   "tags",
						ForeignColumns: []string{"id"},
					},
					{
						Name:           "post_tag_user_id_fkey",
						Columns:        []string{"user_id"},
						ForeignTable:   "users",
						ForeignColumns: []string{"id"},
					},
				},
			},
		},
	})

	c := newCoordinator(t, cat, Options{})

	got, err := c.Analyze(context.Background(), "posts")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	primary := findCandidate(t, got, BelongsToMany, "tags")
	if primary.Confidence != ConfidenceHigh {
		t.Errorf("conforming pairing confidence = %s, want high", primary.Confidence)
	}
	if primary.Pivot == nil || !primary.Pivot.NameConforms {
		t.Error("conforming pairing should be marked as such")
	}

	secondary := findCandidate(t, got, BelongsToMany, "users")
	if secondary.Confidence != ConfidenceLow {
		t.Errorf("secondary pairing confidence = %s, want low", secondary.Confidence)
	}
}

// A pivot with two keys to the analyzed table and one to a third table
// supports three readings: the self pairing and one pairing per source
// key. The first source key gives the primary; the rest survive as
// low-confidence secondaries.
func TestDetectPivotWithMultipleSourceKeys(t *testing.T) {
	t.Parallel()

	cat := catalog.New([]catalog.Table{
		fkTable("users"),
		fkTable("projects"),
		{
			Key: "collaborations",
			Columns: []catalog.Column{
				{Name: "owner_id", Type: catalog.TypeInt},
				{Name: "collaborator_id", Type: catalog.TypeInt},
				{Name: "project_id", Type: catalog.TypeInt},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{
					Name:    "collaborations_pkey",
					Columns: []string{"owner_id", "collaborator_id", "project_id"},
				},
				Foreign: []catalog.ForeignKey{
					{
						Name:           "collaborations_owner_id_fkey",
						Columns:        []string{"owner_id"},
						ForeignTable:   "users",
						ForeignColumns: []string{"id"},
					},
					{
						Name:           "collaborations_collaborator_id_fkey",
						Columns:        []string{"collaborator_id"},
						ForeignTable:   "users",
						ForeignColumns: []string{"id"},
					},
					{
						Name:           "collaborations_project_id_fkey",
						Columns:        []string{"project_id"},
						ForeignTable:   "projects",
						ForeignColumns: []string{"id"},
					},
				},
			},
		},
	})

	c := newCoordinator(t, cat, Options{})

	got, err := c.Analyze(context.Background(), "users")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	self := findCandidate(t, got, BelongsToMany, "users")
	if self.Confidence != ConfidenceLow {
		t.Errorf("self pairing confidence = %s, want low with a third table present", self.Confidence)
	}
	wantSelfPivot := &PivotInfo{
		Table:      "collaborations",
		ForeignKey: "owner_id",
		RelatedKey: "collaborator_id",
	}
	if diff := cmp.Diff(wantSelfPivot, self.Pivot); diff != "" {
		t.Errorf("self pivot mismatch (-want +got):\n%s", diff)
	}

	var toProjects []Candidate
	for _, cand := range got.Relationships {
		if cand.Kind == BelongsToMany && cand.Related == "projects" {
			toProjects = append(toProjects, cand)
		}
	}
	if len(toProjects) != 2 {
		t.Fatalf("got %d pairings with projects, want one per source key", len(toProjects))
	}

	byKey := map[string]Candidate{}
	for _, cand := range toProjects {
		if cand.Pivot == nil {
			t.Fatalf("pairing without pivot info: %+v", cand)
		}
		byKey[cand.Pivot.ForeignKey] = cand
	}

	if owner, ok := byKey["owner_id"]; !ok || owner.Confidence != ConfidenceHigh {
		t.Errorf("owner_id pairing = %+v, want high confidence", byKey["owner_id"])
	}
	if collab, ok := byKey["collaborator_id"]; !ok || collab.Confidence != ConfidenceLow {
		t.Errorf("collaborator_id pairing = %+v, want low-confidence secondary", byKey["collaborator_id"])
	}
}

// A table that merely happens to own two foreign keys, with business
// columns and a non-conforming name, is still reported as a pivot but
// at low confidence.
func TestDetectBusinessTablePivot(t *testing.T) {
	t.Parallel()

	cat := catalog.New([]catalog.Table{
		fkTable("users"),
		fkTable("groups"),
		{
			Key: "memberships",
			Columns: []catalog.Column{
				{Name: "id", Type: catalog.TypeInt, AutoIncr: true},
				{Name: "user_id", Type: catalog.TypeInt},
				{Name: "group_id", Type: catalog.TypeInt},
				{Name: "note", Type: catalog.TypeText, Nullable: true},
				{Name: "created_at", Type: catalog.TypeDateTime},
				{Name: "updated_at", Type: catalog.TypeDateTime},
			},
			Constraints: catalog.Constraints{
				Primary: &catalog.Constraint{Name: "memberships_pkey", Columns: []string{"id"}},
				Foreign: []catalog.ForeignKey{
					{
						Name:           "memberships_user_id_fkey",
						Columns:        []string{"user_id"},
						ForeignTable:   "users",
						ForeignColumns: []string{"id"},
					},
					{
						Name:           "memberships_group_id_fkey",
						Columns:        []string{"group_id"},
						ForeignTable:   "groups",
						ForeignColumns: []string{"id"},
					},
				},
			},
		},
	})

	c := newCoordinator(t, cat, Options{})

	got, err := c.Analyze(context.Background(), "users")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	cand := findCandidate(t, got, BelongsToMany, "groups")
	if cand.Confidence != ConfidenceLow {
		t.Errorf("confidence = %s, want low for a business-shaped pivot", cand.Confidence)
	}

	wantPivot := &PivotInfo{
		Table:         "memberships",
		ForeignKey:    "user_id",
		RelatedKey:    "group_id",
		Fields:        []string{"note"},
		HasTimestamps: true,
	}
	if diff := cmp.Diff(wantPivot, cand.Pivot); diff != "" {
		t.Errorf("pivot mismatch (-want +got):\n%s", diff)
	}
}
