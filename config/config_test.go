package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/relspect/relspect/infer"
	"github.com/relspect/relspect/naming"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "relspect.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Concurrency != 10 {
		t.Errorf("Concurrency = %d, want 10", c.Concurrency)
	}
	if c.SampleLimit != 100 {
		t.Errorf("SampleLimit = %d, want 100", c.SampleLimit)
	}
	if c.MorphPolicy != string(infer.MorphAcceptUnsampled) {
		t.Errorf("MorphPolicy = %q, want %q", c.MorphPolicy, infer.MorphAcceptUnsampled)
	}
	if c.SoftDeleteColumn != "deleted_at" {
		t.Errorf("SoftDeleteColumn = %q, want deleted_at", c.SoftDeleteColumn)
	}
	if diff := cmp.Diff(naming.DefaultPatterns(), c.Patterns); diff != "" {
		t.Errorf("Patterns mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
dsn: postgres://localhost:5432/app
schemas: [public, audit]
concurrency: 4
morph_policy: reject-unsampled
relationships:
  users:
    - kind: belongsToMany
      related: roles
      method: AssignedRoles
patterns:
  foreign_key_templates: ["{singular}_{key}", "{key}"]
  morph_type_suffix: _type
  morph_id_suffix: _id
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.DSN != "postgres://localhost:5432/app" {
		t.Errorf("DSN = %q", c.DSN)
	}
	if diff := cmp.Diff([]string{"public", "audit"}, c.Schemas); diff != "" {
		t.Errorf("Schemas mismatch (-want +got):\n%s", diff)
	}
	if c.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", c.Concurrency)
	}
	if c.MorphPolicy != string(infer.MorphRejectUnsampled) {
		t.Errorf("MorphPolicy = %q", c.MorphPolicy)
	}

	want := map[string][]infer.Override{
		"users": {{Kind: "belongsToMany", Related: "roles", Method: "AssignedRoles"}},
	}
	if diff := cmp.Diff(want, c.Overrides); diff != "" {
		t.Errorf("Overrides mismatch (-want +got):\n%s", diff)
	}

	wantTemplates := []string{"{singular}_{key}", "{key}"}
	if diff := cmp.Diff(wantTemplates, c.Patterns.ForeignKeyTemplates); diff != "" {
		t.Errorf("ForeignKeyTemplates mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "dsn: postgres://file\nconcurrency: 4\n")

	t.Setenv("RELSPECT_DSN", "postgres://env")
	t.Setenv("RELSPECT_SOFT_DELETE_COLUMN", "removed_at")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.DSN != "postgres://env" {
		t.Errorf("DSN = %q, want the env value", c.DSN)
	}
	if c.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want the file value", c.Concurrency)
	}
	if c.SoftDeleteColumn != "removed_at" {
		t.Errorf("SoftDeleteColumn = %q, want removed_at", c.SoftDeleteColumn)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load should fail for an explicitly named missing file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad morph policy",
			mutate:  func(c *Config) { c.MorphPolicy = "maybe" },
			wantErr: "unknown morph_policy",
		},
		{
			name: "bad naming template",
			mutate: func(c *Config) {
				c.Patterns.ForeignKeyTemplates = []string{"{owner}_{key}"}
			},
			wantErr: "unknown placeholder",
		},
		{
			name: "bad override kind",
			mutate: func(c *Config) {
				c.Overrides = map[string][]infer.Override{
					"users": {{Kind: "owns_many", Related: "posts"}},
				}
			},
			wantErr: "unknown relationship kind",
		},
		{
			name: "empty override table",
			mutate: func(c *Config) {
				c.Overrides = map[string][]infer.Override{
					"": {{Kind: "has_many", Related: "posts"}},
				}
			},
			wantErr: "empty table name",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := Config{Patterns: naming.DefaultPatterns()}
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestInferOptions(t *testing.T) {
	t.Parallel()

	c := Config{
		Patterns:         naming.DefaultPatterns(),
		MorphPolicy:      string(infer.MorphRejectUnsampled),
		SoftDeleteColumn: "removed_at",
		SampleLimit:      50,
		Concurrency:      2,
	}

	opts := c.InferOptions(nil)
	if opts.MorphPolicy != infer.MorphRejectUnsampled {
		t.Errorf("MorphPolicy = %q", opts.MorphPolicy)
	}
	if opts.SoftDeleteColumn != "removed_at" || opts.SampleLimit != 50 || opts.Concurrency != 2 {
		t.Errorf("options not carried over: %+v", opts)
	}

	c.NoSampling = true
	opts = c.InferOptions(stubSampler{})
	if opts.Sampler != nil {
		t.Error("no_sampling should discard the sampler")
	}
}

type stubSampler struct{}

func (stubSampler) DistinctValues(_ context.Context, _, _ string, _ int) ([]string, error) {
	return nil, nil
}
