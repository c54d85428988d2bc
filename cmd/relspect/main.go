package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/relspect/relspect/catalog"
	"github.com/relspect/relspect/config"
	"github.com/relspect/relspect/infer"
	"github.com/relspect/relspect/introspect/psql"
	"github.com/relspect/relspect/introspect/sqlite"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	app := &cli.App{
		Name:      "relspect",
		Usage:     "Infer table relationships from your database schema",
		UsageText: "relspect [-c FILE] <psql|sqlite>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfigPath,
				Usage:   "Load configuration from `FILE`",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "psql",
				Usage:  "Analyze a PostgreSQL database",
				Action: runPsql,
			},
			{
				Name:   "sqlite",
				Usage:  "Analyze a SQLite database",
				Action: runSqlite,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func runPsql(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	d, err := psql.New(psql.Config{
		DSN:         cfg.DSN,
		Schemas:     cfg.Schemas,
		Driver:      cfg.Driver,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		return err
	}
	defer d.Close()

	return run(c.Context, cfg, d, d)
}

func runSqlite(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	d := sqlite.New(sqlite.Config{
		DSN:         cfg.DSN,
		Concurrency: cfg.Concurrency,
	})
	defer d.Close()

	return run(c.Context, cfg, d, d)
}

func run(ctx context.Context, cfg config.Config, provider catalog.Provider, sampler catalog.DistinctValueSampler) error {
	cat, err := provider.Assemble(ctx)
	if err != nil {
		return fmt.Errorf("assembling catalog: %w", err)
	}

	coord, err := infer.New(cat, cfg.InferOptions(sampler))
	if err != nil {
		return err
	}

	result := coord.AnalyzeAll(ctx)
	for table, err := range result.Errors {
		log.Printf("analysis of %s failed: %v", table, err)
	}

	out := io.Writer(os.Stdout)
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report(result)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}

type jsonReport struct {
	Sets    []infer.RelationshipSet `json:"sets"`
	Profile infer.ConventionProfile `json:"profile"`
	Errors  map[string]string       `json:"errors,omitempty"`
}

func report(result infer.SchemaAnalysis) jsonReport {
	r := jsonReport{
		Sets:    result.Sets,
		Profile: result.Profile,
	}
	if len(result.Errors) > 0 {
		r.Errors = make(map[string]string, len(result.Errors))
		for table, err := range result.Errors {
			r.Errors[table] = err.Error()
		}
	}

	return r
}
