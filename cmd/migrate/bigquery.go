package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

type bigQueryRunner struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	appliedBy string
}

func newBigQueryRunner(ctx context.Context, projectID, datasetID, appliedBy string) (*bigQueryRunner, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &bigQueryRunner{client: client, projectID: projectID, datasetID: datasetID, appliedBy: appliedBy}, nil
}

func (r *bigQueryRunner) Close() error {
	return r.client.Close()
}

// Apply runs every pending migration in order and returns how many ran.
func (r *bigQueryRunner) Apply(ctx context.Context, migrations []Migration, log zerolog.Logger) (int, error) {
	if err := r.ensureSchemaMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	applied, err := r.appliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("get applied migrations: %w", err)
	}
	log.Info().Int("count", len(applied)).Msg("found already applied migrations")

	todo, err := pending(migrations, applied)
	if err != nil {
		return 0, err
	}

	for i, m := range todo {
		mlog := log.With().Int("version", m.Version).Str("name", m.Name).Logger()
		mlog.Info().Msg("running migration")

		if err := r.exec(ctx, r.client.Query(m.SQL)); err != nil {
			return i, fmt.Errorf("execute migration %s: %w", m.Filename, err)
		}
		if err := r.record(ctx, m); err != nil {
			return i, fmt.Errorf("record migration %s: %w", m.Filename, err)
		}
		mlog.Info().Msg("migration applied")
	}
	return len(todo), nil
}

func (r *bigQueryRunner) migrationsTable() string {
	return "`" + r.projectID + "." + r.datasetID + ".schema_migrations`"
}

func (r *bigQueryRunner) ensureSchemaMigrationsTable(ctx context.Context) error {
	return r.exec(ctx, r.client.Query(`
		CREATE TABLE IF NOT EXISTS `+r.migrationsTable()+` (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`))
}

func (r *bigQueryRunner) appliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	it, err := r.client.Query(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM ` + r.migrationsTable() + `
		ORDER BY version ASC
	`).Read(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "Not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}
		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

func (r *bigQueryRunner) record(ctx context.Context, m Migration) error {
	q := r.client.Query(`
		INSERT INTO ` + r.migrationsTable() + `
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: r.appliedBy},
	}
	return r.exec(ctx, q)
}

func (r *bigQueryRunner) exec(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
