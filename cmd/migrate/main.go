// Command migrate applies schema migrations to the configured backend.
//
//	migrate -backend bigquery -project my-proj -dataset finance
//	migrate -backend postgres -database-url postgres://...
package main

import (
	"context"
	"flag"
	"os"

	"github.com/dvloznov/finance-assistant/internal/infra/postgres"
	"github.com/dvloznov/finance-assistant/internal/logger"
)

var (
	backend       = flag.String("backend", "bigquery", "Migration target: bigquery or postgres")
	projectID     = flag.String("project", os.Getenv("GCP_PROJECT_ID"), "GCP project ID (bigquery)")
	datasetID     = flag.String("dataset", "finance", "BigQuery dataset ID")
	appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	migrationsDir = flag.String("migrations", "migrations/bigquery", "Path to BigQuery migrations directory")
	databaseURL   = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL (postgres)")
	logLevel      = flag.String("log-level", "info", "Log level")
)

func main() {
	flag.Parse()

	log := logger.New(*logLevel)
	ctx := context.Background()

	switch *backend {
	case "postgres":
		if *databaseURL == "" {
			log.Fatal().Msg("-database-url (or DATABASE_URL) is required for the postgres backend")
		}
		if err := postgres.RunMigrations(*databaseURL, log); err != nil {
			log.Fatal().Err(err).Msg("postgres migration failed")
		}

	case "bigquery":
		if *projectID == "" {
			log.Fatal().Msg("-project flag is required. Please specify your GCP project ID.")
		}
		dir, err := locateDir(*migrationsDir)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to locate migrations")
		}
		migrations, err := readMigrations(os.DirFS(dir), *projectID, *datasetID, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read migrations")
		}
		log.Info().Int("count", len(migrations)).Str("dir", dir).Msg("found migration files")

		r, err := newBigQueryRunner(ctx, *projectID, *datasetID, *appliedBy)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create BigQuery client")
		}
		defer r.Close()

		applied, err := r.Apply(ctx, migrations, log)
		if err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		if applied == 0 {
			log.Info().Msg("no new migrations to apply, database is up to date")
		} else {
			log.Info().Int("applied", applied).Msg("migrations applied")
		}

	default:
		log.Fatal().Str("backend", *backend).Msg("unknown backend, use bigquery or postgres")
	}
}
