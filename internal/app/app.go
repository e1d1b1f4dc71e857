// Package app builds the service graph from configuration. The API server
// and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-assistant/internal/archive"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/command"
	"github.com/dvloznov/finance-assistant/internal/command/records"
	"github.com/dvloznov/finance-assistant/internal/config"
	"github.com/dvloznov/finance-assistant/internal/infra/bigquery"
	"github.com/dvloznov/finance-assistant/internal/infra/memory"
	"github.com/dvloznov/finance-assistant/internal/infra/postgres"
	"github.com/dvloznov/finance-assistant/internal/llm"
	"github.com/dvloznov/finance-assistant/internal/password"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/dvloznov/finance-assistant/internal/synthetic"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// App holds the wired components.
type App struct {
	Store    store.Store
	Records  *records.Store
	Archive  archive.Sink
	Commands *command.Service
	Chat     *assistant.Chat
	Advisor  *assistant.Advisor

	closers []func() error
}

// New wires every component around client. Callers own client.
func New(ctx context.Context, cfg *config.Config, client llm.Client, log zerolog.Logger) (*App, error) {
	a := &App{Records: records.NewStore()}

	s, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.Store = s
	a.closers = append(a.closers, s.Close)

	if cfg.SeedDefaults() {
		n, err := store.SeedDefaultCategories(ctx, s)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app.New: seeding default categories: %w", err)
		}
		log.Info().Int("created", n).Msg("default categories seeded")
	}

	a.Archive = archive.Nop{}
	if cfg.ModelOutputBucket != "" {
		gcs, err := archive.NewGCS(ctx, cfg.ModelOutputBucket, clientOptions(cfg)...)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app.New: %w", err)
		}
		queue := archive.NewQueue(gcs, archive.QueueConfig{}, log)
		a.Archive = queue
		a.closers = append(a.closers, gcs.Close, queue.Close)
		log.Info().Str("bucket", cfg.ModelOutputBucket).Msg("model outputs archived to GCS")
	}

	a.Commands = command.NewService(
		command.NewClassifier(client, log),
		command.NewValidator(cfg.MaxSyntheticCount),
		command.NewDispatcher(s, password.NewBcrypt(cfg.BcryptCost), synthetic.NewRandom(), log),
		a.Records,
		a.Archive,
		log,
	)

	gate := assistant.NewGate(client, log)
	a.Chat = assistant.NewChat(client, gate, s, log)
	a.Advisor = assistant.NewAdvisor(client, s, log)

	return a, nil
}

// OpenStore opens the backend named by cfg.StoreBackend.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn().Msg("using the in-memory store, data is lost on exit")
		return memory.NewStore(), nil

	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return s, nil

	case config.BackendBigQuery:
		s, err := bigquery.NewStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, clientOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("OpenStore: unknown backend %q", cfg.StoreBackend)
}

func clientOptions(cfg *config.Config) []option.ClientOption {
	if cfg.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
}

// Close releases the store and archive clients in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
