// Package bigquery implements store.Store on BigQuery. BigQuery has no
// uniqueness or foreign key constraints, so the checks the store contract
// requires run as guarded DML statements.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-assistant/internal/store"
	"google.golang.org/api/option"
)

const (
	usersTable        = "users"
	categoriesTable   = "categories"
	transactionsTable = "transactions"
)

// Store is the BigQuery-backed store.Store. It holds one shared client.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	now       func() time.Time
}

// NewStore creates a client for projectID and targets datasetID.
func NewStore(ctx context.Context, projectID, datasetID string, opts ...option.ClientOption) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewStore: project id is required")
	}
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}
	return NewStoreWithClient(client, projectID, datasetID), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *bigquery.Client, projectID, datasetID string) *Store {
	if datasetID == "" {
		datasetID = "finance"
	}
	return &Store{client: client, projectID: projectID, datasetID: datasetID, now: time.Now}
}

// Close closes the BigQuery client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// table returns the backquoted, fully qualified name of a table.
func (s *Store) table(name string) string {
	return tableRef(s.projectID, s.datasetID, name)
}

func tableRef(projectID, datasetID, name string) string {
	return "`" + projectID + "." + datasetID + "." + name + "`"
}

// runDML runs a DML statement and returns the number of affected rows.
func (s *Store) runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics == nil {
		return 0, nil
	}
	stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics)
	if !ok {
		return 0, nil
	}
	return stats.NumDMLAffectedRows, nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
