package postgres

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: store.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: store.ErrDuplicate},
		{name: "wrapped unique violation", err: fmt.Errorf("copy: %w", &pgconn.PgError{Code: "23505"}), want: store.ErrDuplicate},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, want: store.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate("op", tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("translate() = %v, want %v in chain", got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("original error dropped from chain")
			}
		})
	}
}

func TestTranslate_Passthrough(t *testing.T) {
	if translate("op", nil) != nil {
		t.Error("nil error translated to non-nil")
	}

	other := &pgconn.PgError{Code: "42P01"}
	got := translate("op", other)
	if errors.Is(got, store.ErrNotFound) || errors.Is(got, store.ErrDuplicate) {
		t.Errorf("unrelated error mapped to sentinel: %v", got)
	}
}

func TestMigrationsFS(t *testing.T) {
	ups, err := fs.Glob(MigrationsFS(), "*.up.sql")
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	downs, _ := fs.Glob(MigrationsFS(), "*.down.sql")
	if len(ups) == 0 || len(ups) != len(downs) {
		t.Errorf("up migrations %v do not pair with down migrations %v", ups, downs)
	}
}
