package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"pestbook/backend/internal/store"
)

func TestMapInsertError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "date time unique violation is a conflict",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "appointments_date_time_key"},
			want: store.ErrConflict,
		},
		{
			name: "primary key violation is an idempotency conflict",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "appointments_pkey"}),
			want: store.ErrIdempotencyConflict,
		},
		{
			name: "other pg errors pass through",
			err:  &pgconn.PgError{Code: "23514", ConstraintName: "appointments_time_check"},
		},
		{
			name: "non pg errors pass through",
			err:  other,
			want: other,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapInsertError(tt.err)
			if tt.want == nil {
				if got != tt.err {
					t.Fatalf("err = %v, want unchanged %v", got, tt.err)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("err = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStorageError(t *testing.T) {
	if storageError(nil) != nil {
		t.Fatalf("storageError(nil) must be nil")
	}

	for _, passthrough := range []error{store.ErrConflict, store.ErrNotFound, store.ErrIdempotencyConflict, context.Canceled} {
		if got := storageError(passthrough); got != passthrough {
			t.Fatalf("storageError(%v) = %v, want unchanged", passthrough, got)
		}
	}

	cause := errors.New("connection refused")
	got := storageError(cause)
	if !errors.Is(got, store.ErrStorageUnavailable) {
		t.Fatalf("err = %v, want %v", got, store.ErrStorageUnavailable)
	}
	if !errors.Is(got, cause) {
		t.Fatalf("err = %v, want wrapped %v", got, cause)
	}
}
