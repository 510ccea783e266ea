package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"pestbook/backend/internal/domain"
)

type failingTx struct {
	Snapshot
	listErr error
}

func (f *failingTx) ListAppointments(ctx context.Context, date string) ([]domain.Appointment, error) {
	return nil, f.listErr
}

func TestInsertChecked_RejectsOccupiedSlot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tx := &Snapshot{}

	first, err := InsertChecked(ctx, tx, domain.Appointment{CustomerID: 1, Date: "2024-06-03", Time: "09:00"}, now)
	if err != nil {
		t.Fatalf("InsertChecked error: %v", err)
	}
	if first.ID == "" || !first.CreatedAt.Equal(now) {
		t.Fatalf("expected id and created_at to be assigned, got %+v", first)
	}

	_, err = InsertChecked(ctx, tx, domain.Appointment{CustomerID: 2, Date: "2024-06-03", Time: "09:00"}, now)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want %v", err, ErrConflict)
	}
	if len(tx.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(tx.Items))
	}

	if _, err := InsertChecked(ctx, tx, domain.Appointment{CustomerID: 2, Date: "2024-06-04", Time: "09:00"}, now); err != nil {
		t.Fatalf("different date should not conflict: %v", err)
	}
	if _, err := InsertChecked(ctx, tx, domain.Appointment{CustomerID: 2, Date: "2024-06-03", Time: "10:30"}, now); err != nil {
		t.Fatalf("different time should not conflict: %v", err)
	}
}

func TestInsertChecked_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tx := &Snapshot{}
	id := domain.IdempotentAppointmentID("k1")

	in := domain.Appointment{ID: id, CustomerID: 1, Date: "2024-06-03", Time: "09:00", Plan: "monthly"}
	first, err := InsertChecked(ctx, tx, in, now)
	if err != nil {
		t.Fatalf("InsertChecked error: %v", err)
	}

	replay, err := InsertChecked(ctx, tx, in, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if replay.ID != first.ID || !replay.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("replay = %+v, want %+v", replay, first)
	}
	if len(tx.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(tx.Items))
	}

	changed := in
	changed.Time = "10:30"
	_, err = InsertChecked(ctx, tx, changed, now)
	if !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("err = %v, want %v", err, ErrIdempotencyConflict)
	}
}

func TestInsertChecked_PropagatesListErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := InsertChecked(context.Background(), &failingTx{listErr: boom}, domain.Appointment{Date: "2024-06-03", Time: "09:00"}, time.Now())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestSnapshot_DeleteDoesNotAliasCallerSlices(t *testing.T) {
	ctx := context.Background()
	s := &Snapshot{Items: []domain.Appointment{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	before := s.All()

	deleted, err := s.DeleteAppointment(ctx, "a")
	if err != nil {
		t.Fatalf("DeleteAppointment error: %v", err)
	}
	if deleted.ID != "a" {
		t.Fatalf("deleted id = %q, want %q", deleted.ID, "a")
	}
	if before[0].ID != "a" || before[1].ID != "b" {
		t.Fatalf("copy returned by All was mutated: %+v", before)
	}
	if _, err := s.DeleteAppointment(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrNotFound)
	}
}
