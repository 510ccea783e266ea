// Package storetest holds the behaviour every store.AppointmentRepository
// implementation must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/store"
)

// Run exercises repo constructors returned by newRepo. Each subtest gets a
// fresh, empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) store.AppointmentRepository) {
	t.Run("insert assigns id and created_at", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		before := time.Now().Add(-time.Second)

		a, err := repo.Insert(ctx, domain.Appointment{CustomerID: 1, Date: "2024-06-03", Time: "09:00", Plan: "monthly"})
		if err != nil {
			t.Fatalf("Insert error: %v", err)
		}
		if !strings.HasPrefix(a.ID, "apt_") {
			t.Fatalf("id = %q, want apt_ prefix", a.ID)
		}
		if a.CreatedAt.Before(before) {
			t.Fatalf("created_at = %v, want >= %v", a.CreatedAt, before)
		}

		rows, err := repo.ListByDate(ctx, "2024-06-03")
		if err != nil {
			t.Fatalf("ListByDate error: %v", err)
		}
		if len(rows) != 1 || rows[0].ID != a.ID || rows[0].Time != "09:00" || rows[0].Plan != "monthly" {
			t.Fatalf("ListByDate = %+v, want the inserted record", rows)
		}
	})

	t.Run("same slot conflicts and store is unchanged", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		if _, err := repo.Insert(ctx, domain.Appointment{CustomerID: 1, Date: "2024-06-03", Time: "09:00"}); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
		_, err := repo.Insert(ctx, domain.Appointment{CustomerID: 2, Date: "2024-06-03", Time: "09:00"})
		if !errors.Is(err, store.ErrConflict) {
			t.Fatalf("err = %v, want %v", err, store.ErrConflict)
		}

		all, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll error: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("len(all) = %d, want 1", len(all))
		}
	})

	t.Run("list by date filters exactly", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, in := range []domain.Appointment{
			{CustomerID: 1, Date: "2024-06-03", Time: "09:00"},
			{CustomerID: 1, Date: "2024-06-04", Time: "09:00"},
			{CustomerID: 2, Date: "2024-06-03", Time: "13:00"},
		} {
			if _, err := repo.Insert(ctx, in); err != nil {
				t.Fatalf("Insert(%+v) error: %v", in, err)
			}
		}

		rows, err := repo.ListByDate(ctx, "2024-06-03")
		if err != nil {
			t.Fatalf("ListByDate error: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("len(rows) = %d, want 2", len(rows))
		}
		for _, r := range rows {
			if r.Date != "2024-06-03" {
				t.Fatalf("unexpected date %q", r.Date)
			}
		}

		none, err := repo.ListByDate(ctx, "2024-06-05")
		if err != nil {
			t.Fatalf("ListByDate error: %v", err)
		}
		if len(none) != 0 {
			t.Fatalf("len(none) = %d, want 0", len(none))
		}
	})

	t.Run("delete removes and second delete is not found", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, err := repo.Insert(ctx, domain.Appointment{CustomerID: 1, Date: "2024-06-03", Time: "09:00"})
		if err != nil {
			t.Fatalf("Insert error: %v", err)
		}

		deleted, err := repo.DeleteByID(ctx, a.ID)
		if err != nil {
			t.Fatalf("DeleteByID error: %v", err)
		}
		if deleted.ID != a.ID || deleted.Date != a.Date || deleted.Time != a.Time {
			t.Fatalf("deleted = %+v, want %+v", deleted, a)
		}

		all, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll error: %v", err)
		}
		for _, r := range all {
			if r.ID == a.ID {
				t.Fatalf("deleted appointment still listed")
			}
		}

		if _, err := repo.DeleteByID(ctx, a.ID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("err = %v, want %v", err, store.ErrNotFound)
		}
		if _, err := repo.DeleteByID(ctx, "apt_doesnotexist"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("err = %v, want %v", err, store.ErrNotFound)
		}

		if _, err := repo.Insert(ctx, domain.Appointment{CustomerID: 2, Date: "2024-06-03", Time: "09:00"}); err != nil {
			t.Fatalf("slot should be free after cancel: %v", err)
		}
	})

	t.Run("idempotent replay returns stored record", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		in := domain.Appointment{ID: domain.IdempotentAppointmentID("contract"), CustomerID: 1, Date: "2024-06-03", Time: "09:00"}

		first, err := repo.Insert(ctx, in)
		if err != nil {
			t.Fatalf("Insert error: %v", err)
		}
		again, err := repo.Insert(ctx, in)
		if err != nil {
			t.Fatalf("replay error: %v", err)
		}
		if again.ID != first.ID {
			t.Fatalf("replay id = %q, want %q", again.ID, first.ID)
		}

		changed := in
		changed.Notes = "different"
		if _, err := repo.Insert(ctx, changed); !errors.Is(err, store.ErrIdempotencyConflict) {
			t.Fatalf("err = %v, want %v", err, store.ErrIdempotencyConflict)
		}

		all, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll error: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("len(all) = %d, want 1", len(all))
		}
	})

	t.Run("concurrent inserts for one slot leave a single survivor", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const workers = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
			other     []error
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.Insert(ctx, domain.Appointment{CustomerID: domain.CustomerID(i + 1), Date: "2024-06-03", Time: "10:30"})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, store.ErrConflict):
					conflicts++
				default:
					other = append(other, err)
				}
			}(i)
		}
		wg.Wait()

		if len(other) > 0 {
			t.Fatalf("unexpected errors: %v", other)
		}
		if succeeded != 1 || conflicts != workers-1 {
			t.Fatalf("succeeded=%d conflicts=%d, want 1 and %d", succeeded, conflicts, workers-1)
		}
	})

	t.Run("many slots across dates never share a key", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		dates := []string{"2024-06-03", "2024-06-04"}
		times := []string{"09:00", "10:30", "09:00", "13:00", "10:30"}
		for _, d := range dates {
			for _, tm := range times {
				_, err := repo.Insert(ctx, domain.Appointment{CustomerID: 1, Date: d, Time: tm})
				if err != nil && !errors.Is(err, store.ErrConflict) {
					t.Fatalf("Insert error: %v", err)
				}
			}
		}

		all, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll error: %v", err)
		}
		seen := map[string]bool{}
		for _, a := range all {
			key := fmt.Sprintf("%s %s", a.Date, a.Time)
			if seen[key] {
				t.Fatalf("duplicate booking for %s", key)
			}
			seen[key] = true
		}
		if len(all) != 6 {
			t.Fatalf("len(all) = %d, want 6", len(all))
		}
	})
}
