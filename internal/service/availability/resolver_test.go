package availability

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/store/memory"
)

type fakeLister struct {
	listByDateFn func(ctx context.Context, date string) ([]domain.Appointment, error)
}

func (f *fakeLister) ListByDate(ctx context.Context, date string) ([]domain.Appointment, error) {
	if f.listByDateFn == nil {
		panic("ListByDate not configured")
	}
	return f.listByDateFn(ctx, date)
}

func TestAvailableSlots_EmptyStore(t *testing.T) {
	r := NewResolver(memory.NewAppointmentRepo(), nil, nil)

	got, err := r.AvailableSlots(context.Background(), "2024-06-03")
	if err != nil {
		t.Fatalf("AvailableSlots error: %v", err)
	}
	want := []string{"09:00", "10:30", "13:00", "15:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
}

func TestAvailableSlots_RemovesBookedTimes(t *testing.T) {
	repo := memory.NewAppointmentRepo(domain.Appointment{
		ID: "apt_1", CustomerID: 1, Date: "2024-06-03", Time: "10:30",
	}, domain.Appointment{
		ID: "apt_2", CustomerID: 2, Date: "2024-06-04", Time: "09:00",
	})
	r := NewResolver(repo, nil, nil)

	got, err := r.AvailableSlots(context.Background(), "2024-06-03")
	if err != nil {
		t.Fatalf("AvailableSlots error: %v", err)
	}
	want := []string{"09:00", "13:00", "15:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
}

func TestAvailableSlots_ClosedDayIsEmpty(t *testing.T) {
	r := NewResolver(&fakeLister{}, nil, nil)

	got, err := r.AvailableSlots(context.Background(), "2024-06-08")
	if err != nil {
		t.Fatalf("AvailableSlots error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("slots = %#v, want empty non-nil", got)
	}
}

func TestAvailableSlots_InvalidDate(t *testing.T) {
	r := NewResolver(&fakeLister{}, nil, nil)

	for _, date := range []string{"", "2024-13-01", "06/03/2024", "2024-6-3"} {
		_, err := r.AvailableSlots(context.Background(), date)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("date %q: error type = %T, want *ValidationError", date, err)
		}
		if vErr.Error() != "Invalid date" {
			t.Fatalf("date %q: error = %q, want %q", date, vErr.Error(), "Invalid date")
		}
	}
}

func TestAvailableSlots_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := NewResolver(&fakeLister{
		listByDateFn: func(ctx context.Context, date string) ([]domain.Appointment, error) {
			return nil, boom
		},
	}, nil, nil)

	if _, err := r.AvailableSlots(context.Background(), "2024-06-03"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestAvailableSlots_ComplementOfBooked(t *testing.T) {
	catalog, err := domain.NewSlotCatalog([]string{"08:00", "12:00", "16:00"}, nil)
	if err != nil {
		t.Fatalf("NewSlotCatalog error: %v", err)
	}
	repo := memory.NewAppointmentRepo(domain.Appointment{
		ID: "apt_1", CustomerID: 1, Date: "2024-06-08", Time: "12:00",
	})
	r := NewResolver(repo, catalog, nil)

	got, err := r.AvailableSlots(context.Background(), "2024-06-08")
	if err != nil {
		t.Fatalf("AvailableSlots error: %v", err)
	}

	booked, _ := repo.ListByDate(context.Background(), "2024-06-08")
	seen := map[string]bool{}
	for _, s := range got {
		if !catalog.Contains(s) {
			t.Fatalf("slot %q not in catalog", s)
		}
		seen[s] = true
	}
	for _, a := range booked {
		if seen[a.Time] {
			t.Fatalf("booked slot %q reported available", a.Time)
		}
		seen[a.Time] = true
	}
	if len(seen) != len(catalog.BaseSlots()) {
		t.Fatalf("available+booked = %d slots, want %d", len(seen), len(catalog.BaseSlots()))
	}
}
