package memory

import (
	"context"
	"testing"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/store"
	"pestbook/backend/internal/store/storetest"
)

func TestAppointmentRepoContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.AppointmentRepository {
		return NewAppointmentRepo()
	})
}

func TestNewAppointmentRepo_CopiesSeed(t *testing.T) {
	seed := []domain.Appointment{{ID: "apt_seed", CustomerID: 1, Date: "2024-06-03", Time: "09:00"}}
	repo := NewAppointmentRepo(seed...)
	seed[0].Time = "10:30"

	rows, err := repo.ListByDate(context.Background(), "2024-06-03")
	if err != nil {
		t.Fatalf("ListByDate error: %v", err)
	}
	if len(rows) != 1 || rows[0].Time != "09:00" {
		t.Fatalf("rows = %+v, want seeded 09:00", rows)
	}
}
