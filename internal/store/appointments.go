package store

import (
	"context"

	"pestbook/backend/internal/domain"
)

// AppointmentRepository persists appointments. Insert must run its conflict
// check and write in the same critical section.
type AppointmentRepository interface {
	ListAll(ctx context.Context) ([]domain.Appointment, error)
	ListByDate(ctx context.Context, date string) ([]domain.Appointment, error)
	Insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	DeleteByID(ctx context.Context, id string) (domain.Appointment, error)
	Ping(ctx context.Context) error
}
