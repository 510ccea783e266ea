package store

import (
	"context"

	"pestbook/backend/internal/domain"
)

// Snapshot is a slice-backed ScheduleTx for backends that load the whole
// collection into memory. It is not safe for concurrent use.
type Snapshot struct {
	Items []domain.Appointment
}

func (s *Snapshot) ListAppointments(ctx context.Context, date string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range s.Items {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Snapshot) FindAppointment(ctx context.Context, id string) (domain.Appointment, bool, error) {
	for _, a := range s.Items {
		if a.ID == id {
			return a, true, nil
		}
	}
	return domain.Appointment{}, false, nil
}

func (s *Snapshot) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	s.Items = append(s.Items, appt)
	return appt, nil
}

func (s *Snapshot) DeleteAppointment(ctx context.Context, id string) (domain.Appointment, error) {
	for i, a := range s.Items {
		if a.ID == id {
			s.Items = append(s.Items[:i:i], s.Items[i+1:]...)
			return a, nil
		}
	}
	return domain.Appointment{}, ErrNotFound
}

// All returns a copy of the items.
func (s *Snapshot) All() []domain.Appointment {
	out := make([]domain.Appointment, len(s.Items))
	copy(out, s.Items)
	return out
}
