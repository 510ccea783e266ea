package store

import (
	"context"
	"time"

	"pestbook/backend/internal/domain"
)

// ScheduleTx is the view of the appointment table available inside a
// backend's critical section.
type ScheduleTx interface {
	ListAppointments(ctx context.Context, date string) ([]domain.Appointment, error)
	FindAppointment(ctx context.Context, id string) (domain.Appointment, bool, error)
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) (domain.Appointment, error)
}

// InsertChecked inserts appt unless its (date, time) is already taken.
//
// A pre-assigned id is treated as an idempotency token: an existing record
// with the same id and the same booking fields is returned unchanged, a
// record with different fields yields ErrIdempotencyConflict.
func InsertChecked(ctx context.Context, tx ScheduleTx, appt domain.Appointment, now time.Time) (domain.Appointment, error) {
	if appt.ID != "" {
		existing, ok, err := tx.FindAppointment(ctx, appt.ID)
		if err != nil {
			return domain.Appointment{}, err
		}
		if ok {
			if !existing.SameBooking(appt) {
				return domain.Appointment{}, ErrIdempotencyConflict
			}
			return existing, nil
		}
	}

	booked, err := tx.ListAppointments(ctx, appt.Date)
	if err != nil {
		return domain.Appointment{}, err
	}
	for _, b := range booked {
		if b.Time == appt.Time {
			return domain.Appointment{}, ErrConflict
		}
	}

	if err := appt.Stamp(now); err != nil {
		return domain.Appointment{}, err
	}
	return tx.CreateAppointment(ctx, appt)
}
