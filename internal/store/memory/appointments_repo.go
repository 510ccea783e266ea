package memory

import (
	"context"
	"sync"
	"time"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/store"
)

// AppointmentRepo keeps appointments in process memory. Contents are lost on
// restart; use it for tests and demos.
type AppointmentRepo struct {
	mu   sync.Mutex
	snap store.Snapshot
	now  func() time.Time
}

func NewAppointmentRepo(seed ...domain.Appointment) *AppointmentRepo {
	items := make([]domain.Appointment, len(seed))
	copy(items, seed)
	return &AppointmentRepo{snap: store.Snapshot{Items: items}, now: time.Now}
}

func (r *AppointmentRepo) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap.All(), nil
}

func (r *AppointmentRepo) ListByDate(ctx context.Context, date string) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap.ListAppointments(ctx, date)
}

func (r *AppointmentRepo) Insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return store.InsertChecked(ctx, &r.snap, appt, r.now())
}

func (r *AppointmentRepo) DeleteByID(ctx context.Context, id string) (domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap.DeleteAppointment(ctx, id)
}

func (r *AppointmentRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}
