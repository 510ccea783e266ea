package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/store"
)

const (
	uniqueViolation    = "23505"
	dateTimeConstraint = "appointments_date_time_key"
)

type AppointmentRepo struct {
	db  *bun.DB
	now func() time.Time
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db, now: time.Now}
}

type scheduleTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr(`"date" ASC, "time" ASC`).
		Scan(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return rows, nil
}

func (r *AppointmentRepo) ListByDate(ctx context.Context, date string) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where(`"date" = ?`, date).
		OrderExpr(`"time" ASC`).
		Scan(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return rows, nil
}

func (r *AppointmentRepo) Insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.InDateTransaction(ctx, appt.Date, func(ctx context.Context, tx store.ScheduleTx) error {
		a, err := store.InsertChecked(ctx, tx, appt, r.now())
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) DeleteByID(ctx context.Context, id string) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		a, err := scheduleTx{tx: tx}.DeleteAppointment(ctx, id)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return domain.Appointment{}, storageError(err)
	}
	return out, nil
}

func (r *AppointmentRepo) Ping(ctx context.Context) error {
	return storageError(r.db.PingContext(ctx))
}

// InDateTransaction runs fn in a transaction that holds the advisory lock for
// date, serializing writers that target the same day.
func (r *AppointmentRepo) InDateTransaction(ctx context.Context, date string, fn func(ctx context.Context, tx store.ScheduleTx) error) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDate(ctx, tx, date); err != nil {
			return err
		}
		return fn(ctx, scheduleTx{tx: tx})
	})
	return storageError(err)
}

func lockDate(ctx context.Context, tx bun.Tx, date string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", "appointments:"+date).Exec(ctx)
	return err
}

func (r scheduleTx) ListAppointments(ctx context.Context, date string) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.tx.NewSelect().
		Model(&rows).
		Where(`"date" = ?`, date).
		OrderExpr(`"time" ASC`).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r scheduleTx) FindAppointment(ctx context.Context, id string) (domain.Appointment, bool, error) {
	var row domain.Appointment
	err := r.tx.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Appointment{}, false, nil
	}
	if err != nil {
		return domain.Appointment{}, false, err
	}
	return row, true, nil
}

func (r scheduleTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ID:         appt.ID,
		CustomerID: appt.CustomerID,
		Date:       appt.Date,
		Time:       appt.Time,
		Plan:       appt.Plan,
		Service:    appt.Service,
		Notes:      appt.Notes,
		CreatedAt:  appt.CreatedAt,
	}

	if _, err := r.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Appointment{}, mapInsertError(err)
	}
	return m, nil
}

func (r scheduleTx) DeleteAppointment(ctx context.Context, id string) (domain.Appointment, error) {
	existing, ok, err := r.FindAppointment(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}

	res, err := r.tx.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return existing, nil
}

// mapInsertError turns unique violations into store sentinels. The date/time
// constraint backs up the advisory lock; a primary key clash means a replayed
// idempotency key raced its first use.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == dateTimeConstraint {
			return store.ErrConflict
		}
		return store.ErrIdempotencyConflict
	}
	return err
}

// storageError wraps unexpected database failures so callers can match
// store.ErrStorageUnavailable; store sentinels and context errors pass through.
func storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrIdempotencyConflict),
		errors.Is(err, store.ErrStorageUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", store.ErrStorageUnavailable, err)
	}
}
