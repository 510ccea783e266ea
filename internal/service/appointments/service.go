package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/lock"
	"pestbook/backend/internal/observability/metrics"
	"pestbook/backend/internal/store"
)

const maxIdempotencyKeyLen = 256

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	repo    store.AppointmentRepository
	catalog *domain.SlotCatalog
	locker  lock.Locker
	metrics *metrics.BookingMetrics
}

type Option func(*Service)

func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(repo store.AppointmentRepository, catalog *domain.SlotCatalog, opts ...Option) *Service {
	if catalog == nil {
		catalog = domain.DefaultSlotCatalog()
	}
	s := &Service{
		repo:    repo,
		catalog: catalog,
		locker:  lock.NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type BookInput struct {
	CustomerID     domain.CustomerID
	Date           string
	Time           string
	Plan           string
	Service        string
	Notes          string
	IdempotencyKey string
}

type BookResult struct {
	Appointment domain.Appointment
	// Replayed is set when an earlier request with the same idempotency key
	// already created this appointment.
	Replayed bool
}

func (s *Service) Book(ctx context.Context, in BookInput) (BookResult, error) {
	appt, err := s.validate(in)
	if err != nil {
		s.metrics.ObserveBooking("invalid")
		return BookResult{}, err
	}

	res, err := s.book(ctx, appt)
	switch {
	case err == nil && res.Replayed:
		s.metrics.ObserveBooking("replayed")
	case err == nil:
		s.metrics.ObserveBooking("created")
	case errors.Is(err, store.ErrConflict):
		s.metrics.ObserveBooking("conflict")
	case errors.Is(err, store.ErrIdempotencyConflict):
		s.metrics.ObserveBooking("idempotency_conflict")
	default:
		s.metrics.ObserveBooking("error")
	}
	return res, err
}

func (s *Service) validate(in BookInput) (domain.Appointment, error) {
	date := strings.TrimSpace(in.Date)
	slot := strings.TrimSpace(in.Time)

	if in.CustomerID <= 0 {
		return domain.Appointment{}, validationError("Missing customerId")
	}
	if date == "" {
		return domain.Appointment{}, validationError("Missing date")
	}
	if slot == "" {
		return domain.Appointment{}, validationError("Missing time")
	}

	day, err := domain.ParseDate(date)
	if err != nil {
		return domain.Appointment{}, validationError("Invalid date")
	}
	if !domain.ValidSlotTime(slot) {
		return domain.Appointment{}, validationError("Invalid time")
	}
	if !s.catalog.IsOpenDay(day) {
		return domain.Appointment{}, validationError("We are closed on that day.")
	}
	if !s.catalog.Contains(slot) {
		return domain.Appointment{}, validationError("That time is not an available slot.")
	}

	appt := domain.Appointment{
		CustomerID: in.CustomerID,
		Date:       date,
		Time:       slot,
		Plan:       strings.TrimSpace(in.Plan),
		Service:    strings.TrimSpace(in.Service),
		Notes:      strings.TrimSpace(in.Notes),
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > maxIdempotencyKeyLen {
			return domain.Appointment{}, validationError("Idempotency-Key too long")
		}
		appt.ID = domain.IdempotentAppointmentID(key)
	}
	return appt, nil
}

func (s *Service) book(ctx context.Context, appt domain.Appointment) (BookResult, error) {
	started := time.Now()
	unlock, err := s.locker.Lock(ctx, "appointments:"+appt.Date)
	if err != nil {
		return BookResult{}, fmt.Errorf("lock date %s: %w", appt.Date, err)
	}
	defer unlock()
	s.metrics.ObserveLockWait(time.Since(started).Seconds())

	if appt.ID != "" {
		existing, ok, err := s.findOnDate(ctx, appt)
		if err != nil {
			return BookResult{}, err
		}
		if ok {
			if !existing.SameBooking(appt) {
				return BookResult{}, store.ErrIdempotencyConflict
			}
			return BookResult{Appointment: existing, Replayed: true}, nil
		}
	}

	created, err := s.repo.Insert(ctx, appt)
	if err != nil {
		return BookResult{}, err
	}
	return BookResult{Appointment: created}, nil
}

func (s *Service) findOnDate(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error) {
	items, err := s.repo.ListByDate(ctx, appt.Date)
	if err != nil {
		return domain.Appointment{}, false, err
	}
	for _, item := range items {
		if item.ID == appt.ID {
			return item, true, nil
		}
	}
	return domain.Appointment{}, false, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (domain.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		s.metrics.ObserveCancel("invalid")
		return domain.Appointment{}, validationError("Missing id")
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	switch {
	case err == nil:
		s.metrics.ObserveCancel("deleted")
	case errors.Is(err, store.ErrNotFound):
		s.metrics.ObserveCancel("not_found")
	default:
		s.metrics.ObserveCancel("error")
	}
	return deleted, err
}

// List returns every appointment when date is empty, otherwise the ones on date.
func (s *Service) List(ctx context.Context, date string) ([]domain.Appointment, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.repo.ListAll(ctx)
	}
	if _, err := domain.ParseDate(date); err != nil {
		return nil, validationError("Invalid date")
	}
	return s.repo.ListByDate(ctx, date)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) Catalog() *domain.SlotCatalog {
	return s.catalog
}
