package availability

import (
	"context"
	"fmt"
	"strings"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/observability/metrics"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Lister is the read side of the appointment store.
type Lister interface {
	ListByDate(ctx context.Context, date string) ([]domain.Appointment, error)
}

type Resolver struct {
	repo    Lister
	catalog *domain.SlotCatalog
	metrics *metrics.BookingMetrics
}

func NewResolver(repo Lister, catalog *domain.SlotCatalog, m *metrics.BookingMetrics) *Resolver {
	if catalog == nil {
		catalog = domain.DefaultSlotCatalog()
	}
	return &Resolver{repo: repo, catalog: catalog, metrics: m}
}

func (r *Resolver) Catalog() *domain.SlotCatalog {
	return r.catalog
}

// AvailableSlots returns the catalog slots on date that nobody has booked,
// in catalog order. Closed days yield an empty, non-nil slice.
func (r *Resolver) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	day, err := domain.ParseDate(strings.TrimSpace(date))
	if err != nil {
		r.metrics.ObserveAvailability("invalid")
		return nil, validationError("Invalid date")
	}
	if !r.catalog.IsOpenDay(day) {
		r.metrics.ObserveAvailability("closed")
		return []string{}, nil
	}

	booked, err := r.repo.ListByDate(ctx, day.Format(domain.DateLayout))
	if err != nil {
		r.metrics.ObserveAvailability("error")
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	taken := make(map[string]struct{}, len(booked))
	for _, a := range booked {
		taken[a.Time] = struct{}{}
	}

	out := make([]string, 0, len(r.catalog.BaseSlots()))
	for _, slot := range r.catalog.BaseSlots() {
		if _, ok := taken[slot]; ok {
			continue
		}
		out = append(out, slot)
	}
	r.metrics.ObserveAvailability("ok")
	return out, nil
}
