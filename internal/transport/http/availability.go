package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/service/availability"
)

type availabilityResolver interface {
	AvailableSlots(ctx context.Context, date string) ([]string, error)
}

type AvailabilityHandler struct {
	resolver availabilityResolver
	log      *slog.Logger
	now      func() time.Time
}

func NewAvailabilityHandler(resolver availabilityResolver, log *slog.Logger) *AvailabilityHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AvailabilityHandler{
		resolver: resolver,
		log:      log.With(slog.String("component", "http.availability")),
		now:      time.Now,
	}
}

type availabilityResponse struct {
	OK   bool     `json:"ok"`
	Date string   `json:"date"`
	Data []string `json:"data"`
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = h.now().UTC().Format(domain.DateLayout)
	}

	slots, err := h.resolver.AvailableSlots(r.Context(), date)
	if err != nil {
		var vErr *availability.ValidationError
		if errors.As(err, &vErr) {
			h.log.Warn("invalid request", slog.Any("err", err), slog.String("date", date))
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		h.log.Error("availability lookup failed", slog.Any("err", err), slog.String("date", date))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{OK: true, Date: date, Data: slots})
}
