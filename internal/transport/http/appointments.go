package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/service/appointments"
	"pestbook/backend/internal/store"
)

const msgAlreadyBooked = "That time is already booked."

type appointmentsService interface {
	Book(ctx context.Context, in appointments.BookInput) (appointments.BookResult, error)
	Cancel(ctx context.Context, id string) (domain.Appointment, error)
	List(ctx context.Context, date string) ([]domain.Appointment, error)
}

type AppointmentsHandler struct {
	svc appointmentsService
	log *slog.Logger
}

func NewAppointmentsHandler(svc appointmentsService, log *slog.Logger) *AppointmentsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.appointments")),
	}
}

func (h *AppointmentsHandler) Routes() http.HandlerFunc {
	return methods(map[string]http.HandlerFunc{
		http.MethodGet:    h.List,
		http.MethodPost:   h.Book,
		http.MethodDelete: h.Cancel,
	})
}

type listAppointmentsResponse struct {
	OK   bool                 `json:"ok"`
	Data []domain.Appointment `json:"data"`
}

func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "list"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	items, err := h.svc.List(r.Context(), date)
	if err != nil {
		var vErr *appointments.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err), slog.String("date", date))
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		log.Error("appointments list failed", slog.Any("err", err), slog.String("date", date))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sorted := make([]domain.Appointment, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Time < sorted[j].Time
	})

	resp := listAppointmentsResponse{OK: true, Data: sorted}
	if truthy(r.URL.Query().Get("pretty")) {
		writePrettyJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type bookRequest struct {
	CustomerID json.RawMessage `json:"customerId"`
	Date       string          `json:"date"`
	Time       string          `json:"time"`
	Plan       string          `json:"plan"`
	Service    string          `json:"service"`
	Notes      string          `json:"notes"`
}

type appointmentResponse struct {
	OK bool `json:"ok"`
	domain.Appointment
}

func (h *AppointmentsHandler) Book(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "book"))

	var req bookRequest
	if status, msg, ok := decodeBody(r, &req, false); !ok {
		log.Warn("invalid request", slog.String("reason", msg))
		writeError(w, status, msg)
		return
	}

	customerID, err := domain.ParseCustomerID(req.CustomerID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_customer_id"))
		writeError(w, http.StatusBadRequest, "Invalid customerId")
		return
	}

	res, err := h.svc.Book(r.Context(), appointments.BookInput{
		CustomerID:     customerID,
		Date:           req.Date,
		Time:           req.Time,
		Plan:           req.Plan,
		Service:        req.Service,
		Notes:          req.Notes,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		var vErr *appointments.ValidationError
		switch {
		case errors.As(err, &vErr):
			log.Warn("invalid request", slog.Any("err", err))
			writeError(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, store.ErrConflict):
			log.Info("appointment slot taken", slog.String("date", req.Date), slog.String("time", req.Time))
			writeError(w, http.StatusConflict, msgAlreadyBooked)
		case errors.Is(err, store.ErrIdempotencyConflict):
			log.Info("appointment idempotency conflict", slog.String("date", req.Date), slog.String("time", req.Time))
			writeError(w, http.StatusConflict, "Idempotency-Key was already used for a different booking.")
		default:
			log.Error("appointment book failed", slog.Any("err", err), slog.String("date", req.Date), slog.String("time", req.Time))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	appt := res.Appointment
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	log.Info("appointment booked",
		slog.String("appointment_id", appt.ID),
		slog.Int64("customer_id", int64(appt.CustomerID)),
		slog.String("date", appt.Date),
		slog.String("time", appt.Time),
		slog.Bool("replayed", res.Replayed),
	)
	writeJSON(w, status, appointmentResponse{OK: true, Appointment: appt})
}

type cancelRequest struct {
	ID string `json:"id"`
}

type cancelResponse struct {
	OK      bool               `json:"ok"`
	Deleted domain.Appointment `json:"deleted"`
}

func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("op", "cancel"))

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		var req cancelRequest
		if status, msg, ok := decodeBody(r, &req, true); !ok {
			log.Warn("invalid request", slog.String("reason", msg))
			writeError(w, status, msg)
			return
		}
		id = strings.TrimSpace(req.ID)
	}

	deleted, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		var vErr *appointments.ValidationError
		switch {
		case errors.As(err, &vErr):
			log.Warn("invalid request", slog.Any("err", err))
			writeError(w, http.StatusBadRequest, vErr.Error())
		case errors.Is(err, store.ErrNotFound):
			log.Info("appointment not found", slog.String("appointment_id", id))
			writeError(w, http.StatusNotFound, "Not found")
		default:
			log.Error("appointment cancel failed", slog.Any("err", err), slog.String("appointment_id", id))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	log.Info("appointment cancelled", slog.String("appointment_id", deleted.ID))
	writeJSON(w, http.StatusOK, cancelResponse{OK: true, Deleted: deleted})
}

// decodeBody reads a JSON object body. With allowEmpty an absent body is not
// an error and leaves v untouched.
func decodeBody(r *http.Request, v any, allowEmpty bool) (int, string, bool) {
	if r.Body == nil {
		if allowEmpty {
			return 0, "", true
		}
		return http.StatusBadRequest, "Invalid JSON body", false
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return http.StatusRequestEntityTooLarge, "Request body too large", false
		case errors.Is(err, io.EOF) && allowEmpty:
			return 0, "", true
		default:
			return http.StatusBadRequest, "Invalid JSON body", false
		}
	}
	return 0, "", true
}
