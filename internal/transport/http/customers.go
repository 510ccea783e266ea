package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"pestbook/backend/internal/customers"
	"pestbook/backend/internal/domain"
)

const (
	defaultCustomerLimit = 10
	maxCustomerLimit     = 100
)

type customerDirectory interface {
	List(ctx context.Context, limit int) ([]domain.Customer, error)
	Create(ctx context.Context, in customers.CreateInput) (domain.Customer, error)
}

type CustomersHandler struct {
	dir customerDirectory
	log *slog.Logger
}

func NewCustomersHandler(dir customerDirectory, log *slog.Logger) *CustomersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CustomersHandler{
		dir: dir,
		log: log.With(slog.String("component", "http.customers")),
	}
}

func (h *CustomersHandler) Routes() http.HandlerFunc {
	return methods(map[string]http.HandlerFunc{
		http.MethodGet:  h.List,
		http.MethodPost: h.Create,
	})
}

type listCustomersResponse struct {
	OK   bool              `json:"ok"`
	Data []domain.Customer `json:"data"`
}

type customerResponse struct {
	OK bool `json:"ok"`
	domain.Customer
}

func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultCustomerLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxCustomerLimit {
			h.log.Warn("invalid request", slog.String("reason", "invalid_limit"), slog.String("limit", raw))
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	data, err := h.dir.List(r.Context(), limit)
	if err != nil {
		h.upstreamFailed(w, "customers list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, listCustomersResponse{OK: true, Data: data})
}

func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in customers.CreateInput
	if status, msg, ok := decodeBody(r, &in, false); !ok {
		h.log.Warn("invalid request", slog.String("reason", msg))
		writeError(w, status, msg)
		return
	}
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.CustomerName == "" {
		h.log.Warn("invalid request", slog.String("reason", "missing_customer_name"))
		writeError(w, http.StatusBadRequest, "Missing customer_name")
		return
	}

	cust, err := h.dir.Create(r.Context(), in)
	if err != nil {
		h.upstreamFailed(w, "customer create failed", err)
		return
	}
	h.log.Info("customer created", slog.Int64("customer_id", cust.ID))
	writeJSON(w, http.StatusCreated, customerResponse{OK: true, Customer: cust})
}

func (h *CustomersHandler) upstreamFailed(w http.ResponseWriter, msg string, err error) {
	attrs := []any{slog.Any("err", err)}
	var upErr *customers.UpstreamError
	if errors.As(err, &upErr) {
		attrs = append(attrs, slog.Int("upstream_status", upErr.Status))
	}
	h.log.Error(msg, attrs...)
	writeError(w, http.StatusBadGateway, "Customer directory unavailable")
}
