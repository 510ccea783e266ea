package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"pestbook/backend/internal/customers"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	OK    bool             `json:"ok"`
	Env   customers.Health `json:"env"`
	Store string           `json:"store"`
	Error string           `json:"error,omitempty"`
}

func healthHandler(store pinger, env func() customers.Health, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{OK: true, Store: "ok"}
		if env != nil {
			resp.Env = env()
		}
		if err := store.Ping(ctx); err != nil {
			log.Warn("store ping failed", slog.Any("err", err))
			resp.OK = false
			resp.Store = "unavailable"
			resp.Error = "storage unavailable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
