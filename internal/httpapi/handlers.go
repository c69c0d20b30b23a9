package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/tierlist-backend/internal/archive"
	"github.com/DoyleJ11/tierlist-backend/internal/session"
	"github.com/DoyleJ11/tierlist-backend/internal/types"
)

const statusTimeout = 2 * time.Second

// History lists archived sessions.
type History interface {
	Recent(ctx context.Context, limit int) ([]archive.Record, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type stateResponse struct {
	Clients  int            `json:"clients"`
	Snapshot types.Snapshot `json:"snapshot"`
}

// State returns the same snapshot a newly connected client receives.
func State(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
		defer cancel()

		st, err := s.Status(ctx)
		if err != nil {
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse{Clients: st.NumClients, Snapshot: st.Snapshot})
	}
}

func Catalog(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Items []string `json:"items"`
		}{Items: s.Items()})
	}
}

type sessionRecord struct {
	ID         string          `json:"id"`
	Items      json.RawMessage `json:"items"`
	Results    json.RawMessage `json:"results"`
	FinishedAt time.Time       `json:"finishedAt"`
}

func Sessions(h History, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 100 {
				http.Error(w, "limit must be 1..100", http.StatusBadRequest)
				return
			}
			limit = n
		}

		recs, err := h.Recent(r.Context(), limit)
		if err != nil {
			log.Warn("list archived sessions", zap.Error(err))
			http.Error(w, "failed to list sessions", http.StatusInternalServerError)
			return
		}

		out := make([]sessionRecord, 0, len(recs))
		for _, rec := range recs {
			out = append(out, sessionRecord{
				ID:         rec.ID,
				Items:      json.RawMessage(rec.Items),
				Results:    json.RawMessage(rec.Results),
				FinishedAt: rec.FinishedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
