package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/tierlist-backend/internal/session"
	"github.com/DoyleJ11/tierlist-backend/internal/ws"
)

type Deps struct {
	Session        *session.Session
	History        History
	OriginPatterns []string
	Logger         *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/state", State(d.Session))
	r.Get("/catalog", Catalog(d.Session))
	if d.History != nil {
		r.Get("/sessions", Sessions(d.History, log))
	}
	r.Get("/ws", ws.Handler(d.Session, ws.Options{OriginPatterns: d.OriginPatterns, Logger: log}))
	return r
}
