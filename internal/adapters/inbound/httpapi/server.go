// Package httpapi exposes audits, fixes, rules, credits and batches over
// HTTP. Batches stream their progress as server-sent events.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/abdidvp/shelfready/internal/application"
	"github.com/abdidvp/shelfready/internal/domain"
)

// OwnKeys records whether a shop brings its own generation key.
type OwnKeys interface {
	SetOwnKey(ctx context.Context, shopID string, own bool) error
}

type Server struct {
	svc       application.Services
	checklist domain.ChecklistTemplate
	keys      OwnKeys
	log       logrus.FieldLogger
}

func NewServer(svc application.Services, checklist domain.ChecklistTemplate, keys OwnKeys, log logrus.FieldLogger) *Server {
	return &Server{svc: svc, checklist: checklist, keys: keys, log: log.WithField("component", "http")}
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Route("/shops/{shop}", func(r chi.Router) {
		r.Route("/listings/{id}", func(r chi.Router) {
			r.Post("/audit", s.runAudit)
			r.Get("/audit", s.latestAudit)
			r.Post("/fixes/{rule}", s.applyFix)
			r.Post("/autofix", s.applyAutoFixes)
			r.Post("/images", s.generateImage)
			r.Get("/history", s.history)
		})
		r.Post("/history/{entry}/revert", s.revert)
		r.Get("/rules", s.listRules)
		r.Post("/rules/seed", s.seedRules)
		r.Patch("/rules/{key}", s.patchRule)
		r.Get("/credits", s.credits)
		r.Put("/credits/own-key", s.setOwnKey)
		r.Post("/batches", s.runBatch)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request served")
	})
}
