package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abdidvp/shelfready/internal/domain"
)

type fixRequest struct {
	Config domain.FixConfig `json:"config"`
}

type fixResponse struct {
	Outcomes []domain.FixOutcome `json:"outcomes"`
	Audit    *domain.AuditResult `json:"audit,omitempty"`
}

type rulePatch struct {
	Enabled *bool `json:"enabled"`
	Weight  *int  `json:"weight"`
}

type ownKeyRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) runAudit(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Audits.AuditListing(r.Context(), chi.URLParam(r, "shop"), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) latestAudit(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Audits.LatestAudit(r.Context(), chi.URLParam(r, "shop"), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) applyFix(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key := domain.RuleKey(chi.URLParam(r, "rule"))
	out, err := s.svc.Fixes.ApplyFix(r.Context(), chi.URLParam(r, "shop"), chi.URLParam(r, "id"), key, req.Config)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fixResponse{Outcomes: []domain.FixOutcome{out}, Audit: out.Audit})
}

func (s *Server) applyAutoFixes(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if !decodeBody(w, r, &req) {
		return
	}
	outcomes, final, err := s.svc.Fixes.ApplyAutoFixes(r.Context(), chi.URLParam(r, "shop"), chi.URLParam(r, "id"), req.Config)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fixResponse{Outcomes: outcomes, Audit: final})
}

func (s *Server) generateImage(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := s.svc.Fixes.GenerateImage(r.Context(), chi.URLParam(r, "shop"), chi.URLParam(r, "id"), req.Config)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fixResponse{Outcomes: []domain.FixOutcome{out}, Audit: out.Audit})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Fixes.History(r.Context(), chi.URLParam(r, "shop"), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.VersionEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) revert(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Fixes.RevertChange(r.Context(), chi.URLParam(r, "shop"), chi.URLParam(r, "entry"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	defs, err := s.svc.Rules.ListRules(r.Context(), chi.URLParam(r, "shop"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if defs == nil {
		defs = []domain.RuleDefinition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) seedRules(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Rules.Seed(r.Context(), chi.URLParam(r, "shop"), s.checklist)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": n})
}

func (s *Server) patchRule(w http.ResponseWriter, r *http.Request) {
	var patch rulePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.Enabled == nil && patch.Weight == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "nothing to update: set enabled or weight"})
		return
	}
	shopID, key := chi.URLParam(r, "shop"), domain.RuleKey(chi.URLParam(r, "key"))
	if patch.Weight != nil {
		if err := s.svc.Rules.SetWeight(r.Context(), shopID, key, *patch.Weight); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if patch.Enabled != nil {
		if err := s.svc.Rules.SetEnabled(r.Context(), shopID, key, *patch.Enabled); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	defs, err := s.svc.Rules.ListRules(r.Context(), shopID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, d := range defs {
		if d.Key == key {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	s.writeError(w, r, domain.ErrRuleNotFound)
}

func (s *Server) credits(w http.ResponseWriter, r *http.Request) {
	decision, err := s.svc.Fixes.Credits(r.Context(), chi.URLParam(r, "shop"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) setOwnKey(w http.ResponseWriter, r *http.Request) {
	var req ownKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	shopID := chi.URLParam(r, "shop")
	if err := s.keys.SetOwnKey(r.Context(), shopID, req.Enabled); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.credits(w, r)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto status codes. The body carries the
// user-facing message only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrAuditNotFound),
		errors.Is(err, domain.ErrRuleNotFound),
		errors.Is(err, domain.ErrHistoryEntryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidBatch),
		errors.Is(err, domain.ErrInvalidRuleConfig),
		errors.Is(err, domain.ErrUnknownOperation):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.WithField("path", r.URL.Path).WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorBody{Error: domain.UserMessage(err)})
}

// decodeBody reads an optional JSON body into v. It writes a 400 and
// returns false when the body is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid request body: %v", err)})
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
