package web

import (
	"log/slog"
	"net/http"
	"strconv"

	auditStore "juventud/internal/adapters/storage/audit"
	"juventud/internal/domain/audit"
)

type auditView struct {
	Category   string
	Categories []audit.Category
	Events     []audit.Event
}

// recordAudit appends an event to the audit trail. Failures are logged and never reach the client.
func (s *Server) recordAudit(r *http.Request, e audit.Event) {
	if s.opts.Audit == nil {
		return
	}
	e = e.WithRequest(r.RemoteAddr, r.UserAgent())
	if err := e.Validate(); err != nil {
		slog.Warn("admin_event", "event", "audit_invalid", "error", err)
		return
	}
	if err := s.opts.Audit.Save(r.Context(), e); err != nil {
		slog.Warn("admin_event", "event", "audit_save_failed", "action", e.Action, "error", err)
	}
}

// newAuditEvent stamps an event with a fresh id and the server clock.
func (s *Server) newAuditEvent(category audit.Category, action audit.Action) audit.Event {
	return audit.NewEvent(s.opts.GenerateID(), s.opts.Now(), category, action)
}

// handleAdminAudit lists recent audit events (GET <admin>/auditoria).
// ?category narrows to one category; ?limit caps the list (default 100).
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if s.opts.Audit == nil {
		http.NotFound(w, r)
		return
	}

	limit := 100
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 500 {
		limit = n
	}
	view := auditView{Categories: audit.Categories}
	var filter auditStore.Filter
	for _, c := range audit.Categories {
		if string(c) == r.URL.Query().Get("category") {
			filter.Category = c
			view.Category = string(c)
		}
	}

	events, err := s.opts.Audit.List(r.Context(), filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	view.Events = events

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	s.render(w, r, http.StatusOK, "admin_audit.html", "Registro", view)
}
