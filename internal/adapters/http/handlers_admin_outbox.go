package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	outboxStore "juventud/internal/adapters/storage/outbox"
	"juventud/internal/domain/audit"
	"juventud/internal/domain/outbox"
)

type outboxView struct {
	Status  string
	Counts  map[string]int
	Entries []outbox.Entry
}

// handleAdminOutbox lists follow-up entries (GET <admin>/outbox).
// ?status=failed (default) lists exhausted entries; ?status=pending lists queued ones.
func (s *Server) handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	if s.opts.Outbox == nil {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	limit := 50
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}
	status := r.URL.Query().Get("status")
	if status != outbox.StatusPending {
		status = outbox.StatusFailed
	}

	var entries []outbox.Entry
	var err error
	if status == outbox.StatusPending {
		entries, err = s.opts.Outbox.ListPending(ctx, limit)
	} else {
		entries, err = s.opts.Outbox.ListFailed(ctx, limit)
	}
	if err != nil {
		internalError(w, err)
		return
	}
	counts, err := s.opts.Outbox.CountByStatus(ctx)
	if err != nil {
		internalError(w, err)
		return
	}

	view := outboxView{Status: status, Counts: counts, Entries: entries}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	s.render(w, r, http.StatusOK, "admin_outbox.html", "Correos", view)
}

// handleAdminOutboxAction handles POST <admin>/outbox/{id}/{retry|abandon}.
func (s *Server) handleAdminOutboxAction(w http.ResponseWriter, r *http.Request) {
	if s.opts.Processor == nil {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")
	action := r.PathValue("action")

	var err error
	var result string
	var auditAction audit.Action
	switch action {
	case "retry":
		err = s.opts.Processor.ProcessSingle(ctx, id)
		result = "retry triggered"
		auditAction = audit.ActionRetry
	case "abandon":
		err = s.opts.Processor.AbandonEntry(ctx, id)
		result = "abandoned"
		auditAction = audit.ActionAbandon
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	switch {
	case errors.Is(err, outboxStore.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, outbox.ErrTerminal):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	event := s.newAuditEvent(audit.CategoryOutbox, auditAction).WithResource("outbox", id)
	if err != nil {
		event = event.WithSeverity(audit.SeverityWarning).WithDescription(err.Error())
	}
	s.recordAudit(r, event)

	switch {
	case err != nil:
		// A failed retry is still recorded on the entry; show it on the list.
		slog.Warn("outbox_event", "event", "admin_"+action+"_failed", "id", id, "error", err)
		if wantsJSON(r) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	default:
		slog.Info("outbox_event", "event", "admin_"+action, "id", id)
		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, map[string]string{"status": result})
			return
		}
	}
	redirectBack(w, r, s.opts.AdminPath+"/outbox", nil)
}
