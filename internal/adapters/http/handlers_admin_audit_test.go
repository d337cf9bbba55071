package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"juventud/internal/application/orchestrators"
	"juventud/internal/domain/audit"
)

// TestAdminAudit_RecordsSessionEvents verifies login, failed login and logout land in the trail.
func TestAdminAudit_RecordsSessionEvents(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("aleluya"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	trail := &fakeAudit{}
	srv := newTestServer(t, &fakeBackend{}, sundayWithCulto(), func(o *Options) {
		o.AdminPassphraseHash = string(hash)
		o.Audit = trail
	})

	serve(srv, postForm("/panel/login", url.Values{"clave": {"incorrecta"}}))
	rr := serve(srv, postForm("/panel/login", url.Values{"clave": {"aleluya"}}))
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie")
	}
	logout := postForm("/panel/logout", nil)
	logout.AddCookie(cookies[0])
	serve(srv, logout)

	want := []audit.Action{audit.ActionLoginFailed, audit.ActionLogin, audit.ActionLogout}
	if got := trail.actions(); !slices.Equal(got, want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	failed := trail.events[0]
	if failed.Severity != audit.SeverityWarning || failed.Category != audit.CategorySecurity {
		t.Errorf("failed login = %+v", failed)
	}
	if failed.IPAddress == "" || !failed.Timestamp.Equal(sunday) {
		t.Errorf("request details missing: %+v", failed)
	}
}

// TestAdminAudit_RecordsPanelActions covers activity creation and outbox actions.
func TestAdminAudit_RecordsPanelActions(t *testing.T) {
	trail := &fakeAudit{}
	store := newFakeOutbox(failedEntry("ob-9"))
	srv := newTestServer(t, &fakeBackend{}, sundayWithCulto(), func(o *Options) {
		o.Audit = trail
		o.Outbox = store
		o.Processor = orchestrators.NewOutboxProcessor(store, nil)
	})

	serve(srv, postForm("/panel/actividades", url.Values{"nombre": {"Vigilia"}, "fecha": {"2026-10-24"}}))
	serve(srv, postForm("/panel/actividades", url.Values{"nombre": {""}}))
	serve(srv, postForm("/panel/outbox/ob-9/abandon", nil))
	serve(srv, postForm("/panel/outbox/missing/abandon", nil))

	if len(trail.events) != 2 {
		t.Fatalf("events = %+v, want create and abandon only", trail.events)
	}
	create, abandon := trail.events[0], trail.events[1]
	if create.Action != audit.ActionCreate || create.ResourceID != "a-new" || !strings.Contains(create.Description, "Vigilia") {
		t.Errorf("create = %+v", create)
	}
	if abandon.Category != audit.CategoryOutbox || abandon.Action != audit.ActionAbandon || abandon.ResourceID != "ob-9" {
		t.Errorf("abandon = %+v", abandon)
	}
}

// TestAdminAudit_SaveFailureDoesNotBreakAction verifies the trail is best effort.
func TestAdminAudit_SaveFailureDoesNotBreakAction(t *testing.T) {
	srv := newTestServer(t, &fakeBackend{}, sundayWithCulto(), func(o *Options) {
		o.Audit = &fakeAudit{err: errors.New("disk full")}
	})
	rr := serve(srv, postForm("/panel/actividades", url.Values{"nombre": {"Vigilia"}, "fecha": {"2026-10-24"}}))
	if rr.Code != http.StatusSeeOther {
		t.Errorf("create = %d, want 303", rr.Code)
	}
}

func TestAdminAudit_List(t *testing.T) {
	trail := &fakeAudit{}
	srv := newTestServer(t, &fakeBackend{}, sundayWithCulto(), func(o *Options) { o.Audit = trail })
	trail.events = []audit.Event{
		audit.NewEvent("e1", sunday, audit.CategorySecurity, audit.ActionLogin),
		audit.NewEvent("e2", sunday, audit.CategoryActividad, audit.ActionCreate).WithDescription("Vigilia 2026-10-24"),
	}

	rr := serve(srv, getJSON("/panel/auditoria?category=actividad"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var view auditView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Category != "actividad" || len(view.Events) != 1 || view.Events[0].ID != "e2" {
		t.Errorf("view = %+v", view)
	}

	rr = serve(srv, getHTML("/panel/auditoria"))
	body := rr.Body.String()
	if rr.Code != http.StatusOK || !strings.Contains(body, "Vigilia 2026-10-24") || !strings.Contains(body, "login") {
		t.Errorf("page = %d:\n%s", rr.Code, body)
	}
	if strings.Index(body, "Vigilia") > strings.Index(body, "<td>login</td>") {
		t.Error("newest event should come first")
	}

	rr = serve(srv, getJSON("/panel/auditoria?category=bogus"))
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil || len(view.Events) != 2 || view.Category != "" {
		t.Errorf("unknown category should list everything: %+v", view)
	}
}

func TestAdminAudit_Disabled(t *testing.T) {
	srv := newTestServer(t, &fakeBackend{}, sundayWithCulto())
	if rr := serve(srv, getJSON("/panel/auditoria")); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
