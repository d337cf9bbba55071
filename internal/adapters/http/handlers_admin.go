package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"juventud/internal/adapters/api"
	"juventud/internal/adapters/http/middleware"
	"juventud/internal/application/listutil"
	"juventud/internal/application/orchestrators"
	"juventud/internal/application/projections"
	"juventud/internal/domain/actividad"
	"juventud/internal/domain/audit"
	"juventud/internal/domain/form"
)

// msgListaNoDisponible is shown when the backend list call fails.
const msgListaNoDisponible = "No se pudo cargar la lista. Intenta de nuevo."

type personasView struct {
	Base    string
	Result  projections.GetPersonaListResult
	Filters listutil.FilterParams
	Error   string
}

type actividadesView struct {
	Base    string
	Result  projections.GetActividadListResult
	Filters listutil.FilterParams
	Form    orchestrators.CreateActividadInput
	Errors  form.FieldErrors
	Message string
	Error   string
}

type loginView struct {
	Error string
}

// listErrorMessage keeps a backend message and hides transport details.
func listErrorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return msgListaNoDisponible + " (" + apiErr.Message + ")"
	}
	return msgListaNoDisponible
}

// handleAdminIndex sends the panel root to the default section.
func (s *Server) handleAdminIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.opts.AdminPath+"/personas", http.StatusSeeOther)
}

// handleAdminPersonas renders GET <admin>/personas.
func (s *Server) handleAdminPersonas(w http.ResponseWriter, r *http.Request) {
	lp := listutil.ParseListParams(r.URL.Query(), projections.PersonaColumns, projections.PersonaFilterKeys)
	view := personasView{Base: s.opts.AdminPath + "/personas", Filters: lp.FilterParams}

	result, err := projections.QueryGetPersonaList(r.Context(), projections.GetPersonaListQuery{
		Cedula: lp.Get(projections.FilterCedula),
		Nombre: lp.Get(projections.FilterNombre),
		Page:   lp.Page,
		Limit:  lp.PerPage,
		Sort:   lp.SortParams,
	}, projections.GetPersonaListDeps{Personas: s.opts.Backend})
	if err != nil {
		slog.Warn("admin_event", "event", "personas_unavailable", "error", err)
		view.Error = listErrorMessage(err)
		if wantsJSON(r) {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": view.Error})
			return
		}
		s.render(w, r, http.StatusBadGateway, "admin_personas.html", "Jóvenes", view)
		return
	}
	view.Result = result

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, result)
		return
	}
	s.render(w, r, http.StatusOK, "admin_personas.html", "Jóvenes", view)
}

// loadActividades fills the activity list for the page, keeping any form state already set.
func (s *Server) loadActividades(r *http.Request, view *actividadesView) bool {
	view.Base = s.opts.AdminPath + "/actividades"
	result, err := projections.QueryGetActividadList(r.Context(), projections.GetActividadListQuery{
		Sort:  listutil.ParseSortParams(r.URL.Query(), projections.ActividadColumns),
		Today: s.opts.Today.Now().Format(form.DateLayout),
	}, projections.GetActividadListDeps{Actividades: s.opts.Backend})
	if err != nil {
		slog.Warn("admin_event", "event", "actividades_unavailable", "error", err)
		view.Error = listErrorMessage(err)
		return false
	}
	view.Result = result
	return true
}

// handleAdminActividades renders GET <admin>/actividades.
func (s *Server) handleAdminActividades(w http.ResponseWriter, r *http.Request) {
	var view actividadesView
	status := http.StatusOK
	if !s.loadActividades(r, &view) {
		status = http.StatusBadGateway
	}
	if wantsJSON(r) {
		if status != http.StatusOK {
			writeJSON(w, status, map[string]string{"error": view.Error})
			return
		}
		writeJSON(w, status, view.Result)
		return
	}
	s.render(w, r, status, "admin_actividades.html", "Clases", view)
}

// handleAdminCreateActividad handles POST <admin>/actividades.
// On success the browser is redirected to the list, which refetches.
func (s *Server) handleAdminCreateActividad(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.CreateActividadInput
	if isJSONRequest(r) {
		var body struct {
			Nombre      string `json:"nombre"`
			Fecha       string `json:"fecha"`
			Descripcion string `json:"descripcion"`
		}
		if err := strictDecode(r, &body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		input = orchestrators.CreateActividadInput{Nombre: body.Nombre, Fecha: body.Fecha, Descripcion: body.Descripcion}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input = orchestrators.CreateActividadInput{
			Nombre:      r.PostForm.Get("nombre"),
			Fecha:       r.PostForm.Get("fecha"),
			Descripcion: r.PostForm.Get("descripcion"),
		}
	}

	created, err := orchestrators.ExecuteCreateActividad(r.Context(), input, orchestrators.CreateActividadDeps{
		Actividades: s.opts.Backend,
		OnCreated: func(a actividad.Actividad) {
			s.opts.Today.Forget(a.Fecha)
		},
	})
	if err != nil {
		view := actividadesView{Form: input}
		status := http.StatusBadGateway
		var fe form.FieldErrors
		if errors.As(err, &fe) {
			status = http.StatusUnprocessableEntity
			view.Errors = fe
		} else {
			view.Message = "No se pudo crear la clase."
			var apiErr *api.APIError
			if errors.As(err, &apiErr) && apiErr.Message != "" {
				view.Message = apiErr.Message
			}
		}
		if isJSONRequest(r) {
			writeJSON(w, status, map[string]any{"error": view.Message, "errors": view.Errors})
			return
		}
		s.loadActividades(r, &view)
		s.render(w, r, status, "admin_actividades.html", "Clases", view)
		return
	}

	s.recordAudit(r, s.newAuditEvent(audit.CategoryActividad, audit.ActionCreate).
		WithResource("actividad", created.ID).
		WithDescription(created.Nombre+" "+created.Fecha))

	if isJSONRequest(r) {
		writeJSON(w, http.StatusCreated, actividadRef{
			ID: created.ID, Nombre: created.Nombre, Fecha: created.Fecha, Asistentes: created.AsistentesCount(),
		})
		return
	}
	http.Redirect(w, r, s.opts.AdminPath+"/actividades", http.StatusSeeOther)
}

// handleAdminLoginForm renders GET <admin>/login.
func (s *Server) handleAdminLoginForm(w http.ResponseWriter, r *http.Request) {
	if !s.gateEnabled() {
		http.Redirect(w, r, s.opts.AdminPath+"/personas", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "admin_login.html", "Acceso", loginView{})
}

// handleAdminLogin checks the passphrase against the configured bcrypt hash.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.gateEnabled() {
		http.Redirect(w, r, s.opts.AdminPath+"/personas", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	err := bcrypt.CompareHashAndPassword([]byte(s.opts.AdminPassphraseHash), []byte(r.PostForm.Get("clave")))
	if err != nil {
		slog.Warn("admin_event", "event", "login_failed", "ip", r.RemoteAddr)
		s.recordAudit(r, s.newAuditEvent(audit.CategorySecurity, audit.ActionLoginFailed).WithSeverity(audit.SeverityWarning))
		s.render(w, r, http.StatusUnauthorized, "admin_login.html", "Acceso", loginView{Error: "Clave incorrecta"})
		return
	}

	token, err := s.sessions.Create()
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token, s.opts.AdminPath, s.opts.Secure)
	slog.Info("admin_event", "event", "login")
	s.recordAudit(r, s.newAuditEvent(audit.CategorySecurity, audit.ActionLogin))
	http.Redirect(w, r, s.opts.AdminPath+"/personas", http.StatusSeeOther)
}

// handleAdminLogout ends the admin session.
func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		s.sessions.Delete(cookie.Value)
		s.recordAudit(r, s.newAuditEvent(audit.CategorySecurity, audit.ActionLogout))
	}
	middleware.ClearSessionCookie(w, s.opts.AdminPath, s.opts.Secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleAdminPerf returns the perf snapshot for the last ?minutes (default 60).
func (s *Server) handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if s.opts.Collector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	minutes := 60
	if v, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && v > 0 && v <= 24*60 {
		minutes = v
	}
	since := s.opts.Now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, s.opts.Collector.Snapshot(since, 10))
}
