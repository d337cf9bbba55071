package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"juventud/internal/application/orchestrators"
	"juventud/internal/domain/actividad"
	"juventud/internal/domain/checkin"
	"juventud/internal/domain/form"
	"juventud/internal/domain/persona"
	"juventud/internal/domain/registration"
)

// errCheckInClosed is shown when attendance is posted outside the check-in day.
var errCheckInClosed = errors.New("La asistencia solo se registra el día de la actividad")

// msgCheckInUnavailable is shown when today's activity could not be looked up.
const msgCheckInUnavailable = "No se pudo registrar la asistencia. Intenta de nuevo."

// homeView is the welcome page with its check-in dialog.
type homeView struct {
	Offered   bool
	Actividad actividad.Actividad
	// Dialog state after a check-in post; zero when the page is just viewed
	DialogOpen bool
	Recorded   bool
	Titulo     string
	Cedula     string
	Nombre     string
	Message    string
}

// today resolves the current activity, logging lookup failures.
func (s *Server) today(ctx context.Context) (actividad.Actividad, bool, error) {
	a, found, err := s.opts.Today.Today(ctx)
	if err != nil {
		slog.Warn("today_event", "event", "unavailable", "error", err)
		return actividad.Actividad{}, false, err
	}
	return a, found, nil
}

// handleHome renders GET /.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	today, found, _ := s.today(r.Context())
	s.render(w, r, http.StatusOK, "home.html", "Juventud", homeView{
		Offered:   checkin.Offered(s.opts.Today.Now(), s.opts.CheckInDay, found),
		Actividad: today,
	})
}

type asistenciaRequest struct {
	Cedula string `json:"cedula"`
}

type personaRef struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

type actividadRef struct {
	ID         string `json:"id"`
	Nombre     string `json:"nombre"`
	Fecha      string `json:"fecha"`
	Asistentes int    `json:"asistentes"`
}

type asistenciaResponse struct {
	Status    string        `json:"status"`
	Titulo    string        `json:"titulo,omitempty"`
	Message   string        `json:"message,omitempty"`
	Cedula    string        `json:"cedula,omitempty"`
	Persona   *personaRef   `json:"persona,omitempty"`
	Actividad *actividadRef `json:"actividad,omitempty"`
}

// checkInStatus maps a check-in outcome to an HTTP status.
func checkInStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, checkin.ErrEmptyCedula):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checkin.ErrPersonaNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkin.ErrNoActividad), errors.Is(err, errCheckInClosed):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// handleAsistencia records attendance at today's activity (POST /asistencia).
// Accepts a form post from the home page dialog or a JSON body {"cedula": "..."}.
func (s *Server) handleAsistencia(w http.ResponseWriter, r *http.Request) {
	var req asistenciaRequest
	if isJSONRequest(r) {
		if err := strictDecode(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	} else {
		req.Cedula = r.FormValue("cedula")
	}

	ctx := r.Context()
	today, found, resolveErr := s.today(ctx)
	offered := checkin.Offered(s.opts.Today.Now(), s.opts.CheckInDay, found)

	view := homeView{Offered: offered, Actividad: today, DialogOpen: true}
	var resp asistenciaResponse
	var err error

	switch {
	case resolveErr != nil:
		err = resolveErr
		view.Cedula = req.Cedula
		view.Message = msgCheckInUnavailable
		resp = asistenciaResponse{Status: string(checkin.StateError), Message: msgCheckInUnavailable}
	case found && !offered:
		err = errCheckInClosed
		view.Cedula = req.Cedula
		view.Message = err.Error()
		resp = asistenciaResponse{Status: string(checkin.StateError), Message: err.Error()}
	default:
		var flow *checkin.Flow
		flow, err = orchestrators.ExecuteCheckInPersona(ctx, orchestrators.CheckInPersonaInput{
			Cedula: req.Cedula,
			Today:  today,
		}, orchestrators.CheckInPersonaDeps{
			Personas:   s.opts.Backend,
			Attendance: s.opts.Backend,
		})
		view.Cedula = flow.Cedula()
		view.Message = flow.Message()
		resp = asistenciaResponse{
			Status:  string(flow.State()),
			Message: flow.Message(),
			Cedula:  flow.Cedula(),
		}
		if err == nil {
			p := flow.Persona()
			a := flow.Actividad()
			view.Recorded = true
			view.Titulo = checkin.TituloExito
			view.Nombre = p.FullName()
			view.Actividad = a
			view.Cedula = ""
			resp.Titulo = checkin.TituloExito
			resp.Persona = &personaRef{ID: p.ID, Nombre: p.FullName()}
			resp.Actividad = &actividadRef{ID: a.ID, Nombre: a.Nombre, Fecha: a.Fecha, Asistentes: a.AsistentesCount()}
		}
	}

	status := checkInStatus(err)
	if wantsJSON(r) {
		writeJSON(w, status, resp)
		return
	}
	s.render(w, r, status, "home.html", "Juventud", view)
}

// registroView is the registration form page.
type registroView struct {
	Form    registration.Form
	Errors  form.FieldErrors
	Message string
}

// confirmRow is one line of the review page shown before submitting.
type confirmRow struct {
	Field   string
	Label   string
	Value   string // as posted back in the hidden input
	Display string
}

var fieldLabels = map[string]string{
	registration.FieldNombre:          "Nombre",
	registration.FieldApellido:        "Apellido",
	registration.FieldFechaNacimiento: "Fecha de nacimiento",
	registration.FieldCedula:          "Cédula",
	registration.FieldEmail:           "Correo electrónico",
	registration.FieldTelefono:        "Teléfono",
	registration.FieldMinisterio:      "Ministerio",
	registration.FieldNivelAcademico:  "Nivel académico",
	registration.FieldOcupacion:       "Ocupación",
	registration.FieldGenero:          "Género",
	registration.FieldBautizado:       "Bautizado",
}

// confirmRows lists every field of f in display order.
func confirmRows(f registration.Form) []confirmRow {
	rows := make([]confirmRow, 0, len(registration.Fields))
	for _, field := range registration.Fields {
		v := f.Get(field)
		display := v
		switch {
		case v == "":
		case field == registration.FieldCedula:
			display = persona.FormatCedula(v)
		case field == registration.FieldTelefono:
			display = persona.FormatTelefono(v)
		case field == registration.FieldBautizado && v == registration.BautizadoSi:
			display = "Sí"
		case field == registration.FieldBautizado && v == registration.BautizadoNo:
			display = "No"
		}
		rows = append(rows, confirmRow{Field: field, Label: fieldLabels[field], Value: v, Display: display})
	}
	return rows
}

type registroResponse struct {
	Status  string            `json:"status"`
	Titulo  string            `json:"titulo,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Persona *personaRef       `json:"persona,omitempty"`
}

// handleRegistroForm renders GET /registro.
func (s *Server) handleRegistroForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "registro.html", "Inscripción", registroView{})
}

// handleRegistro handles POST /registro.
// A browser post goes through a review page first: without "confirmar" the form
// is validated and shown back for review; "editar" returns to the form; with
// "confirmar" the persona is created. A JSON body is created directly.
func (s *Server) handleRegistro(w http.ResponseWriter, r *http.Request) {
	values := make(map[string]string, len(registration.Fields))
	if isJSONRequest(r) {
		var body map[string]string
		if err := strictDecode(r, &body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		for _, f := range registration.Fields {
			values[f] = body[f]
		}
		s.createPersona(w, r, values)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	for _, f := range registration.Fields {
		values[f] = r.PostForm.Get(f)
	}

	switch {
	case r.PostForm.Get("editar") != "":
		flow := registration.NewFlow()
		flow.Load(values)
		s.render(w, r, http.StatusOK, "registro.html", "Inscripción", registroView{Form: flow.Form()})
	case r.PostForm.Get("confirmar") == "":
		flow := registration.NewFlow()
		flow.Load(values)
		if _, err := flow.Submit(); err != nil {
			s.render(w, r, http.StatusUnprocessableEntity, "registro.html", "Inscripción", registroView{
				Form:    flow.Form(),
				Errors:  flow.FieldErrors(),
				Message: flow.Message(),
			})
			return
		}
		s.render(w, r, http.StatusOK, "registro_confirmar.html", "Confirma tus datos", confirmRows(flow.Form()))
	default:
		s.createPersona(w, r, values)
	}
}

// createPersona runs the registration and writes the outcome.
func (s *Server) createPersona(w http.ResponseWriter, r *http.Request, values map[string]string) {
	deps := orchestrators.RegisterPersonaDeps{
		Personas:   s.opts.Backend,
		Now:        s.opts.Now,
		GenerateID: s.opts.GenerateID,
	}
	if s.opts.Outbox != nil {
		deps.FollowUp = s.opts.Outbox
	}

	flow, err := orchestrators.ExecuteRegisterPersona(r.Context(), orchestrators.RegisterPersonaInput{Values: values}, deps)
	if err != nil {
		status := http.StatusBadGateway
		var fe form.FieldErrors
		if errors.As(err, &fe) {
			status = http.StatusUnprocessableEntity
		}
		if isJSONRequest(r) {
			writeJSON(w, status, registroResponse{
				Status:  string(flow.State()),
				Message: flow.Message(),
				Errors:  flow.FieldErrors(),
			})
			return
		}
		s.render(w, r, status, "registro.html", "Inscripción", registroView{
			Form:    flow.Form(),
			Errors:  flow.FieldErrors(),
			Message: flow.Message(),
		})
		return
	}

	conf := flow.Confirmation()
	if isJSONRequest(r) {
		created := flow.Created()
		writeJSON(w, http.StatusCreated, registroResponse{
			Status:  string(flow.State()),
			Titulo:  conf.Title,
			Message: conf.Message,
			Persona: &personaRef{ID: created.ID, Nombre: conf.Name},
		})
		return
	}
	s.render(w, r, http.StatusOK, "registro_exito.html", conf.Title, conf)
}
