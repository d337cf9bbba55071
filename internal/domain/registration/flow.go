package registration

import (
	"errors"
	"strings"

	"juventud/internal/domain/form"
	"juventud/internal/domain/persona"
)

// State is a registration flow state.
type State string

// Flow states.
const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
)

// Confirmation copy.
const (
	TituloExito      = "¡Inscripción Exitosa!"
	MsgErrorGenerico = "No se pudo completar la inscripción. Intenta de nuevo."
	msgSeguimiento   = "Pronto recibirás información sobre las actividades de la juventud."
	msgBienvenida    = "¡Bienvenido a la familia!"
)

// Flow errors
var (
	ErrNotEditing    = errors.New("registration is not being edited")
	ErrNotSubmitting = errors.New("registration is not being submitted")
	ErrNotSuccess    = errors.New("registration has not succeeded")
)

// Confirmation is the success dialog content.
type Confirmation struct {
	Title   string
	Name    string
	Message string
}

// Flow is the registration form state machine:
// editing -> submitting -> success | editing with an error.
type Flow struct {
	state   State
	form    Form
	errors  form.FieldErrors
	message string
	created persona.Persona
}

// NewFlow starts a flow with an empty form.
// POST: State is editing
func NewFlow() *Flow {
	return &Flow{state: StateEditing}
}

// State returns the current state.
func (fl *Flow) State() State { return fl.state }

// Form returns a copy of the form data.
func (fl *Flow) Form() Form { return fl.form }

// FieldErrors returns the errors from the last submit attempt.
func (fl *Flow) FieldErrors() form.FieldErrors { return fl.errors }

// Message returns the blocking or flow-level error message, if any.
func (fl *Flow) Message() string { return fl.message }

// SubmitDisabled reports whether the submit control must be disabled.
func (fl *Flow) SubmitDisabled() bool { return fl.state == StateSubmitting }

// Created returns the persona returned by the backend after success.
func (fl *Flow) Created() persona.Persona { return fl.created }

// Edit updates one field.
// PRE: State is editing
// POST: Field stored through its normalizer; no side effects beyond local state
func (fl *Flow) Edit(field, value string) error {
	if fl.state != StateEditing {
		return ErrNotEditing
	}
	fl.form.Set(field, value)
	return nil
}

// Load replaces every field from values, as when a whole form is posted.
// PRE: State is editing
// POST: Each known field stored through its normalizer
func (fl *Flow) Load(values map[string]string) error {
	if fl.state != StateEditing {
		return ErrNotEditing
	}
	for _, f := range Fields {
		fl.form.Set(f, values[f])
	}
	return nil
}

// Submit runs the required-field check and, if it passes, moves to submitting.
// PRE: State is editing
// POST: On failure state stays editing, FieldErrors and Message are set and the
// returned error is the FieldErrors. On success state is submitting and the
// payload to send is returned.
func (fl *Flow) Submit() (persona.NewPersona, error) {
	if fl.state != StateEditing {
		return persona.NewPersona{}, ErrNotEditing
	}
	errs := fl.form.Validate()
	if !errs.Empty() {
		fl.errors = errs
		fl.message = MsgCamposRequeridos
		return persona.NewPersona{}, errs
	}
	payload, err := fl.form.Payload()
	if err != nil {
		fl.errors = form.FieldErrors{FieldFechaNacimiento: MsgFechaInvalida}
		fl.message = MsgCamposRequeridos
		return persona.NewPersona{}, fl.errors
	}
	fl.errors = nil
	fl.message = ""
	fl.state = StateSubmitting
	return payload, nil
}

// Succeed records the created persona.
// PRE: State is submitting
// POST: State is success
func (fl *Flow) Succeed(created persona.Persona) error {
	if fl.state != StateSubmitting {
		return ErrNotSubmitting
	}
	fl.created = created
	fl.state = StateSuccess
	return nil
}

// Fail returns to editing with the error's message, keeping the form data.
// PRE: State is submitting
// POST: State is editing, Message is err's text or the generic fallback
func (fl *Flow) Fail(err error) error {
	if fl.state != StateSubmitting {
		return ErrNotSubmitting
	}
	fl.message = MsgErrorGenerico
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			fl.message = msg
		}
	}
	fl.state = StateEditing
	return nil
}

// Confirmation builds the personalized success message.
// A follow-up is promised only when the user supplied an email or phone.
// PRE: State is success
func (fl *Flow) Confirmation() Confirmation {
	name := fl.created.DisplayName(fl.form.Nombre)
	var b strings.Builder
	if name != "" {
		b.WriteString(name)
		b.WriteString(", tu inscripción fue enviada correctamente.")
	} else {
		b.WriteString("Tu inscripción fue enviada correctamente.")
	}
	if fl.form.HasContact() {
		b.WriteString(" ")
		b.WriteString(msgSeguimiento)
	}
	b.WriteString(" ")
	b.WriteString(msgBienvenida)
	return Confirmation{Title: TituloExito, Name: name, Message: b.String()}
}

// Close dismisses the success confirmation.
// PRE: State is success
// POST: Form, errors and message are reset; state is editing
func (fl *Flow) Close() error {
	if fl.state != StateSuccess {
		return ErrNotSuccess
	}
	*fl = Flow{state: StateEditing}
	return nil
}
