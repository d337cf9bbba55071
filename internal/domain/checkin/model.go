package checkin

import (
	"errors"
	"strings"
	"time"

	"juventud/internal/domain/actividad"
	"juventud/internal/domain/persona"
)

// State is a check-in flow state.
type State string

// Flow states.
const (
	StateIdle      State = "idle"
	StateLookingUp State = "looking-up"
	StateRecording State = "recording"
	StateRecorded  State = "recorded"
	StateError     State = "error"
)

// DefaultWeekday is the day the check-in entry point is offered.
const DefaultWeekday = time.Sunday

// TituloExito is the success dialog title.
const TituloExito = "¡Asistencia Registrada!"

// Domain errors
var (
	ErrPersonaNotFound   = errors.New("No se encontró ninguna persona con esa cédula")
	ErrEmptyCedula       = errors.New("Ingresa tu cédula")
	ErrNoActividad       = errors.New("No hay una actividad registrada para hoy")
	ErrInvalidTransition = errors.New("invalid check-in transition")
)

// Flow is the attendance check-in state machine:
// idle -> looking-up -> (recording -> recorded) | error.
// The activity is fixed at construction.
type Flow struct {
	state     State
	cedula    string
	actividad actividad.Actividad
	persona   persona.Persona
	message   string
}

// NewFlow starts an idle flow against today's activity.
// POST: State is idle
func NewFlow(today actividad.Actividad) *Flow {
	return &Flow{state: StateIdle, actividad: today}
}

// State returns the current state.
func (f *Flow) State() State { return f.state }

// Cedula returns the typed identifier.
func (f *Flow) Cedula() string { return f.cedula }

// Actividad returns the activity attendance is recorded against.
func (f *Flow) Actividad() actividad.Actividad { return f.actividad }

// Persona returns the resolved persona once lookup has succeeded.
func (f *Flow) Persona() persona.Persona { return f.persona }

// Message returns the inline error message, if any.
func (f *Flow) Message() string { return f.message }

// SetCedula stores typed input as digits only, capped at persona.MaxCedulaDigits as typed.
// POST: Cedula holds at most 8 digits
func (f *Flow) SetCedula(raw string) {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		if b.Len() == persona.MaxCedulaDigits {
			break
		}
		b.WriteRune(r)
	}
	f.cedula = b.String()
}

// Begin starts the lookup.
// PRE: State is idle or error
// POST: State is looking-up and the cédula to query is returned; with an empty
// cédula or no activity the state is error and no query should be made
func (f *Flow) Begin() (string, error) {
	if f.state != StateIdle && f.state != StateError {
		return "", ErrInvalidTransition
	}
	if f.cedula == "" {
		return "", f.toError(ErrEmptyCedula)
	}
	if strings.TrimSpace(f.actividad.ID) == "" {
		return "", f.toError(ErrNoActividad)
	}
	f.message = ""
	f.state = StateLookingUp
	return f.cedula, nil
}

// Resolve picks the persona from lookup results.
// Ties resolve to the first match in API list order.
// PRE: State is looking-up
// POST: With matches state is recording; with none state is error and
// ErrPersonaNotFound is returned
func (f *Flow) Resolve(matches []persona.Persona) (persona.Persona, error) {
	if f.state != StateLookingUp {
		return persona.Persona{}, ErrInvalidTransition
	}
	if len(matches) == 0 {
		return persona.Persona{}, f.toError(ErrPersonaNotFound)
	}
	f.persona = matches[0]
	f.state = StateRecording
	return f.persona, nil
}

// Recorded marks the attendance as stored.
// PRE: State is recording
// POST: State is recorded; the activity reflects the backend's copy when given
func (f *Flow) Recorded(updated actividad.Actividad) error {
	if f.state != StateRecording {
		return ErrInvalidTransition
	}
	if updated.ID != "" {
		f.actividad = updated
	}
	f.state = StateRecorded
	return nil
}

// Fail surfaces a lookup or recording error inline.
// PRE: State is looking-up or recording
// POST: State is error; the typed cédula is kept for retry
func (f *Flow) Fail(err error) error {
	if f.state != StateLookingUp && f.state != StateRecording {
		return ErrInvalidTransition
	}
	f.toError(err)
	return nil
}

// Close dismisses the dialog.
// POST: State is idle and the cédula is cleared
func (f *Flow) Close() {
	f.state = StateIdle
	f.cedula = ""
	f.persona = persona.Persona{}
	f.message = ""
}

func (f *Flow) toError(err error) error {
	f.state = StateError
	f.message = "No se pudo registrar la asistencia. Intenta de nuevo."
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		f.message = err.Error()
	}
	return err
}

// Offered reports whether the check-in entry point is shown.
// It is a display policy, not a flow state.
// PRE: now is in the service's local zone
// POST: true only when now falls on day and today's activity is resolved
func Offered(now time.Time, day time.Weekday, resolved bool) bool {
	return resolved && now.Weekday() == day
}
