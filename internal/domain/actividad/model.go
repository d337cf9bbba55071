package actividad

import (
	"errors"
	"strings"
	"time"

	"juventud/internal/domain/form"
)

// Max length constants for user-editable fields.
const (
	MaxNombreLength      = 120
	MaxDescripcionLength = 2000
)

// Field names used in FieldErrors.
const (
	FieldNombre      = "nombre"
	FieldFecha       = "fecha"
	FieldDescripcion = "descripcion"
)

// User-facing validation messages.
const (
	MsgNombreRequerido  = "El nombre es requerido"
	MsgFechaRequerida   = "La fecha es requerida"
	MsgFechaInvalida    = "La fecha no es válida"
	MsgNombreLargo      = "El nombre es demasiado largo"
	MsgDescripcionLarga = "La descripción es demasiado larga"
)

// Domain errors
var (
	ErrEmptyID     = errors.New("actividad id is required")
	ErrEmptyNombre = errors.New("actividad nombre is required")
)

// Actividad is a dated activity that personas can attend.
type Actividad struct {
	ID          string
	Nombre      string
	Descripcion string
	Fecha       string   // YYYY-MM-DD
	Asistentes  []string // persona ids
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks that a backend-supplied Actividad is usable.
// PRE: Actividad decoded from an API response
// POST: Returns nil if id and nombre are present
func (a *Actividad) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.Nombre) == "" {
		return ErrEmptyNombre
	}
	return nil
}

// HasAsistente reports whether personaID is already recorded as attending.
// INVARIANT: Asistentes is not mutated
func (a Actividad) HasAsistente(personaID string) bool {
	for _, id := range a.Asistentes {
		if id == personaID {
			return true
		}
	}
	return false
}

// AsistentesCount returns the number of recorded attendees.
func (a Actividad) AsistentesCount() int {
	return len(a.Asistentes)
}

// Date parses Fecha as a calendar date in loc.
// POST: Returns the zero time when Fecha is not a date
func (a Actividad) Date(loc *time.Location) time.Time {
	t, err := time.ParseInLocation(form.DateLayout, form.DatePart(a.Fecha), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NewActividad is the data submitted to create an Actividad.
type NewActividad struct {
	Nombre      string
	Fecha       string // YYYY-MM-DD
	Descripcion string // omitted from the payload when empty
}

// ValidateForm runs the creation form's required-field check.
// Nombre is trimmed; fecha accepts any layout form.ParseDate accepts.
// PRE: none
// POST: Returns a normalized NewActividad and empty FieldErrors when valid;
// otherwise FieldErrors names every failing field
func ValidateForm(nombre, fecha, descripcion string) (NewActividad, form.FieldErrors) {
	errs := form.FieldErrors{}
	out := NewActividad{
		Nombre:      strings.TrimSpace(nombre),
		Descripcion: strings.TrimSpace(descripcion),
	}

	if out.Nombre == "" {
		errs.Add(FieldNombre, MsgNombreRequerido)
	} else if len(out.Nombre) > MaxNombreLength {
		errs.Add(FieldNombre, MsgNombreLargo)
	}

	if strings.TrimSpace(fecha) == "" {
		errs.Add(FieldFecha, MsgFechaRequerida)
	} else if d, err := form.ParseDate(fecha); err != nil {
		errs.Add(FieldFecha, MsgFechaInvalida)
	} else {
		out.Fecha = d
	}

	if len(out.Descripcion) > MaxDescripcionLength {
		errs.Add(FieldDescripcion, MsgDescripcionLarga)
	}
	return out, errs
}
