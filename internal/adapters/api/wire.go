package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"juventud/internal/domain/actividad"
	"juventud/internal/domain/form"
	"juventud/internal/domain/persona"
)

// flexString accepts a JSON string, number or null.
// The backend stores cédula and teléfono as either.
type flexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// attendeeRef is an attendee as either a persona id or a populated persona object.
type attendeeRef string

// UnmarshalJSON implements json.Unmarshaler.
func (a *attendeeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*a = attendeeRef(obj.ID)
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	*a = attendeeRef(s)
	return nil
}

// parseTimestamp reads an ISO 8601 timestamp, returning the zero time when absent or malformed.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// personaWire is a Persona as the backend serializes it.
// Some deployments answer in snake_case, so both spellings are read.
type personaWire struct {
	ID                   string     `json:"_id" validate:"required"`
	Cedula               flexString `json:"cedula"`
	Nombre               string     `json:"nombre"`
	Apellido             string     `json:"apellido"`
	NombreCompleto       string     `json:"nombreCompleto"`
	NombreCompletoSnake  string     `json:"nombre_completo"`
	Email                string     `json:"email"`
	Telefono             flexString `json:"telefono"`
	FechaNacimiento      string     `json:"fechaNacimiento"`
	FechaNacimientoSnake string     `json:"fecha_nacimiento"`
	Direccion            string     `json:"direccion"`
	Ministerio           string     `json:"ministerio"`
	NivelAcademico       string     `json:"nivel_academico"`
	Ocupacion            string     `json:"ocupacion"`
	Bautizado            *bool      `json:"bautizado"`
	Genero               string     `json:"genero"`
	CreatedAt            string     `json:"createdAt"`
	UpdatedAt            string     `json:"updatedAt"`
}

func (w personaWire) toDomain() persona.Persona {
	nombreCompleto := w.NombreCompleto
	if nombreCompleto == "" {
		nombreCompleto = w.NombreCompletoSnake
	}
	fecha := w.FechaNacimiento
	if fecha == "" {
		fecha = w.FechaNacimientoSnake
	}
	return persona.Persona{
		ID:              w.ID,
		Cedula:          persona.NormalizeCedula(string(w.Cedula)),
		Nombre:          w.Nombre,
		Apellido:        w.Apellido,
		NombreCompleto:  nombreCompleto,
		Email:           w.Email,
		Telefono:        persona.NormalizeTelefono(string(w.Telefono)),
		FechaNacimiento: form.DatePart(fecha),
		Direccion:       w.Direccion,
		Ministerio:      w.Ministerio,
		NivelAcademico:  w.NivelAcademico,
		Ocupacion:       w.Ocupacion,
		Bautizado:       w.Bautizado,
		Genero:          w.Genero,
		CreatedAt:       parseTimestamp(w.CreatedAt),
		UpdatedAt:       parseTimestamp(w.UpdatedAt),
	}
}

// createPersonaRequest is the snake_case body of POST /personas.
// Every key is omitted when empty.
type createPersonaRequest struct {
	Cedula          string `json:"cedula,omitempty"`
	Nombre          string `json:"nombre,omitempty"`
	Apellido        string `json:"apellido,omitempty"`
	Email           string `json:"email,omitempty"`
	Telefono        string `json:"telefono,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	Ministerio      string `json:"ministerio,omitempty"`
	NivelAcademico  string `json:"nivel_academico,omitempty"`
	Ocupacion       string `json:"ocupacion,omitempty"`
	Bautizado       *bool  `json:"bautizado,omitempty"`
	Genero          string `json:"genero,omitempty"`
}

func newCreatePersonaRequest(p persona.NewPersona) createPersonaRequest {
	return createPersonaRequest{
		Cedula:          p.Cedula,
		Nombre:          p.Nombre,
		Apellido:        p.Apellido,
		Email:           p.Email,
		Telefono:        p.Telefono,
		FechaNacimiento: p.FechaNacimiento,
		Ministerio:      p.Ministerio,
		NivelAcademico:  p.NivelAcademico,
		Ocupacion:       p.Ocupacion,
		Bautizado:       p.Bautizado,
		Genero:          p.Genero,
	}
}

// actividadWire is an Actividad as the backend serializes it.
type actividadWire struct {
	ID          string        `json:"_id" validate:"required"`
	Nombre      string        `json:"nombre" validate:"required"`
	Descripcion string        `json:"descripcion"`
	Fecha       string        `json:"fecha"`
	Asistentes  []attendeeRef `json:"asistentes"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
}

func (w actividadWire) toDomain() actividad.Actividad {
	asistentes := make([]string, 0, len(w.Asistentes))
	for _, a := range w.Asistentes {
		if a != "" {
			asistentes = append(asistentes, string(a))
		}
	}
	return actividad.Actividad{
		ID:          w.ID,
		Nombre:      w.Nombre,
		Descripcion: w.Descripcion,
		Fecha:       form.DatePart(w.Fecha),
		Asistentes:  asistentes,
		CreatedAt:   parseTimestamp(w.CreatedAt),
		UpdatedAt:   parseTimestamp(w.UpdatedAt),
	}
}

// createActividadRequest is the body of POST /actividades.
type createActividadRequest struct {
	Nombre      string `json:"nombre"`
	Fecha       string `json:"fecha"`
	Descripcion string `json:"descripcion,omitempty"`
}

// pageWire is the backend's pagination envelope.
type pageWire[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
	Limit       int `json:"limit"`
}

// asistenciaWire is the body returned by POST /actividades/:id/asistir.
type asistenciaWire struct {
	Message   string         `json:"message"`
	Actividad *actividadWire `json:"actividad"`
}
