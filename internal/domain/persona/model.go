package persona

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for stored identifiers.
const (
	MaxCedulaDigits   = 8
	MaxTelefonoDigits = 10
)

// Gender values accepted by the backend.
const (
	GeneroMasculino = "M"
	GeneroFemenino  = "F"
)

// Domain errors
var (
	ErrInvalidGenero = errors.New("genero must be 'M' or 'F'")
	ErrEmptyID       = errors.New("persona id is required")
)

// Persona is a registered youth member as returned by the backend.
type Persona struct {
	ID              string
	Cedula          string // digits only, at most MaxCedulaDigits
	Nombre          string
	Apellido        string
	NombreCompleto  string
	Email           string
	Telefono        string // digits only, leading zeros stripped
	FechaNacimiento string // YYYY-MM-DD
	Direccion       string
	Ministerio      string
	NivelAcademico  string
	Ocupacion       string
	Bautizado       *bool
	Genero          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks that a backend-supplied Persona is usable.
// PRE: Persona decoded from an API response
// POST: Returns nil if the persona can be referenced by id
// INVARIANT: Genero, when set, is one of M or F
func (p *Persona) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if p.Genero != "" && !ValidGenero(p.Genero) {
		return ErrInvalidGenero
	}
	return nil
}

// DisplayName returns the name used in confirmations.
// Prefers Nombre, then NombreCompleto, then the supplied fallback.
// INVARIANT: Persona fields are not mutated
func (p Persona) DisplayName(fallback string) string {
	if n := strings.TrimSpace(p.Nombre); n != "" {
		return n
	}
	if n := strings.TrimSpace(p.NombreCompleto); n != "" {
		return n
	}
	return strings.TrimSpace(fallback)
}

// FullName returns NombreCompleto, or Nombre and Apellido joined when the backend omitted it.
// INVARIANT: Persona fields are not mutated
func (p Persona) FullName() string {
	if n := strings.TrimSpace(p.NombreCompleto); n != "" {
		return n
	}
	return strings.TrimSpace(strings.TrimSpace(p.Nombre) + " " + strings.TrimSpace(p.Apellido))
}

// ValidGenero reports whether g is an accepted gender code.
func ValidGenero(g string) bool {
	return g == GeneroMasculino || g == GeneroFemenino
}

// NewPersona is the data submitted to create a Persona.
// Empty optional fields are omitted from the wire payload.
type NewPersona struct {
	Cedula          string
	Nombre          string
	Apellido        string
	Email           string
	Telefono        string
	FechaNacimiento string // YYYY-MM-DD
	Ministerio      string
	NivelAcademico  string
	Ocupacion       string
	Bautizado       *bool
	Genero          string
}
