package registration

import (
	"strings"

	"juventud/internal/domain/form"
	"juventud/internal/domain/persona"
)

// Form field names, shared by templates, FieldErrors and Set.
const (
	FieldNombre          = "nombre"
	FieldApellido        = "apellido"
	FieldFechaNacimiento = "fecha_nacimiento"
	FieldCedula          = "cedula"
	FieldEmail           = "email"
	FieldTelefono        = "telefono"
	FieldMinisterio      = "ministerio"
	FieldNivelAcademico  = "nivel_academico"
	FieldOcupacion       = "ocupacion"
	FieldGenero          = "genero"
	FieldBautizado       = "bautizado"
)

// Fields lists every form field in display order.
var Fields = []string{
	FieldNombre, FieldApellido, FieldFechaNacimiento, FieldCedula, FieldEmail, FieldTelefono,
	FieldMinisterio, FieldNivelAcademico, FieldOcupacion, FieldGenero, FieldBautizado,
}

// Bautizado answers. Empty means unanswered and is omitted from the payload.
const (
	BautizadoSi = "si"
	BautizadoNo = "no"
)

// User-facing validation messages.
const (
	MsgNombreRequerido   = "El nombre es requerido"
	MsgApellidoRequerido = "El apellido es requerido"
	MsgFechaRequerida    = "La fecha de nacimiento es requerida"
	MsgFechaInvalida     = "La fecha de nacimiento no es válida"
	MsgEmailInvalido     = "El correo electrónico no es válido"
	MsgGeneroInvalido    = "Selecciona M o F"
	MsgBautizadoInvalido = "Selecciona sí o no"
	MsgCamposRequeridos  = "Completa los campos requeridos: nombre, apellido y fecha de nacimiento."
)

// Form holds the registration form as typed by the user.
// Cedula and Telefono always hold their normalized stored values.
type Form struct {
	Nombre          string
	Apellido        string
	FechaNacimiento string
	Cedula          string
	Email           string
	Telefono        string
	Ministerio      string
	NivelAcademico  string
	Ocupacion       string
	Genero          string
	Bautizado       string
}

// Set stores value into field, applying the cédula and phone normalizers.
// Unknown fields are ignored.
// POST: Cedula and Telefono hold normalized values
func (f *Form) Set(field, value string) {
	switch field {
	case FieldNombre:
		f.Nombre = value
	case FieldApellido:
		f.Apellido = value
	case FieldFechaNacimiento:
		f.FechaNacimiento = value
	case FieldCedula:
		f.Cedula = persona.NormalizeCedula(value)
	case FieldEmail:
		f.Email = value
	case FieldTelefono:
		f.Telefono = persona.NormalizeTelefono(value)
	case FieldMinisterio:
		f.Ministerio = value
	case FieldNivelAcademico:
		f.NivelAcademico = value
	case FieldOcupacion:
		f.Ocupacion = value
	case FieldGenero:
		f.Genero = strings.ToUpper(strings.TrimSpace(value))
	case FieldBautizado:
		f.Bautizado = strings.ToLower(strings.TrimSpace(value))
	}
}

// Get returns the current value of field.
func (f Form) Get(field string) string {
	switch field {
	case FieldNombre:
		return f.Nombre
	case FieldApellido:
		return f.Apellido
	case FieldFechaNacimiento:
		return f.FechaNacimiento
	case FieldCedula:
		return f.Cedula
	case FieldEmail:
		return f.Email
	case FieldTelefono:
		return f.Telefono
	case FieldMinisterio:
		return f.Ministerio
	case FieldNivelAcademico:
		return f.NivelAcademico
	case FieldOcupacion:
		return f.Ocupacion
	case FieldGenero:
		return f.Genero
	case FieldBautizado:
		return f.Bautizado
	}
	return ""
}

// HasContact reports whether the user left an email or phone.
func (f Form) HasContact() bool {
	return strings.TrimSpace(f.Email) != "" || f.Telefono != ""
}

// Validate runs the required-field check.
// Nombre, Apellido and FechaNacimiento are required; everything else is optional
// but must be well formed when given.
// PRE: none
// POST: Returns empty FieldErrors when the form can be submitted
func (f Form) Validate() form.FieldErrors {
	errs := form.FieldErrors{}
	if strings.TrimSpace(f.Nombre) == "" {
		errs.Add(FieldNombre, MsgNombreRequerido)
	}
	if strings.TrimSpace(f.Apellido) == "" {
		errs.Add(FieldApellido, MsgApellidoRequerido)
	}
	if strings.TrimSpace(f.FechaNacimiento) == "" {
		errs.Add(FieldFechaNacimiento, MsgFechaRequerida)
	} else if _, err := form.ParseDate(f.FechaNacimiento); err != nil {
		errs.Add(FieldFechaNacimiento, MsgFechaInvalida)
	}
	if e := strings.TrimSpace(f.Email); e != "" && !strings.Contains(e, "@") {
		errs.Add(FieldEmail, MsgEmailInvalido)
	}
	if f.Genero != "" && !persona.ValidGenero(f.Genero) {
		errs.Add(FieldGenero, MsgGeneroInvalido)
	}
	if f.Bautizado != "" && f.Bautizado != BautizadoSi && f.Bautizado != BautizadoNo {
		errs.Add(FieldBautizado, MsgBautizadoInvalido)
	}
	return errs
}

// Payload builds the creation payload.
// Text fields are trimmed; the birth date is rendered YYYY-MM-DD.
// PRE: Validate returned no errors
// POST: Optional fields left empty stay empty so they are omitted on the wire
func (f Form) Payload() (persona.NewPersona, error) {
	fecha, err := form.ParseDate(f.FechaNacimiento)
	if err != nil {
		return persona.NewPersona{}, err
	}
	p := persona.NewPersona{
		Nombre:          strings.TrimSpace(f.Nombre),
		Apellido:        strings.TrimSpace(f.Apellido),
		FechaNacimiento: fecha,
		Cedula:          f.Cedula,
		Email:           strings.TrimSpace(f.Email),
		Telefono:        f.Telefono,
		Ministerio:      strings.TrimSpace(f.Ministerio),
		NivelAcademico:  strings.TrimSpace(f.NivelAcademico),
		Ocupacion:       strings.TrimSpace(f.Ocupacion),
		Genero:          f.Genero,
	}
	switch f.Bautizado {
	case BautizadoSi:
		yes := true
		p.Bautizado = &yes
	case BautizadoNo:
		no := false
		p.Bautizado = &no
	}
	return p, nil
}
