package registration_test

import (
	"errors"
	"strings"
	"testing"

	"juventud/internal/domain/form"
	"juventud/internal/domain/persona"
	"juventud/internal/domain/registration"
)

func requiredOnly() map[string]string {
	return map[string]string{
		registration.FieldNombre:          "Ana",
		registration.FieldApellido:        "Pérez",
		registration.FieldFechaNacimiento: "2008-04-12",
	}
}

// TestSubmit_MissingRequired stays in editing with field errors.
func TestSubmit_MissingRequired(t *testing.T) {
	fl := registration.NewFlow()
	_, err := fl.Submit()
	var fe form.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	for _, f := range []string{registration.FieldNombre, registration.FieldApellido, registration.FieldFechaNacimiento} {
		if !fe.Has(f) {
			t.Errorf("expected error for %s", f)
		}
	}
	if fl.State() != registration.StateEditing {
		t.Errorf("expected editing, got %s", fl.State())
	}
	if fl.Message() != registration.MsgCamposRequeridos {
		t.Errorf("expected blocking message, got %q", fl.Message())
	}
}

// TestSubmit_RequiredOnly moves to submitting and leaves optional fields empty.
func TestSubmit_RequiredOnly(t *testing.T) {
	fl := registration.NewFlow()
	if err := fl.Load(requiredOnly()); err != nil {
		t.Fatal(err)
	}
	p, err := fl.Submit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fl.State() != registration.StateSubmitting || !fl.SubmitDisabled() {
		t.Fatalf("expected submitting with disabled submit, got %s", fl.State())
	}
	want := persona.NewPersona{Nombre: "Ana", Apellido: "Pérez", FechaNacimiento: "2008-04-12"}
	if p.Nombre != want.Nombre || p.Apellido != want.Apellido || p.FechaNacimiento != want.FechaNacimiento {
		t.Errorf("unexpected payload %+v", p)
	}
	if p.Cedula != "" || p.Email != "" || p.Telefono != "" || p.Ministerio != "" ||
		p.NivelAcademico != "" || p.Ocupacion != "" || p.Genero != "" || p.Bautizado != nil {
		t.Errorf("optional fields should be empty: %+v", p)
	}
}

// TestEdit_Normalizes applies cédula and phone normalizers on each edit.
func TestEdit_Normalizes(t *testing.T) {
	fl := registration.NewFlow()
	_ = fl.Edit(registration.FieldCedula, "V-012.345.678")
	_ = fl.Edit(registration.FieldTelefono, "0414-123.45.67")
	f := fl.Form()
	if f.Cedula != "12345678" {
		t.Errorf("Cedula = %q", f.Cedula)
	}
	if f.Telefono != "4141234567" {
		t.Errorf("Telefono = %q", f.Telefono)
	}
}

// TestSubmit_OptionalFields converts bautizado and dates.
func TestSubmit_OptionalFields(t *testing.T) {
	fl := registration.NewFlow()
	v := requiredOnly()
	v[registration.FieldFechaNacimiento] = "2008/04/12"
	v[registration.FieldBautizado] = "si"
	v[registration.FieldGenero] = "f"
	v[registration.FieldEmail] = " ana@example.com "
	_ = fl.Load(v)
	p, err := fl.Submit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FechaNacimiento != "2008-04-12" {
		t.Errorf("FechaNacimiento = %q", p.FechaNacimiento)
	}
	if p.Bautizado == nil || !*p.Bautizado {
		t.Error("expected bautizado=true")
	}
	if p.Genero != "F" || p.Email != "ana@example.com" {
		t.Errorf("unexpected payload %+v", p)
	}
}

// TestSubmit_InvalidOptional rejects malformed optional values.
func TestSubmit_InvalidOptional(t *testing.T) {
	fl := registration.NewFlow()
	v := requiredOnly()
	v[registration.FieldEmail] = "no-es-correo"
	v[registration.FieldGenero] = "X"
	_ = fl.Load(v)
	_, err := fl.Submit()
	var fe form.FieldErrors
	if !errors.As(err, &fe) || !fe.Has(registration.FieldEmail) || !fe.Has(registration.FieldGenero) {
		t.Fatalf("expected email and genero errors, got %v", err)
	}
}

// TestSucceed_Confirmation personalizes the message.
func TestSucceed_Confirmation(t *testing.T) {
	tests := []struct {
		name        string
		extra       map[string]string
		created     persona.Persona
		wantName    string
		wantFollows bool
	}{
		{"backend nombre, no contact", nil, persona.Persona{Nombre: "Ana María"}, "Ana María", false},
		{"full name fallback", map[string]string{registration.FieldEmail: "a@b.c"}, persona.Persona{NombreCompleto: "Ana Pérez"}, "Ana Pérez", true},
		{"local fallback", map[string]string{registration.FieldTelefono: "4141234567"}, persona.Persona{}, "Ana", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fl := registration.NewFlow()
			v := requiredOnly()
			for k, val := range tt.extra {
				v[k] = val
			}
			_ = fl.Load(v)
			if _, err := fl.Submit(); err != nil {
				t.Fatal(err)
			}
			if err := fl.Succeed(tt.created); err != nil {
				t.Fatal(err)
			}
			c := fl.Confirmation()
			if c.Title != registration.TituloExito {
				t.Errorf("Title = %q", c.Title)
			}
			if c.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", c.Name, tt.wantName)
			}
			if got := strings.Contains(c.Message, "Pronto recibirás"); got != tt.wantFollows {
				t.Errorf("follow-up promised = %v, want %v (%q)", got, tt.wantFollows, c.Message)
			}
		})
	}
}

// TestFail_PreservesForm returns to editing with the error message.
func TestFail_PreservesForm(t *testing.T) {
	fl := registration.NewFlow()
	_ = fl.Load(requiredOnly())
	_, _ = fl.Submit()
	if err := fl.Fail(errors.New("La cédula ya está registrada")); err != nil {
		t.Fatal(err)
	}
	if fl.State() != registration.StateEditing {
		t.Errorf("expected editing, got %s", fl.State())
	}
	if fl.Message() != "La cédula ya está registrada" {
		t.Errorf("Message = %q", fl.Message())
	}
	if fl.Form().Nombre != "Ana" {
		t.Error("form data should be preserved")
	}

	_, _ = fl.Submit()
	_ = fl.Fail(nil)
	if fl.Message() != registration.MsgErrorGenerico {
		t.Errorf("expected generic fallback, got %q", fl.Message())
	}
}

// TestClose_Resets clears all fields after success.
func TestClose_Resets(t *testing.T) {
	fl := registration.NewFlow()
	if err := fl.Close(); !errors.Is(err, registration.ErrNotSuccess) {
		t.Errorf("Close before success should fail, got %v", err)
	}
	_ = fl.Load(requiredOnly())
	_, _ = fl.Submit()
	_ = fl.Succeed(persona.Persona{ID: "p1"})
	if err := fl.Close(); err != nil {
		t.Fatal(err)
	}
	if fl.State() != registration.StateEditing || fl.Form() != (registration.Form{}) {
		t.Errorf("expected reset form, got %+v in %s", fl.Form(), fl.State())
	}
}

// TestTransitions_Guarded rejects out-of-order calls.
func TestTransitions_Guarded(t *testing.T) {
	fl := registration.NewFlow()
	if err := fl.Succeed(persona.Persona{}); !errors.Is(err, registration.ErrNotSubmitting) {
		t.Errorf("Succeed from editing: %v", err)
	}
	if err := fl.Fail(nil); !errors.Is(err, registration.ErrNotSubmitting) {
		t.Errorf("Fail from editing: %v", err)
	}
	_ = fl.Load(requiredOnly())
	_, _ = fl.Submit()
	if err := fl.Edit(registration.FieldNombre, "x"); !errors.Is(err, registration.ErrNotEditing) {
		t.Errorf("Edit while submitting: %v", err)
	}
	if _, err := fl.Submit(); !errors.Is(err, registration.ErrNotEditing) {
		t.Errorf("double submit: %v", err)
	}
}
