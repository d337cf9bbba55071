package form_test

import (
	"errors"
	"testing"

	"juventud/internal/domain/form"
)

// TestParseDate accepts ISO dates and other unambiguous layouts.
func TestParseDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"2026-10-18", "2026-10-18", false},
		{" 2026-10-18 ", "2026-10-18", false},
		{"2026/10/18", "2026-10-18", false},
		{"October 18, 2026", "2026-10-18", false},
		{"", "", true},
		{"mañana", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := form.ParseDate(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, form.ErrInvalidDate) {
					t.Fatalf("expected ErrInvalidDate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestDatePart truncates timestamps to their date.
func TestDatePart(t *testing.T) {
	tests := map[string]string{
		"2026-10-18T00:00:00.000Z": "2026-10-18",
		"2026-10-18":               "2026-10-18",
		"":                         "",
		"pronto":                   "pronto",
	}
	for in, want := range tests {
		if got := form.DatePart(in); got != want {
			t.Errorf("DatePart(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestFieldErrors keeps the first message and reports emptiness.
func TestFieldErrors(t *testing.T) {
	fe := form.FieldErrors{}
	if fe.Err() != nil {
		t.Fatal("empty FieldErrors should yield a nil error")
	}
	fe.Add("nombre", "El nombre es requerido")
	fe.Add("nombre", "otro")
	fe.Add("fecha", "La fecha es requerida")
	if fe["nombre"] != "El nombre es requerido" {
		t.Errorf("first message should win, got %q", fe["nombre"])
	}
	if !fe.Has("fecha") || fe.Empty() {
		t.Error("expected fecha error to be present")
	}
	want := "fecha: La fecha es requerida; nombre: El nombre es requerido"
	if fe.Error() != want {
		t.Errorf("Error() = %q, want %q", fe.Error(), want)
	}
	var target form.FieldErrors
	if !errors.As(fe.Err(), &target) {
		t.Error("Err() should be matchable with errors.As")
	}
}
