package orchestrators

import (
	"context"
	"log/slog"

	"juventud/internal/adapters/api"
	"juventud/internal/application/listutil"
	"juventud/internal/domain/actividad"
	"juventud/internal/domain/checkin"
	"juventud/internal/domain/persona"
)

const (
	// lookupPageSize is the page size of the cédula search; the backend matches substrings.
	lookupPageSize = listutil.DefaultPerPage
	// maxLookupPages bounds how far the search pages through substring hits.
	maxLookupPages = 20
)

// PersonaFinder looks personas up by filter.
type PersonaFinder interface {
	GetPersonas(ctx context.Context, filter api.PersonaFilter) (api.Page[persona.Persona], error)
}

// AttendanceRecorder records attendance at an activity.
type AttendanceRecorder interface {
	AsistirActividad(ctx context.Context, actividadID, personaID string) (api.Asistencia, error)
}

// CheckInPersonaInput carries the typed cédula and the activity resolved for today.
type CheckInPersonaInput struct {
	Cedula string
	Today  actividad.Actividad
}

// CheckInPersonaDeps holds dependencies for CheckInPersona.
type CheckInPersonaDeps struct {
	Personas   PersonaFinder
	Attendance AttendanceRecorder
}

// ExecuteCheckInPersona looks a persona up by cédula and records attendance at today's activity.
// PRE: input.Today is the activity resolved for the current local date
// POST: The returned flow is never nil. It is recorded on success. Otherwise it is
// in the error state with an inline message and the typed cédula kept; with an
// empty cédula, no activity or no matching persona nothing is recorded.
func ExecuteCheckInPersona(ctx context.Context, input CheckInPersonaInput, deps CheckInPersonaDeps) (*checkin.Flow, error) {
	flow := checkin.NewFlow(input.Today)
	flow.SetCedula(input.Cedula)

	cedula, err := flow.Begin()
	if err != nil {
		return flow, err
	}

	matches, err := findByCedula(ctx, deps.Personas, cedula)
	if err != nil {
		flow.Fail(userFacing(err))
		slog.Warn("checkin_event", "event", "lookup_failed", "error", err)
		return flow, err
	}

	p, err := flow.Resolve(matches)
	if err != nil {
		slog.Info("checkin_event", "event", "not_found")
		return flow, err
	}

	res, err := deps.Attendance.AsistirActividad(ctx, input.Today.ID, p.ID)
	if err != nil {
		flow.Fail(userFacing(err))
		slog.Warn("checkin_event", "event", "record_failed", "persona_id", p.ID, "actividad_id", input.Today.ID, "error", err)
		return flow, err
	}
	flow.Recorded(res.Actividad)
	slog.Info("checkin_event", "event", "recorded", "persona_id", p.ID, "actividad_id", input.Today.ID)
	return flow, nil
}

// findByCedula pages through the backend's substring hits for cedula and returns
// the personas whose stored cédula equals it, in API order.
// POST: Stops at the first page holding an exact match, the last page or maxLookupPages
func findByCedula(ctx context.Context, finder PersonaFinder, cedula string) ([]persona.Persona, error) {
	want := persona.NormalizeCedula(cedula)
	var exact []persona.Persona
	for n := 1; n <= maxLookupPages; n++ {
		page, err := finder.GetPersonas(ctx, api.PersonaFilter{Cedula: want, CurrentPage: n, Limit: lookupPageSize})
		if err != nil {
			return nil, err
		}
		exact = append(exact, exactMatches(page.Items, want)...)
		if len(exact) > 0 || n >= page.TotalPages || len(page.Items) < lookupPageSize {
			break
		}
	}
	return exact, nil
}

// exactMatches keeps the personas whose stored cédula equals want.
func exactMatches(items []persona.Persona, want string) []persona.Persona {
	var out []persona.Persona
	for _, p := range items {
		if p.Cedula == want {
			out = append(out, p)
		}
	}
	return out
}
