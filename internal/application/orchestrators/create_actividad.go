package orchestrators

import (
	"context"
	"log/slog"

	"juventud/internal/domain/actividad"
)

// ActividadCreator creates activities on the backend.
type ActividadCreator interface {
	CreateActividad(ctx context.Context, a actividad.NewActividad) (actividad.Actividad, error)
}

// CreateActividadInput carries the admin form as posted.
type CreateActividadInput struct {
	Nombre      string
	Fecha       string
	Descripcion string
}

// CreateActividadDeps holds dependencies for CreateActividad.
type CreateActividadDeps struct {
	Actividades ActividadCreator
	// OnCreated is optional; it runs after the backend accepted the activity
	OnCreated func(actividad.Actividad)
}

// ExecuteCreateActividad validates the form and creates the activity.
// PRE: none
// POST: With a blank name or a missing/invalid date the form.FieldErrors are
// returned and no backend call is made; otherwise the created activity is returned
func ExecuteCreateActividad(ctx context.Context, input CreateActividadInput, deps CreateActividadDeps) (actividad.Actividad, error) {
	payload, errs := actividad.ValidateForm(input.Nombre, input.Fecha, input.Descripcion)
	if !errs.Empty() {
		return actividad.Actividad{}, errs
	}

	created, err := deps.Actividades.CreateActividad(ctx, payload)
	if err != nil {
		slog.Warn("actividad_event", "event", "create_failed", "error", err)
		return actividad.Actividad{}, err
	}
	slog.Info("actividad_event", "event", "created", "actividad_id", created.ID, "fecha", created.Fecha)

	if deps.OnCreated != nil {
		deps.OnCreated(created)
	}
	return created, nil
}
