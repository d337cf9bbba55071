package projections

import (
	"context"

	"juventud/internal/adapters/api"
	"juventud/internal/domain/actividad"
	"juventud/internal/domain/persona"
)

// PersonaLister interface for persona queries.
type PersonaLister interface {
	GetPersonas(ctx context.Context, filter api.PersonaFilter) (api.Page[persona.Persona], error)
}

// ActividadLister interface for activity queries.
type ActividadLister interface {
	GetActividades(ctx context.Context) ([]actividad.Actividad, error)
}
