package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"juventud/internal/domain/actividad"
)

// SemanaFilter selects activities for a date. Empty Fecha lets the backend choose.
type SemanaFilter struct {
	Fecha string // YYYY-MM-DD
}

// Asistencia is the result of recording attendance.
type Asistencia struct {
	Message   string
	Actividad actividad.Actividad
}

// GetActividades returns every activity, unpaginated.
// PRE: ctx is valid
// POST: Returns activities in backend order; never nil
func (c *Client) GetActividades(ctx context.Context) ([]actividad.Actividad, error) {
	var wire []actividadWire
	err := c.request(ctx, call{
		method: http.MethodGet,
		route:  "/actividades",
		path:   "/actividades",
	}, &wire)
	if err != nil {
		return nil, err
	}
	return c.actividades(wire)
}

// CreateActividad creates an activity.
// PRE: a passed actividad.ValidateForm
// POST: Returns the activity as stored by the backend
func (c *Client) CreateActividad(ctx context.Context, a actividad.NewActividad) (actividad.Actividad, error) {
	var wire actividadWire
	err := c.request(ctx, call{
		method: http.MethodPost,
		route:  "/actividades",
		path:   "/actividades",
		body: createActividadRequest{
			Nombre:      a.Nombre,
			Fecha:       a.Fecha,
			Descripcion: a.Descripcion,
		},
	}, &wire)
	if err != nil {
		return actividad.Actividad{}, err
	}
	if err := c.check(wire); err != nil {
		return actividad.Actividad{}, err
	}
	return wire.toDomain(), nil
}

// GetActividadesSemana returns the activities for filter.Fecha.
// PRE: ctx is valid
// POST: Returns activities in backend order; never nil
func (c *Client) GetActividadesSemana(ctx context.Context, filter SemanaFilter) ([]actividad.Actividad, error) {
	q := url.Values{}
	if f := strings.TrimSpace(filter.Fecha); f != "" {
		q.Set("fecha", f)
	}
	var wire []actividadWire
	err := c.request(ctx, call{
		method: http.MethodGet,
		route:  "/actividades/semana",
		path:   "/actividades/semana",
		query:  q,
	}, &wire)
	if err != nil {
		return nil, err
	}
	return c.actividades(wire)
}

// AsistirActividad records that personaID attended actividadID.
// PRE: both ids non-empty, otherwise it fails without a network call
// POST: Returns the backend message and the updated activity
func (c *Client) AsistirActividad(ctx context.Context, actividadID, personaID string) (Asistencia, error) {
	if strings.TrimSpace(actividadID) == "" {
		return Asistencia{}, ErrActividadIDRequired
	}
	if strings.TrimSpace(personaID) == "" {
		return Asistencia{}, ErrPersonaIDRequired
	}

	var wire asistenciaWire
	err := c.request(ctx, call{
		method: http.MethodPost,
		route:  "/actividades/:id/asistir",
		path:   "/actividades/" + url.PathEscape(actividadID) + "/asistir",
		body:   map[string]string{"personaId": personaID},
	}, &wire)
	if err != nil {
		return Asistencia{}, err
	}

	out := Asistencia{Message: wire.Message}
	if wire.Actividad != nil {
		if err := c.check(*wire.Actividad); err != nil {
			return Asistencia{}, err
		}
		out.Actividad = wire.Actividad.toDomain()
	}
	return out, nil
}

func (c *Client) actividades(wire []actividadWire) ([]actividad.Actividad, error) {
	out := make([]actividad.Actividad, 0, len(wire))
	for _, w := range wire {
		if err := c.check(w); err != nil {
			return nil, err
		}
		out = append(out, w.toDomain())
	}
	return out, nil
}
