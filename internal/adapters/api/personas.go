package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"juventud/internal/domain/persona"
)

// Page is one page of a paginated list.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	TotalPages  int
	TotalItems  int
	Limit       int
}

// PersonaFilter selects personas. Zero-valued fields are not sent.
type PersonaFilter struct {
	Cedula         string // substring match on the backend
	NombreCompleto string // substring match on the backend
	CurrentPage    int
	Limit          int
}

func (f PersonaFilter) values() url.Values {
	q := url.Values{}
	if v := strings.TrimSpace(f.Cedula); v != "" {
		q.Set("cedula", v)
	}
	if v := strings.TrimSpace(f.NombreCompleto); v != "" {
		q.Set("nombreCompleto", v)
	}
	if f.CurrentPage > 0 {
		q.Set("currentPage", strconv.Itoa(f.CurrentPage))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// GetPersonas lists personas matching filter.
// PRE: ctx is valid
// POST: Returns one page; Items is never nil
func (c *Client) GetPersonas(ctx context.Context, filter PersonaFilter) (Page[persona.Persona], error) {
	var wire pageWire[personaWire]
	err := c.request(ctx, call{
		method: http.MethodGet,
		route:  "/personas",
		path:   "/personas",
		query:  filter.values(),
	}, &wire)
	if err != nil {
		return Page[persona.Persona]{}, err
	}

	page := Page[persona.Persona]{
		Items:       make([]persona.Persona, 0, len(wire.Data)),
		CurrentPage: wire.CurrentPage,
		TotalPages:  wire.TotalPages,
		TotalItems:  wire.TotalItems,
		Limit:       wire.Limit,
	}
	for _, w := range wire.Data {
		if err := c.check(w); err != nil {
			return Page[persona.Persona]{}, err
		}
		page.Items = append(page.Items, w.toDomain())
	}
	return page, nil
}

// CreatePersona registers a new persona.
// The payload is mapped to the backend's snake_case keys; empty optional fields are omitted.
// PRE: p passed the registration form's required-field check
// POST: Returns the persona as stored by the backend
func (c *Client) CreatePersona(ctx context.Context, p persona.NewPersona) (persona.Persona, error) {
	var wire personaWire
	err := c.request(ctx, call{
		method: http.MethodPost,
		route:  "/personas",
		path:   "/personas",
		body:   newCreatePersonaRequest(p),
	}, &wire)
	if err != nil {
		return persona.Persona{}, err
	}
	if err := c.check(wire); err != nil {
		return persona.Persona{}, err
	}
	return wire.toDomain(), nil
}
