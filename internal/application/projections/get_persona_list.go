package projections

import (
	"context"
	"fmt"
	"strings"

	"juventud/internal/adapters/api"
	"juventud/internal/application/listutil"
	"juventud/internal/domain/persona"
)

// Persona list columns, also the accepted sort keys.
const (
	ColCedula          = "cedula"
	ColNombre          = "nombre"
	ColEmail           = "email"
	ColTelefono        = "telefono"
	ColFechaNacimiento = "fecha_nacimiento"
)

// PersonaColumns lists the sortable persona columns in display order.
var PersonaColumns = []string{ColCedula, ColNombre, ColEmail, ColTelefono, ColFechaNacimiento}

// Persona list filter keys.
const (
	FilterCedula = "cedula"
	FilterNombre = "nombre"
)

// PersonaFilterKeys lists the filter query parameters of the persona list.
var PersonaFilterKeys = []string{FilterCedula, FilterNombre}

// GetPersonaListQuery carries query parameters.
type GetPersonaListQuery struct {
	Cedula string
	Nombre string
	Page   int
	Limit  int // 0 means listutil.DefaultPerPage
	Sort   listutil.SortParams
}

// PersonaRow is one persona formatted for the admin table.
type PersonaRow struct {
	ID              string
	Cedula          string // NN.NNN.NNN, empty when not given
	Nombre          string
	Email           string
	Telefono        string // grouped with dashes
	FechaNacimiento string // YYYY-MM-DD
	Ministerio      string
	Ocupacion       string
	Bautizado       string // "Sí", "No" or empty
	Genero          string
}

// GetPersonaListResult carries the query result.
type GetPersonaListResult struct {
	Personas   []PersonaRow
	Page       listutil.PageInfo
	Sort       listutil.SortParams
	CountLabel string
	Filtered   bool
}

// GetPersonaListDeps holds dependencies for GetPersonaList.
type GetPersonaListDeps struct {
	Personas PersonaLister
}

var personaSortColumns = map[string]listutil.Column[persona.Persona]{
	ColCedula:          func(p persona.Persona) string { return p.Cedula },
	ColNombre:          persona.Persona.FullName,
	ColEmail:           func(p persona.Persona) string { return p.Email },
	ColTelefono:        func(p persona.Persona) string { return p.Telefono },
	ColFechaNacimiento: func(p persona.Persona) string { return p.FechaNacimiento },
}

// QueryGetPersonaList retrieves one page of personas for the admin panel.
// PRE: Valid query parameters
// POST: Filters are trimmed and omitted when empty; rows are sorted within the
// fetched page by query.Sort, keeping backend order when no sort is set
func QueryGetPersonaList(ctx context.Context, query GetPersonaListQuery, deps GetPersonaListDeps) (GetPersonaListResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = listutil.DefaultPerPage
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	filter := api.PersonaFilter{
		Cedula:         persona.NormalizeCedula(strings.TrimSpace(query.Cedula)),
		NombreCompleto: strings.TrimSpace(query.Nombre),
		CurrentPage:    page,
		Limit:          limit,
	}

	res, err := deps.Personas.GetPersonas(ctx, filter)
	if err != nil {
		return GetPersonaListResult{}, fmt.Errorf("list personas: %w", err)
	}

	total := res.TotalItems
	if total < len(res.Items) {
		total = len(res.Items)
	}
	if res.CurrentPage > 0 {
		page = res.CurrentPage
	}

	sorted := listutil.SortRows(res.Items, query.Sort, personaSortColumns)
	rows := make([]PersonaRow, 0, len(sorted))
	for _, p := range sorted {
		rows = append(rows, newPersonaRow(p))
	}

	return GetPersonaListResult{
		Personas:   rows,
		Page:       listutil.NewPageInfo(page, limit, total),
		Sort:       query.Sort,
		CountLabel: CountLabel(total),
		Filtered:   filter.Cedula != "" || filter.NombreCompleto != "",
	}, nil
}

func newPersonaRow(p persona.Persona) PersonaRow {
	row := PersonaRow{
		ID:              p.ID,
		Nombre:          p.FullName(),
		Email:           p.Email,
		Telefono:        persona.FormatTelefono(p.Telefono),
		FechaNacimiento: p.FechaNacimiento,
		Ministerio:      p.Ministerio,
		Ocupacion:       p.Ocupacion,
		Genero:          p.Genero,
	}
	if p.Cedula != "" {
		row.Cedula = persona.FormatCedula(p.Cedula)
	}
	if p.Bautizado != nil {
		row.Bautizado = "No"
		if *p.Bautizado {
			row.Bautizado = "Sí"
		}
	}
	return row
}

// CountLabel renders the registered total, e.g. "12 jóvenes registrados".
func CountLabel(n int) string {
	if n == 1 {
		return "1 joven registrado"
	}
	return fmt.Sprintf("%d jóvenes registrados", n)
}
