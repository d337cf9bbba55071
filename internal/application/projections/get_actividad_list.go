package projections

import (
	"context"
	"fmt"

	"juventud/internal/application/listutil"
	"juventud/internal/domain/actividad"
)

// Actividad list columns.
const (
	ColActividadNombre = "nombre"
	ColActividadFecha  = "fecha"
)

// ActividadColumns lists the sortable activity columns in display order.
var ActividadColumns = []string{ColActividadNombre, ColActividadFecha}

// DefaultActividadSort shows the newest activities first.
var DefaultActividadSort = listutil.SortParams{Sort: ColActividadFecha, Dir: listutil.Desc}

// GetActividadListQuery carries query parameters.
type GetActividadListQuery struct {
	Sort  listutil.SortParams // zero value means DefaultActividadSort
	Today string              // YYYY-MM-DD, marks today's rows
}

// ActividadRow is one activity formatted for the admin table.
type ActividadRow struct {
	ID          string
	Nombre      string
	Fecha       string
	Descripcion string // markdown source
	Asistentes  int
	IsToday     bool
}

// GetActividadListResult carries the query result.
type GetActividadListResult struct {
	Actividades []ActividadRow
	Sort        listutil.SortParams
}

// GetActividadListDeps holds dependencies for GetActividadList.
type GetActividadListDeps struct {
	Actividades ActividadLister
}

var actividadSortColumns = map[string]listutil.Column[actividad.Actividad]{
	ColActividadNombre: func(a actividad.Actividad) string { return a.Nombre },
	ColActividadFecha:  func(a actividad.Actividad) string { return a.Fecha },
}

// QueryGetActividadList retrieves every activity for the admin panel.
// PRE: none
// POST: Rows are a stable permutation of the backend list ordered by the effective sort
func QueryGetActividadList(ctx context.Context, query GetActividadListQuery, deps GetActividadListDeps) (GetActividadListResult, error) {
	list, err := deps.Actividades.GetActividades(ctx)
	if err != nil {
		return GetActividadListResult{}, fmt.Errorf("list actividades: %w", err)
	}

	sort := query.Sort.Or(DefaultActividadSort)
	sorted := listutil.SortRows(list, sort, actividadSortColumns)

	rows := make([]ActividadRow, 0, len(sorted))
	for _, a := range sorted {
		rows = append(rows, ActividadRow{
			ID:          a.ID,
			Nombre:      a.Nombre,
			Fecha:       a.Fecha,
			Descripcion: a.Descripcion,
			Asistentes:  a.AsistentesCount(),
			IsToday:     query.Today != "" && a.Fecha == query.Today,
		})
	}
	return GetActividadListResult{Actividades: rows, Sort: sort}, nil
}
