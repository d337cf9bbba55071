package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"juventud/internal/application/listutil"
	"juventud/internal/application/orchestrators"
	"juventud/internal/application/projections"
	"juventud/internal/domain/form"
)

// cliTimeout bounds a whole admin command.
const cliTimeout = 30 * time.Second

func personasCmd(g *globalFlags) *cobra.Command {
	var (
		cedula string
		nombre string
		limit  int
		sortBy string
	)
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List registered personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(g)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()

			result, err := projections.QueryGetPersonaList(ctx, projections.GetPersonaListQuery{
				Cedula: cedula,
				Nombre: nombre,
				Limit:  limit,
				Sort:   listutil.SortParams{Sort: sortBy, Dir: listutil.Asc},
			}, projections.GetPersonaListDeps{Personas: newClient(cfg, nil, nil)})
			if err != nil {
				return err
			}
			return printPersonas(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&cedula, "cedula", "", "Filter by cédula (substring)")
	cmd.Flags().StringVar(&nombre, "nombre", "", "Filter by full name (substring)")
	cmd.Flags().IntVar(&limit, "limit", listutil.DefaultPerPage, "Page size")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort column (cedula, nombre, email, telefono, fecha_nacimiento)")
	return cmd
}

func printPersonas(out io.Writer, result projections.GetPersonaListResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CÉDULA\tNOMBRE\tCORREO\tTELÉFONO\tNACIMIENTO")
	for _, p := range result.Personas {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Cedula, p.Nombre, p.Email, p.Telefono, p.FechaNacimiento)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, result.CountLabel)
	return err
}

func actividadesCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actividades",
		Short: "List or create activities",
	}

	var sortBy, dir string
	list := &cobra.Command{
		Use:   "list",
		Short: "List every activity, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(g)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()

			result, err := projections.QueryGetActividadList(ctx, projections.GetActividadListQuery{
				Sort:  listutil.SortParams{Sort: sortBy, Dir: dir},
				Today: time.Now().Format(form.DateLayout),
			}, projections.GetActividadListDeps{Actividades: newClient(cfg, nil, nil)})
			if err != nil {
				return err
			}
			return printActividades(cmd.OutOrStdout(), result)
		},
	}
	list.Flags().StringVar(&sortBy, "sort", "", "Sort column (nombre, fecha)")
	list.Flags().StringVar(&dir, "dir", listutil.Asc, "Sort direction (asc, desc)")

	var input orchestrators.CreateActividadInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(g)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()

			created, err := orchestrators.ExecuteCreateActividad(ctx, input, orchestrators.CreateActividadDeps{
				Actividades: newClient(cfg, nil, nil),
			})
			var fe form.FieldErrors
			if errors.As(err, &fe) {
				for field, msg := range fe {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
				}
				return errors.New("invalid activity")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", created.ID, created.Fecha, created.Nombre)
			return nil
		},
	}
	create.Flags().StringVar(&input.Nombre, "nombre", "", "Activity name")
	create.Flags().StringVar(&input.Fecha, "fecha", "", "Date (YYYY-MM-DD or DD/MM/YYYY)")
	create.Flags().StringVar(&input.Descripcion, "descripcion", "", "Markdown description")
	create.MarkFlagRequired("nombre")
	create.MarkFlagRequired("fecha")

	cmd.AddCommand(list, create)
	return cmd
}

func printActividades(out io.Writer, result projections.GetActividadListResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FECHA\tNOMBRE\tASISTENTES\t")
	for _, a := range result.Actividades {
		mark := ""
		if a.IsToday {
			mark = "hoy"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", a.Fecha, a.Nombre, a.Asistentes, mark)
	}
	return tw.Flush()
}

func asistirCmd(g *globalFlags) *cobra.Command {
	var cedula string
	cmd := &cobra.Command{
		Use:   "asistir",
		Short: "Record attendance at today's activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(g)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()

			client := newClient(cfg, nil, nil)
			today, _, err := orchestrators.NewDayResolver(orchestrators.ResolveTodayDeps{Actividades: client}, time.Now, time.Local).Today(ctx)
			if err != nil {
				return fmt.Errorf("resolve today's activity: %w", err)
			}
			flow, err := orchestrators.ExecuteCheckInPersona(ctx, orchestrators.CheckInPersonaInput{
				Cedula: cedula,
				Today:  today,
			}, orchestrators.CheckInPersonaDeps{Personas: client, Attendance: client})
			if err != nil {
				return errors.New(flow.Message())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", flow.Persona().FullName(), flow.Actividad().Nombre, flow.Actividad().Fecha)
			return nil
		},
	}
	cmd.Flags().StringVar(&cedula, "cedula", "", "Cédula of the persona")
	cmd.MarkFlagRequired("cedula")
	return cmd
}
