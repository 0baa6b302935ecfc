package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskflow/helpdesk/internal/service"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

const itDepartment = "Tecnologias de la Informacion"

type seedReason struct {
	name, nameEN, description string
}

var seedDepartments = []service.DepartmentInput{
	{Name: "Calidad", Manager: "Gerente de Calidad", Email: "calidad@empresa.com", Description: "Departamento de Control de Calidad"},
	{Name: "Finanzas", Manager: "Gerente de Finanzas", Email: "finanzas@empresa.com", Description: "Departamento de Finanzas"},
	{Name: "Compras", Manager: "Gerente de Compras", Email: "compras@empresa.com", Description: "Departamento de Compras"},
	{Name: "Ventas", Manager: "Gerente de Ventas", Email: "ventas@empresa.com", Description: "Departamento de Ventas"},
	{Name: "Ingenieria", Manager: "Gerente de Ingenieria", Email: "ingenieria@empresa.com", Description: "Departamento de Ingenieria"},
	{Name: "Logistica", Manager: "Gerente de Logistica", Email: "logistica@empresa.com", Description: "Departamento de Logistica"},
	{Name: "Recursos Humanos", Manager: "Gerente de Recursos Humanos", Email: "rrhh@empresa.com", Description: "Departamento de Recursos Humanos"},
	{Name: itDepartment, Manager: "Gerente de TI", Email: "ti@empresa.com", Description: "Departamento de Tecnologias de la Informacion"},
	{Name: "Mantenimiento", Manager: "Gerente de Mantenimiento", Email: "mantenimiento@empresa.com", Description: "Departamento de Mantenimiento"},
	{Name: "Produccion", Manager: "Gerente de Produccion", Email: "produccion@empresa.com", Description: "Departamento de Produccion"},
}

var seedITReasons = []seedReason{
	{"Internet", "Internet", "Problemas con conexión a internet"},
	{"Programas", "Software", "Problemas con instalación o uso de programas"},
	{"Contraseñas", "Passwords", "Cambio o recuperación de contraseñas"},
	{"Equipo", "Hardware", "Problemas con hardware o equipo de cómputo"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default departments and IT reasons",
	Long:  "seed is idempotent: existing departments and reasons are left untouched.",
	Args:  cobra.NoArgs,
}

func init() {
	seedCmd.RunE = runSeed
}

func runSeed(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, e *Env) error {
		var itID int64
		created := 0
		for _, input := range seedDepartments {
			dept, isNew, err := e.Catalog.EnsureDepartment(ctx, input)
			if err != nil {
				return fmt.Errorf("seed department %q: %w", input.Name, err)
			}
			if isNew {
				created++
			}
			if dept.Name == itDepartment {
				itID = dept.ID
			}
		}

		reasons := 0
		for _, r := range seedITReasons {
			nameEN := r.nameEN
			_, err := e.Catalog.CreateReason(ctx, service.ReasonInput{
				Name:         r.name,
				NameEN:       &nameEN,
				Description:  r.description,
				DepartmentID: itID,
			})
			switch {
			case err == nil:
				reasons++
			case apperrors.HasCode(err, apperrors.CodeConflict):
			default:
				return fmt.Errorf("seed reason %q: %w", r.name, err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d department(s) and %d reason(s)\n", created, reasons)
		return nil
	})
}
