package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/deskflow/helpdesk/internal/service"
)

var (
	deptManager     string
	deptEmail       string
	deptDescription string

	reasonNameEN       string
	reasonDescription  string
	reasonDepartmentID int64
)

var departmentsCmd = &cobra.Command{
	Use:     "departments",
	Aliases: []string{"departamentos"},
	Short:   "Manage departments",
}

var departmentsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a department",
	Args:  cobra.ExactArgs(1),
}

var departmentsDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Hide a department from listings",
	Args:  cobra.ExactArgs(1),
}

var departmentsEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Show a previously disabled department",
	Args:  cobra.ExactArgs(1),
}

var reasonsCmd = &cobra.Command{
	Use:     "reasons",
	Aliases: []string{"motivos"},
	Short:   "Manage ticket reasons",
}

var reasonsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a reason in a department",
	Args:  cobra.ExactArgs(1),
}

var reasonsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a reason; tickets using it keep no reason",
	Args:  cobra.ExactArgs(1),
}

func init() {
	departmentsCreateCmd.Flags().StringVar(&deptManager, "manager", "", "Department manager")
	departmentsCreateCmd.Flags().StringVar(&deptEmail, "email", "", "Department contact email")
	departmentsCreateCmd.Flags().StringVar(&deptDescription, "description", "", "Department description")

	reasonsCreateCmd.Flags().Int64Var(&reasonDepartmentID, "department", 0, "Owning department id")
	reasonsCreateCmd.Flags().StringVar(&reasonNameEN, "name-en", "", "English display name")
	reasonsCreateCmd.Flags().StringVar(&reasonDescription, "description", "", "Reason description")
	_ = reasonsCreateCmd.MarkFlagRequired("department")

	departmentsCreateCmd.RunE = runDepartmentsCreate
	departmentsDisableCmd.RunE = runDepartmentsSetActive(false)
	departmentsEnableCmd.RunE = runDepartmentsSetActive(true)
	reasonsCreateCmd.RunE = runReasonsCreate
	reasonsDeleteCmd.RunE = runReasonsDelete

	departmentsCmd.AddCommand(departmentsCreateCmd, departmentsDisableCmd, departmentsEnableCmd)
	reasonsCmd.AddCommand(reasonsCreateCmd, reasonsDeleteCmd)
}

func runDepartmentsCreate(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, e *Env) error {
		dept, err := e.Catalog.CreateDepartment(ctx, service.DepartmentInput{
			Name:        args[0],
			Manager:     deptManager,
			Email:       deptEmail,
			Description: deptDescription,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created department %d %q\n", dept.ID, dept.Name)
		return nil
	})
}

func runDepartmentsSetActive(active bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, e *Env) error {
			dept, err := e.Catalog.SetDepartmentActive(ctx, id, active)
			if err != nil {
				return err
			}
			state := "disabled"
			if dept.IsActive {
				state = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s department %d %q\n", state, dept.ID, dept.Name)
			return nil
		})
	}
}

func runReasonsCreate(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, e *Env) error {
		input := service.ReasonInput{
			Name:         args[0],
			Description:  reasonDescription,
			DepartmentID: reasonDepartmentID,
		}
		if reasonNameEN != "" {
			input.NameEN = &reasonNameEN
		}
		reason, err := e.Catalog.CreateReason(ctx, input)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created reason %d %q in department %d\n", reason.ID, reason.Name, reason.DepartmentID)
		return nil
	})
}

func runReasonsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withEnv(cmd, func(ctx context.Context, e *Env) error {
		if err := e.Catalog.DeleteReason(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted reason %d\n", id)
		return nil
	})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
