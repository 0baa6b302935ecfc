package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskflow/helpdesk/internal/service"
)

var (
	userEmail        string
	userPassword     string
	userFirstName    string
	userLastName     string
	userRole         string
	userDepartmentID int64
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an account with an explicit role",
	Args:  cobra.ExactArgs(1),
}

var usersReconcileCmd = &cobra.Command{
	Use:   "reconcile-roles",
	Short: "Promote accounts carrying the legacy superuser flag",
	Args:  cobra.NoArgs,
}

func init() {
	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	usersCreateCmd.Flags().StringVar(&userPassword, "password", "", "Initial password")
	usersCreateCmd.Flags().StringVar(&userFirstName, "first-name", "", "First name")
	usersCreateCmd.Flags().StringVar(&userLastName, "last-name", "", "Last name")
	usersCreateCmd.Flags().StringVar(&userRole, "role", "user", "Role (user, admin, superuser)")
	usersCreateCmd.Flags().Int64Var(&userDepartmentID, "department", 0, "Department id")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersCreateCmd.RunE = runUsersCreate
	usersReconcileCmd.RunE = runUsersReconcile
	usersCmd.AddCommand(usersCreateCmd, usersReconcileCmd)
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, e *Env) error {
		input := service.CreateUserInput{
			Username:  args[0],
			Email:     userEmail,
			Password:  userPassword,
			FirstName: userFirstName,
			LastName:  userLastName,
			Role:      userRole,
		}
		if userDepartmentID > 0 {
			dept := userDepartmentID
			input.DepartmentID = &dept
		}
		user, err := e.Users.CreateUser(ctx, input)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s %d %q\n", user.Role, user.ID, user.Username)
		return nil
	})
}

func runUsersReconcile(cmd *cobra.Command, args []string) error {
	return withEnv(cmd, func(ctx context.Context, e *Env) error {
		n, err := e.Users.ReconcileRoles(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "promoted %d account(s)\n", n)
		return nil
	})
}
