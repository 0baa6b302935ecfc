// Package cli implements helpdeskctl, the operator tool for schema
// migrations, catalog seeding and account administration.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/persistence"
	"github.com/deskflow/helpdesk/internal/repository"
	"github.com/deskflow/helpdesk/internal/service"
)

var errDSNRequired = errors.New("POSTGRES_DSN is required")

// Env carries the services a command operates on.
type Env struct {
	DSN     string
	Logger  *zap.Logger
	Catalog *service.CatalogService
	Users   *service.UserAdminService
	close   func()
}

// Close releases the resources opened for the command.
func (e *Env) Close() {
	if e != nil && e.close != nil {
		e.close()
	}
}

// env is set by tests; commands otherwise open Postgres from the environment.
var env *Env

var rootCmd = &cobra.Command{
	Use:           "helpdeskctl",
	Short:         "Helpdesk administration tool",
	Long:          "helpdeskctl runs migrations, seeds the catalog and manages accounts.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(departmentsCmd)
	rootCmd.AddCommand(reasonsCmd)
	rootCmd.AddCommand(usersCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openEnv(ctx context.Context) (*Env, error) {
	if env != nil {
		return env, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return nil, errDSNRequired
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	pool := pg.PoolHandle()
	departments := repository.NewDepartmentRepository(pool)
	return &Env{
		DSN:     cfg.Postgres.DSN,
		Logger:  logger,
		Catalog: service.NewCatalogService(departments, repository.NewReasonRepository(pool)),
		Users:   service.NewUserAdminService(repository.NewUserRepository(pool), departments, cfg.Auth.BcryptCost),
		close: func() {
			pg.Close()
			_ = logger.Sync()
		},
	}, nil
}

// withEnv opens the environment for the lifetime of fn.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	if e != env {
		defer e.Close()
	}
	return fn(ctx, e)
}
