package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dbpkg "github.com/BruksfildServices01/clinic-scheduler/internal/db"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	infraRepo "github.com/BruksfildServices01/clinic-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// MIGRATE
// ======================================================

func newMigrateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and the active-slot unique index",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := dbpkg.Open(g.cfg.DBUrl)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := dbpkg.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

// ======================================================
// PROVIDERS
// ======================================================

func newProvidersCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Manage the provider directory",
	}

	var p models.Provider
	add := &cobra.Command{
		Use:   "add",
		Short: "Create or update a provider directly in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := dbpkg.Open(g.cfg.DBUrl)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}

			uc := ucAppointment.NewRegisterProvider(ucAppointment.Deps{
				Providers: infraRepo.NewProviderGormRepository(db),
				Log:       zap.NewNop(),
			})
			saved, err := uc.Execute(cmd.Context(), p)
			if err != nil {
				return err
			}

			if g.json() {
				return writeJSON(cmd.OutOrStdout(), saved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s, %s)\n", saved.ID, saved.Name, saved.Timezone)
			return nil
		},
	}
	add.Flags().StringVar(&p.ID, "id", "", "Provider id")
	add.Flags().StringVar(&p.Name, "name", "", "Display name")
	add.Flags().StringVar(&p.Specialization, "specialization", "", "Specialization, e.g. Orthodontist")
	add.Flags().StringVar(&p.Timezone, "tz", "", "IANA time zone (default: server default)")

	var specialization string
	list := &cobra.Command{
		Use:   "list",
		Short: "List providers through the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			providers, err := g.client().ListProviders(cmd.Context(), specialization)
			if err != nil {
				return err
			}

			if g.json() {
				return writeJSON(cmd.OutOrStdout(), providers)
			}
			for _, p := range providers {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Specialization, p.Timezone)
			}
			return nil
		},
	}
	list.Flags().StringVar(&specialization, "specialization", "", "Filter by specialization")

	cmd.AddCommand(add, list)
	return cmd
}

// ======================================================
// TOKEN
// ======================================================

// token mints a development bearer token signed with JWT_SECRET.
func newTokenCmd(g *globals) *cobra.Command {
	var (
		sub, role string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor := domain.Actor{ID: sub, Role: domain.Role(role)}
			if actor.ID == "" || !actor.Role.Valid() {
				return fmt.Errorf("--sub and --role (patient or provider) are required")
			}

			tok, err := middleware.SignToken(g.cfg.JWTSecret, actor, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "Actor id")
	cmd.Flags().StringVar(&role, "role", string(domain.RolePatient), "patient or provider")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}
