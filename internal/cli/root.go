// Package cli implements the schedctl commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/clinic-scheduler/internal/client"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type globals struct {
	cfg    *config.Config
	apiURL string
	token  string
	format string
}

// NewRootCmd builds the command tree. Each call returns a fresh tree, so
// flag state never leaks between runs.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	g := &globals{cfg: cfg}

	root := &cobra.Command{
		Use:           "schedctl",
		Short:         "Operate and exercise the clinic scheduler",
		Long:          "Preview slot layouts, manage providers, book through the API and watch a provider's day for changes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.apiURL, "api", cfg.APIBaseURL, "Scheduler API base URL")
	root.PersistentFlags().StringVar(&g.token, "token", os.Getenv("SCHEDCTL_TOKEN"), "Bearer token (default: $SCHEDCTL_TOKEN)")
	root.PersistentFlags().StringVarP(&g.format, "format", "f", "text", "Output format: json or text")

	root.AddCommand(
		newSlotsCmd(g),
		newMigrateCmd(g),
		newProvidersCmd(g),
		newTokenCmd(g),
		newConfigCmd(g),
		newAppointmentCmd(g),
		newWatchCmd(g),
		newBookCmd(g),
		newTriageCmd(g),
	)

	return root
}

// Execute runs schedctl against the process environment.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	timezone.SetDefault(cfg.DefaultTimezone)

	root := NewRootCmd(cfg)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (g *globals) client() *client.Client {
	return client.New(g.apiURL, g.token)
}

func (g *globals) json() bool {
	return g.format == "json"
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
