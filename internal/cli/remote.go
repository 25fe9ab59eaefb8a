package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/clinic-scheduler/internal/client"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// ======================================================
// CONFIG
// ======================================================

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or change a provider's availability config",
	}

	var providerID string

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the current config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.client().GetConfig(cmd.Context(), providerID)
			if err != nil {
				return err
			}
			return printConfig(cmd, g, cfg)
		},
	}

	var req client.ConfigRequest
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the config (provider token required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.client().UpdateConfig(cmd.Context(), providerID, req)
			if err != nil {
				return err
			}
			return printConfig(cmd, g, cfg)
		},
	}
	set.Flags().StringVar(&req.WorkStart, "start", "09:00", "Work start (HH:MM)")
	set.Flags().StringVar(&req.WorkEnd, "end", "17:00", "Work end (HH:MM)")
	set.Flags().IntVar(&req.SlotDuration, "slot", 30, "Slot duration in minutes")
	set.Flags().IntVar(&req.BufferDuration, "buffer", 0, "Buffer in minutes")
	set.Flags().StringVar(&req.Mode, "mode", "continuous", "continuous or interleaved")

	for _, c := range []*cobra.Command{get, set} {
		c.Flags().StringVar(&providerID, "provider", "", "Provider id")
		_ = c.MarkFlagRequired("provider")
	}

	cmd.AddCommand(get, set)
	return cmd
}

func printConfig(cmd *cobra.Command, g *globals, cfg *models.AvailabilityConfig) error {
	if g.json() {
		return writeJSON(cmd.OutOrStdout(), cfg)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s-%s slot=%dm buffer=%dm mode=%s version=%d\n",
		cfg.ProviderID, cfg.WorkStart, cfg.WorkEnd, cfg.SlotDurationMin, cfg.BufferDurationMin, cfg.Mode, cfg.Version)
	return nil
}

// ======================================================
// APPOINTMENTS
// ======================================================

func newAppointmentCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointment",
		Aliases: []string{"appt"},
		Short:   "Act on existing appointments",
	}

	actions := []struct {
		name string
		run  func(*client.Client, context.Context, string) (*models.Appointment, error)
	}{
		{"cancel", (*client.Client).Cancel},
		{"confirm", (*client.Client).Confirm},
		{"complete", (*client.Client).Complete},
	}

	for _, a := range actions {
		run := a.run
		cmd.AddCommand(&cobra.Command{
			Use:   a.name + " <id>",
			Short: "Send " + a.name + " for an appointment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ap, err := run(g.client(), cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printAppointment(cmd, g, ap)
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "mine",
		Short: "List the calling patient's appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			aps, err := g.client().MyAppointments(cmd.Context())
			if err != nil {
				return err
			}
			if g.json() {
				return writeJSON(cmd.OutOrStdout(), aps)
			}
			for i := range aps {
				if err := printAppointment(cmd, g, &aps[i]); err != nil {
					return err
				}
			}
			return nil
		},
	})

	return cmd
}

func printAppointment(cmd *cobra.Command, g *globals, ap *models.Appointment) error {
	if g.json() {
		return writeJSON(cmd.OutOrStdout(), ap)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s-%s %s %q\n",
		ap.ID, ap.ProviderID, ap.StartTime.Format("2006-01-02 15:04"), ap.EndTime.Format("15:04"), ap.Status, ap.Reason)
	return nil
}
