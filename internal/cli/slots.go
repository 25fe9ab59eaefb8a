package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// slots previews a config offline, with the settings screen defaults.
func newSlotsCmd(g *globals) *cobra.Command {
	var (
		start, end, mode, date, tz string
		slotMin, bufferMin         int
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Preview the slot layout of a config without a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := availability.ParseTimeOfDay(start)
			if err != nil {
				return err
			}
			we, err := availability.ParseTimeOfDay(end)
			if err != nil {
				return err
			}

			cfg := availability.Config{
				ProviderID:     "preview",
				WorkStart:      ws,
				WorkEnd:        we,
				SlotDuration:   time.Duration(slotMin) * time.Minute,
				BufferDuration: time.Duration(bufferMin) * time.Minute,
				Mode:           availability.Mode(mode),
			}.Normalize()
			if err := cfg.Validate(); err != nil {
				return err
			}

			if date == "" {
				date = timezone.FormatDate(timezone.NowIn(tz))
			}
			day, err := timezone.ParseDate(date, tz)
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
			}

			slots := availability.Generate(cfg, day, nil)

			if g.json() {
				return writeJSON(cmd.OutOrStdout(), slots)
			}
			for _, s := range slots {
				fmt.Fprintf(cmd.OutOrStdout(), "%s-%s\n", s.Start.Format("15:04"), s.End.Format("15:04"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d slots\n", len(slots))
			return nil
		},
	}

	d := availability.DefaultConfig("")
	cmd.Flags().StringVar(&start, "start", d.WorkStart.String(), "Work start (HH:MM)")
	cmd.Flags().StringVar(&end, "end", d.WorkEnd.String(), "Work end (HH:MM)")
	cmd.Flags().IntVar(&slotMin, "slot", int(d.SlotDuration/time.Minute), "Slot duration in minutes")
	cmd.Flags().IntVar(&bufferMin, "buffer", int(d.BufferDuration/time.Minute), "Buffer after each slot in minutes (interleaved only)")
	cmd.Flags().StringVar(&mode, "mode", string(d.Mode), "continuous or interleaved")
	cmd.Flags().StringVar(&date, "date", "", "Day to lay out (default: today)")
	cmd.Flags().StringVar(&tz, "tz", g.cfg.DefaultTimezone, "IANA time zone")

	return cmd
}
