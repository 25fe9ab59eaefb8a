package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/clinic-scheduler/internal/changes"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// watch polls a provider's day and prints one line per change signal. It
// stops on interrupt; the server keeps no watcher state.
func newWatchCmd(g *globals) *cobra.Command {
	var (
		providerID, date string
		cursor           int64
		interval         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll a provider's day for availability changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if date == "" {
				date = timezone.FormatDate(time.Now())
			}

			c := g.client()
			out := cmd.OutOrStdout()

			if interval <= 0 {
				interval = g.cfg.SyncPollInterval
				// the server advertises its preferred interval
				if sig, err := c.ChangesSince(ctx, providerID, date, cursor); err == nil && sig.PollInterval > 0 {
					interval = time.Duration(sig.PollInterval) * time.Second
				}
			}

			p := &changes.Poller{
				Interval: interval,
				Check: func(ctx context.Context, cur int64) (int64, bool, error) {
					sig, err := c.ChangesSince(ctx, providerID, date, cur)
					return sig.Cursor, sig.Changed, err
				},
				OnChange: func(next int64) {
					fmt.Fprintf(out, "%s changed cursor=%d\n", time.Now().Format(time.RFC3339), next)
				},
				OnError: func(err error) {
					fmt.Fprintf(cmd.ErrOrStderr(), "poll failed: %v\n", err)
				},
			}

			last := p.Run(ctx, cursor)
			fmt.Fprintf(out, "stopped cursor=%d\n", last)
			return nil
		},
	}

	cmd.Flags().StringVar(&providerID, "provider", "", "Provider id")
	cmd.Flags().StringVar(&date, "date", "", "Day to watch, YYYY-MM-DD (default: today)")
	cmd.Flags().Int64Var(&cursor, "cursor", 0, "Last known cursor")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default: advertised by the server)")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}
