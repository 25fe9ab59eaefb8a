package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
	"github.com/BruksfildServices01/clinic-scheduler/internal/workflow"
)

// ======================================================
// BOOK
// ======================================================

// book walks the manual path of the booking workflow: provider, date, slot,
// reason, submit. Without --time it only lists the day.
func newBookCmd(g *globals) *cobra.Command {
	var providerID, date, at, reason string

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a slot through the booking workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			w := workflow.New(g.client())

			if err := w.LoadProviders(ctx, ""); err != nil {
				return err
			}
			provider, err := pickProvider(w.State().(workflow.ChoosingProvider).Providers, providerID)
			if err != nil {
				return err
			}

			if date == "" {
				date = timezone.FormatDate(timezone.NowIn(provider.Timezone))
			}
			if err := w.SelectProvider(ctx, provider, date); err != nil {
				return err
			}

			if at == "" {
				printSlots(cmd, w.State().(workflow.ChoosingSlot).Slots)
				return w.Abort()
			}

			start, err := time.ParseInLocation(timezone.DateLayout+" 15:04", date+" "+at, timezone.Location(provider.Timezone))
			if err != nil {
				return fmt.Errorf("--time must be HH:MM: %w", err)
			}

			if err := w.SelectSlot(start); err != nil {
				if errors.Is(err, workflow.ErrSlotNotBookable) {
					printSlots(cmd, w.State().(workflow.ChoosingSlot).Slots)
				}
				return err
			}
			if err := w.SetReason(reason); err != nil {
				return err
			}

			if err := w.Submit(ctx); err != nil {
				if httperr.IsBusiness(err, httperr.CodeSlotTaken) {
					fmt.Fprintln(out, "slot was just taken, pick another:")
					printSlots(cmd, w.State().(workflow.ChoosingSlot).Slots)
				}
				return err
			}

			booked := w.State().(workflow.Booked)
			return printAppointment(cmd, g, &booked.Appointment)
		},
	}

	cmd.Flags().StringVar(&providerID, "provider", "", "Provider id")
	cmd.Flags().StringVar(&date, "date", "", "Day, YYYY-MM-DD (default: today in the provider's zone)")
	cmd.Flags().StringVar(&at, "time", "", "Slot start, HH:MM in the provider's zone")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason for the visit")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

func pickProvider(providers []models.Provider, id string) (models.Provider, error) {
	for _, p := range providers {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Provider{}, httperr.ErrNotFound("provider " + id)
}

func printSlots(cmd *cobra.Command, slots []availability.Slot) {
	var free []string
	for _, s := range slots {
		if s.Bookable {
			free = append(free, s.Start.Format("15:04"))
		}
	}
	if len(free) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no bookable slots")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "bookable: %s\n", strings.Join(free, " "))
}

// ======================================================
// TRIAGE
// ======================================================

// triage sends each argument as one turn, oldest first, and stops early
// when a turn escalates. --accept books the suggested slot.
func newTriageCmd(g *globals) *cobra.Command {
	var accept bool

	cmd := &cobra.Command{
		Use:   "triage <text>...",
		Short: "Describe symptoms and get routed to a slot or to the clinic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			w := workflow.New(g.client())

			if err := w.StartTriage(); err != nil {
				return err
			}
			for _, turn := range args {
				if err := w.Describe(ctx, turn); err != nil {
					return err
				}
				if w.State().Terminal() {
					break
				}
			}

			switch s := w.State().(type) {
			case workflow.Escalated:
				fmt.Fprintln(out, s.Result.Message)
				return nil
			case workflow.Triage:
				fmt.Fprintln(out, "no slot could be suggested; pick a provider with `schedctl book`")
				return nil
			case workflow.SlotSuggested:
				sug := s.Result.Suggestion
				fmt.Fprintf(out, "%s\n%s (%s) %s\n", s.Result.Message, sug.Provider.Name, sug.Provider.Specialization,
					sug.Slot.Start.Format("2006-01-02 15:04 MST"))
			}

			if !accept {
				return nil
			}

			if err := w.Accept(); err != nil {
				return err
			}
			if err := w.Submit(ctx); err != nil {
				return err
			}

			booked := w.State().(workflow.Booked)
			return printAppointment(cmd, g, &booked.Appointment)
		},
	}

	cmd.Flags().BoolVar(&accept, "accept", false, "Book the suggested slot")
	return cmd
}
