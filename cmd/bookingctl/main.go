// Command bookingctl is an operator CLI for the booking engine's gRPC API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"

	grpcTransport "barberpro/backend/internal/transport/grpc"
)

type cli struct {
	addr    string
	timeout time.Duration
	out     io.Writer
}

func main() {
	c := &cli{out: os.Stdout}
	if err := c.rootCmd().Execute(); err != nil {
		if st, ok := status.FromError(err); ok {
			fmt.Fprintf(os.Stderr, "error: %s: %s\n", st.Code(), st.Message())
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookingctl",
		Short:         "Talk to a running booking engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultAddr := os.Getenv("BOOKINGCTL_ADDR")
	if defaultAddr == "" {
		defaultAddr = "127.0.0.1:50051"
	}
	root.PersistentFlags().StringVar(&c.addr, "addr", defaultAddr, "engine gRPC address")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "per-call timeout")

	root.AddCommand(c.slotsCmd())
	root.AddCommand(c.bookCmd())
	root.AddCommand(c.bookingsCmd())
	root.AddCommand(c.timeOffCmd())
	root.AddCommand(c.providerCmd())
	root.AddCommand(c.scheduleCmd())
	return root
}

// call dials the engine and runs fn with a bounded context.
func (c *cli) call(cmd *cobra.Command, fn func(ctx context.Context, client *grpcTransport.Client) error) error {
	conn, err := grpcTransport.Dial(c.addr, grpcTransport.DialOptions{})
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return fn(ctx, grpcTransport.NewClient(conn))
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
}

func (c *cli) slotsCmd() *cobra.Command {
	var (
		provider, date, service string
		duration                int
		grid                    bool
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List free slots for a provider on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpcTransport.Client) error {
				w := c.table()
				if grid {
					resp, err := client.DayGrid(ctx, &grpcTransport.DayGridRequest{ProviderID: provider, Date: date, DurationMinutes: duration})
					if err != nil {
						return err
					}
					fmt.Fprintln(w, "START\tEND\tAVAILABLE")
					for _, s := range resp.Slots {
						fmt.Fprintf(w, "%s\t%s\t%t\n", s.Start, s.End, s.Available)
					}
					return w.Flush()
				}

				resp, err := client.ResolveSlots(ctx, &grpcTransport.ResolveSlotsRequest{
					ProviderID:      provider,
					Date:            date,
					ServiceID:       service,
					DurationMinutes: duration,
				})
				if err != nil {
					return err
				}
				if len(resp.Slots) == 0 {
					fmt.Fprintln(c.out, "no free slots")
					return nil
				}
				fmt.Fprintln(w, "START\tEND")
				for _, s := range resp.Slots {
					fmt.Fprintf(w, "%s\t%s\n", s.Start, s.End)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider id")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&service, "service", "", "service id; its duration is used")
	cmd.Flags().IntVar(&duration, "duration", 0, "duration in minutes when no service is given")
	cmd.Flags().BoolVar(&grid, "grid", false, "show every candidate start with its availability")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func (c *cli) bookCmd() *cobra.Command {
	var provider, service, client, date, start, key string
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Commit a booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, cl *grpcTransport.Client) error {
				resp, err := cl.CommitBooking(grpcTransport.WithIdempotencyKey(ctx, key), &grpcTransport.CommitBookingRequest{
					ProviderID: provider,
					ServiceID:  service,
					ClientID:   client,
					Date:       date,
					Start:      start,
				})
				if err != nil {
					return err
				}
				b := resp.Booking
				fmt.Fprintf(c.out, "booked %s: %s %s-%s (%s)\n", b.ID, b.Date, b.Start, b.End, b.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider id")
	cmd.Flags().StringVar(&service, "service", "", "service id")
	cmd.Flags().StringVar(&client, "client", "", "client id")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "start time (HH:MM)")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "retry key; replays return the original booking")
	for _, f := range []string{"provider", "service", "client", "date", "start"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func (c *cli) bookingsCmd() *cobra.Command {
	var (
		provider, client, from, to string
		cancelled                  bool
	)
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List bookings of a provider or a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (provider == "") == (client == "") {
				return fmt.Errorf("exactly one of --provider or --client is required")
			}
			return c.call(cmd, func(ctx context.Context, gc *grpcTransport.Client) error {
				resp, err := gc.ListBookings(ctx, &grpcTransport.ListBookingsRequest{
					ProviderID:       provider,
					ClientID:         client,
					From:             from,
					To:               to,
					IncludeCancelled: cancelled,
				})
				if err != nil {
					return err
				}
				w := c.table()
				fmt.Fprintln(w, "ID\tDATE\tTIME\tPROVIDER\tCLIENT\tSTATUS")
				for _, b := range resp.Bookings {
					fmt.Fprintf(w, "%s\t%s\t%s-%s\t%s\t%s\t%s\n", b.ID, b.Date, b.Start, b.End, b.ProviderID, b.ClientID, b.Status)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider id")
	cmd.Flags().StringVar(&client, "client", "", "client id")
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&cancelled, "include-cancelled", false, "include cancelled bookings")
	for _, f := range []string{"from", "to"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func (c *cli) timeOffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeoff",
		Short: "Manage time-off requests",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List pending requests, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpcTransport.Client) error {
				resp, err := client.ListPendingTimeOff(ctx, &grpcTransport.ListPendingTimeOffRequest{})
				if err != nil {
					return err
				}
				c.printTimeOff(resp.Requests)
				return nil
			})
		},
	})

	var provider, from, to, reason string
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit a time-off request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpcTransport.Client) error {
				resp, err := client.SubmitTimeOff(ctx, &grpcTransport.SubmitTimeOffRequest{
					ProviderID: provider,
					StartDate:  from,
					EndDate:    to,
					Reason:     reason,
				})
				if err != nil {
					return err
				}
				c.printTimeOff([]*grpcTransport.TimeOff{resp.Request})
				return nil
			})
		},
	}
	submit.Flags().StringVar(&provider, "provider", "", "provider id")
	submit.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	submit.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	submit.Flags().StringVar(&reason, "reason", "", "reason")
	cmd.AddCommand(submit)

	var admin, rejection string
	approve := &cobra.Command{
		Use:   "approve REQUEST_ID",
		Short: "Approve a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpcTransport.Client) error {
				resp, err := client.ApproveTimeOff(ctx, &grpcTransport.ApproveTimeOffRequest{RequestID: args[0], AdminID: admin})
				if err != nil {
					return err
				}
				c.printTimeOff([]*grpcTransport.TimeOff{resp.Request})
				return nil
			})
		},
	}
	approve.Flags().StringVar(&admin, "admin", "", "admin id")
	_ = approve.MarkFlagRequired("admin")
	cmd.AddCommand(approve)

	reject := &cobra.Command{
		Use:   "reject REQUEST_ID",
		Short: "Reject a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpcTransport.Client) error {
				resp, err := client.RejectTimeOff(ctx, &grpcTransport.RejectTimeOffRequest{
					RequestID: args[0],
					AdminID:   admin,
					Reason:    rejection,
				})
				if err != nil {
					return err
				}
				c.printTimeOff([]*grpcTransport.TimeOff{resp.Request})
				return nil
			})
		},
	}
	reject.Flags().StringVar(&admin, "admin", "", "admin id")
	reject.Flags().StringVar(&rejection, "reason", "", "rejection reason")
	_ = reject.MarkFlagRequired("admin")
	_ = reject.MarkFlagRequired("reason")
	cmd.AddCommand(reject)

	return cmd
}

func (c *cli) printTimeOff(reqs []*grpcTransport.TimeOff) {
	if len(reqs) == 0 {
		fmt.Fprintln(c.out, "no requests")
		return
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tPROVIDER\tFROM\tTO\tSTATUS\tREASON")
	for _, r := range reqs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.ProviderID, r.StartDate, r.EndDate, r.Status, r.Reason)
	}
	_ = w.Flush()
}

func (c *cli) providerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage provider availability",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reactivate PROVIDER_ID",
		Short: "Mark a provider available again after time-off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpcTransport.Client) error {
				resp, err := client.ReactivateProvider(ctx, &grpcTransport.ReactivateProviderRequest{ProviderID: args[0]})
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "%s is %s\n", resp.Provider.ID, resp.Provider.Status)
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage working schedules",
	}

	var (
		provider, from, to, workStart, workEnd, freeDays string
		replace                                          bool
	)
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate one block per working day in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpcTransport.Client) error {
				resp, err := client.GenerateSchedule(ctx, &grpcTransport.GenerateScheduleRequest{
					ProviderID:      provider,
					From:            from,
					To:              to,
					WorkStart:       workStart,
					WorkEnd:         workEnd,
					FreeDays:        splitList(freeDays),
					ReplaceExisting: replace,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "created %d blocks, skipped %d days\n", len(resp.Created), len(resp.Skipped))
				for _, warning := range resp.Warnings {
					fmt.Fprintf(c.out, "warning: %s\n", warning)
				}
				return nil
			})
		},
	}
	generate.Flags().StringVar(&provider, "provider", "", "provider id")
	generate.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	generate.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	generate.Flags().StringVar(&workStart, "start", "09:00", "work start (HH:MM)")
	generate.Flags().StringVar(&workEnd, "end", "18:00", "work end (HH:MM)")
	generate.Flags().StringVar(&freeDays, "free-days", "sunday", "comma separated weekdays off")
	generate.Flags().BoolVar(&replace, "replace", false, "trim existing blocks in the range instead of failing")
	for _, f := range []string{"provider", "from", "to"} {
		_ = generate.MarkFlagRequired(f)
	}
	cmd.AddCommand(generate)

	var listProvider, listFrom, listTo string
	list := &cobra.Command{
		Use:   "list",
		Short: "List schedule blocks in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpcTransport.Client) error {
				resp, err := client.ListScheduleBlocks(ctx, &grpcTransport.ListScheduleBlocksRequest{
					ProviderID: listProvider,
					From:       listFrom,
					To:         listTo,
				})
				if err != nil {
					return err
				}
				w := c.table()
				fmt.Fprintln(w, "ID\tFROM\tTO\tHOURS\tFREE DAYS")
				for _, b := range resp.Blocks {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s-%s\t%s\n", b.ID, b.StartDate, b.EndDate, b.WorkStart, b.WorkEnd, strings.Join(b.FreeDays, ","))
				}
				return w.Flush()
			})
		},
	}
	list.Flags().StringVar(&listProvider, "provider", "", "provider id")
	list.Flags().StringVar(&listFrom, "from", "", "first day (YYYY-MM-DD)")
	list.Flags().StringVar(&listTo, "to", "", "last day (YYYY-MM-DD)")
	cmd.AddCommand(list)

	var freeProvider, freeFrom, freeTo string
	free := &cobra.Command{
		Use:   "free-days",
		Short: "List scheduled days the provider does not work",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpcTransport.Client) error {
				resp, err := client.ListFreeDays(ctx, &grpcTransport.ListFreeDaysRequest{
					ProviderID: freeProvider,
					From:       freeFrom,
					To:         freeTo,
				})
				if err != nil {
					return err
				}
				for _, d := range resp.Days {
					fmt.Fprintln(c.out, d)
				}
				return nil
			})
		},
	}
	free.Flags().StringVar(&freeProvider, "provider", "", "provider id")
	free.Flags().StringVar(&freeFrom, "from", "", "first day (YYYY-MM-DD)")
	free.Flags().StringVar(&freeTo, "to", "", "last day (YYYY-MM-DD)")
	for _, f := range []string{"provider", "from", "to"} {
		_ = free.MarkFlagRequired(f)
	}
	cmd.AddCommand(free)

	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
