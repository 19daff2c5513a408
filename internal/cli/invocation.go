package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewInvocationCmd создаёт группу команд для журнала вызовов.
func NewInvocationCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invocation",
		Aliases: []string{"inv"},
		Short:   "Inspect the invocation journal",
	}

	cmd.AddCommand(
		newInvocationListCmd(clientFn, outputFn),
		newInvocationGetCmd(clientFn, outputFn),
	)

	return cmd
}

func newInvocationListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListInvocationsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			invocations, err := clientFn().ListInvocations(cmd.Context(), opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "ACTION", "STATUS", "ATTEMPTS", "DURATION_MS", "SOURCE", "CREATED"}
			rows := make([][]string, len(invocations))
			for i, inv := range invocations {
				rows[i] = []string{
					inv.ID,
					inv.Action,
					inv.Status,
					strconv.Itoa(inv.Attempts),
					strconv.FormatInt(inv.DurationMs, 10),
					inv.Source,
					inv.CreatedAt,
				}
			}

			outputFn().Print(headers, rows, invocations)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "Filter by action name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (SUCCEEDED, FAILED, TIMED_OUT, CANCELLED)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "Filter by source (api, worker, scheduler, cli)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newInvocationGetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show invocation details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := clientFn().GetInvocation(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			outputFn().Print(
				[]string{"ID", "ACTION", "STATUS", "ATTEMPTS", "SOURCE", "SCHEDULE", "ERROR", "CREATED"},
				[][]string{{
					inv.ID,
					inv.Action,
					inv.Status,
					strconv.Itoa(inv.Attempts),
					inv.Source,
					inv.ScheduleName,
					inv.Error,
					inv.CreatedAt,
				}},
				inv,
			)
			return nil
		},
	}
}
