package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewActionCmd создаёт группу команд для actions.
func NewActionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "List and invoke actions",
	}

	cmd.AddCommand(
		newActionListCmd(clientFn, outputFn),
		newActionInvokeCmd(clientFn, outputFn),
	)

	return cmd
}

func newActionListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := clientFn().ListActions(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(actions))
			for i, a := range actions {
				rows[i] = []string{a.Name}
			}

			outputFn().Print([]string{"NAME"}, rows, actions)
			return nil
		},
	}
}

func newActionInvokeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var sets []string
	var timeoutMs int
	var retries int
	var backoff string
	var async bool

	cmd := &cobra.Command{
		Use:   "invoke NAME",
		Short: "Invoke an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			values, err := ParseSets(sets)
			if err != nil {
				return err
			}

			req := InvokeRequest{
				Context:   values,
				TimeoutMs: timeoutMs,
				Backoff:   backoff,
			}
			if cmd.Flags().Changed("retries") {
				req.Retries = &retries
			}

			if async {
				accepted, err := client.EnqueueAction(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				out.Success(fmt.Sprintf("Invocation queued: %s", accepted.RequestID))
				out.Print(
					[]string{"REQUEST_ID", "ACTION"},
					[][]string{{accepted.RequestID, accepted.Action}},
					accepted,
				)
				return nil
			}

			res, err := client.InvokeAction(cmd.Context(), args[0], req)
			if err != nil {
				if apiErr, ok := AsAPIError(err); ok && apiErr.Meta != nil {
					out.Error(fmt.Sprintf("%s failed after %d attempt(s) in %dms",
						apiErr.Meta.Action, apiErr.Meta.Attempts, apiErr.Meta.DurationMs))
				}
				return err
			}

			out.Success(fmt.Sprintf("%s succeeded: attempts=%d duration=%dms invocation=%s",
				res.Meta.Action, res.Meta.Attempts, res.Meta.DurationMs, res.Meta.InvocationID))

			// В JSON режиме выводится весь ответ вместе с meta
			if out.jsonMode {
				out.JSON(res)
				return nil
			}
			out.Value(res.Result)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Context value as KEY=VALUE, JSON values are typed (repeatable)")
	cmd.Flags().IntVar(&timeoutMs, "timeout", 0, "Per-attempt timeout in milliseconds (server default if not set)")
	cmd.Flags().IntVar(&retries, "retries", 0, "Number of retries after the first attempt (server default if not set)")
	cmd.Flags().StringVar(&backoff, "backoff", "", "Backoff strategy between retries (fixed, exponential)")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the invocation and return immediately")

	return cmd
}
