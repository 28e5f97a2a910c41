package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session after validating it with the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		// One reconciliation pass; the background retries are for
		// long-running sessions.
		client.Initializer.Start(ctx)
		client.Initializer.Stop()

		fmt.Fprintln(cmd.OutOrStdout(), describeSession(client.Session.Snapshot()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
