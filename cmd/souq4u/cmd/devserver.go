package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aquadic/souq4u/internal/app"
)

var devPort int

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local backend speaking the storefront auth API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if devPort > 0 {
			cfg.DevPort = strconv.Itoa(devPort)
		}

		server, err := app.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		defer server.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		return server.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(devserverCmd)
	devserverCmd.Flags().IntVarP(&devPort, "port", "p", 0, "Port to listen on (defaults to the config)")
}
