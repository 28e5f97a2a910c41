package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/locale"
)

var logoutAll bool

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session on the server and forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		client, err := newClient(out)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		token, err := client.Credentials.Get(ctx)
		switch {
		case errors.Is(err, domain.ErrCredentialNotFound):
			fmt.Fprintln(out, describeSession(domain.Session{}))
			return nil
		case err != nil:
			return err
		}

		// The local session is cleared whatever the server says
		remote := client.API.Logout
		if logoutAll {
			remote = client.API.LogoutAll
		}
		if err := remote(ctx, token); err != nil {
			logger.Warn("remote logout failed", "error", err, "all", logoutAll)
		}
		if err := client.Session.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, client.Locale.Translate(locale.MsgLoggedOut))
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "revoke the sessions of every device, not only this one")
	rootCmd.AddCommand(logoutCmd)
}
