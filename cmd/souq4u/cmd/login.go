package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aquadic/souq4u/domain"
)

var (
	loginPhone   string
	loginCountry string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with a phone number and wait for verification",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		number := loginPhone
		if number == "" {
			var err error
			number, err = prompt(cmd.InOrStdin(), out, "Phone number: ")
			if err != nil {
				return err
			}
		}

		client, err := newClient(out)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		attempt, err := client.Flow.Start(ctx, number, loginCountry)
		if err != nil {
			return err
		}
		if cb := attempt.Callback; cb != nil && cb.URL != "" {
			fmt.Fprintf(out, "Open %s to confirm your number\n", cb.URL)
		}
		fmt.Fprintln(out, "Waiting for verification, press Ctrl+C to cancel...")

		err = client.Flow.Wait(ctx)
		switch {
		case err == nil:
			fmt.Fprintln(out, describeSession(client.Session.Snapshot()))
			return nil
		case errors.Is(err, domain.ErrFlowCancelled), ctx.Err() != nil:
			client.Flow.Cancel()
			fmt.Fprintln(out, "Login cancelled")
			return nil
		default:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginPhone, "phone", "p", "", "Phone number (prompted when empty)")
	loginCmd.Flags().StringVarP(&loginCountry, "country", "c", "EG", "ISO country code of the phone number")
}

func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", domain.ErrInvalidPhone
	}
	return line, nil
}
