package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/app"
	"github.com/aquadic/souq4u/internal/config"
	"github.com/aquadic/souq4u/internal/logutil"
)

var (
	configPath string
	logLevel   string
	storeKind  string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "souq4u",
	Short: "souq4u storefront login from the terminal",
	Long: `Log in to a souq4u storefront with your phone number, inspect the
stored session and run a local development backend.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = os.Getenv("SOUQ4U_CONFIG")
		}
		if path == "" {
			path = config.DefaultPath
		}
		loaded, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		if storeKind != "" {
			loaded.CredentialStore = storeKind
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		cfg = loaded
		logger = logutil.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "Credential store (bolt, redis, jar, memory)")
}

// signalContext is cancelled on SIGINT/SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newClient(out io.Writer) (*app.Client, error) {
	return app.NewClient(cfg, logger, app.WithClientNotifier(noticePrinter(out)))
}

// noticePrinter prints notices the way the storefront shows toasts
func noticePrinter(out io.Writer) domain.Notifier {
	return domain.NotifierFunc(func(n domain.Notice) {
		prefix := "•"
		switch n.Level {
		case domain.NoticeSuccess:
			prefix = "✓"
		case domain.NoticeError:
			prefix = "✗"
		}
		if n.Field != "" {
			fmt.Fprintf(out, "%s %s: %s\n", prefix, n.Field, n.Message)
			return
		}
		fmt.Fprintf(out, "%s %s\n", prefix, n.Message)
	})
}

// describeSession renders a session snapshot for whoami
func describeSession(s domain.Session) string {
	switch {
	case s.Confirmed():
		name := s.User.Name
		if name == "" {
			name = "(no name)"
		}
		return fmt.Sprintf("logged in as %s, phone %s (id %d)", name, s.User.Phone, s.User.ID)
	case s.Optimistic():
		return "token stored, the server could not confirm it yet"
	default:
		return "not logged in"
	}
}
