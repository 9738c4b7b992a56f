// Package cmd implements the smsctl operator commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ajayykmr/sms-dispatch-go/internal/config"
	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/logger"
	"github.com/ajayykmr/sms-dispatch-go/internal/providers/factory"
)

var (
	cfg *config.Config
	gw  *gateway.Gateway
	log zerolog.Logger

	timeout time.Duration
	verbose bool
	out     io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "smsctl",
	Short: "Operate the configured SMS gateway",
	Long: `smsctl talks to the SMS gateway configured through the SMS_GATEWAY_*
environment variables (or the file named by SMS_GATEWAY_FILE).

Send messages, check credentials and balance, and fetch delivery reports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		level := loaded.App.LogLevel
		if verbose {
			level = "debug"
		}
		base, err := logger.New("development", level, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		log = base.With().Str("service", "smsctl").Logger()

		built, err := factory.Gateway(loaded.Gateway, factory.Options{
			Timeout: time.Duration(loaded.Timeouts.ProviderTimeoutSeconds) * time.Second,
			Logger:  logger.Component(log, "gateway"),
		})
		if err != nil {
			return err
		}
		cfg, gw = loaded, built
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "overall command timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log provider exchanges")
}

func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
