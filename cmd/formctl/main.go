// Package main is the formctl command line tool. It fills the volunteer form
// templates and sends approval emails without the HTTP server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"community-registration/volunteer-forms-backend/internal/config"
	"community-registration/volunteer-forms-backend/pkg/pdf"
)

// version is set at build time via ldflags.
var version = "dev"

// app carries what every subcommand needs once the root command has loaded
// the configuration.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	newConverter func(opts pdf.Options) (pdf.Converter, error)
}

func newRootCmd(a *app) *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:     "formctl",
		Short:   "Fill volunteer registration forms",
		Version: version,
		Long: `formctl fills the volunteer registration templates, converts them to PDF
and emails approved volunteers. It reads the same configuration as the API
server: an optional config file plus FORMS_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(config.LoggingConfig{
				Level:       cfg.Logging.Level,
				Development: true,
			})
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (JSON or YAML)")

	root.AddCommand(
		newFillCmd(a),
		newGenerateCmd(a),
		newApproveCmd(a),
		newHashPasswordCmd(),
	)
	return root
}

// converter builds the configured PDF backend, honouring a --backend
// override.
func (a *app) converter(backend string) (pdf.Converter, error) {
	if backend == "" {
		backend = a.cfg.Converter.Backend
	}
	return a.newConverter(pdf.Options{
		Backend:  backend,
		Binary:   a.cfg.Converter.Binary,
		FontPath: a.cfg.Converter.FontPath,
	})
}

// convertContext bounds a conversion by the configured timeout.
func (a *app) convertContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Converter.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.Converter.Timeout)
}

func main() {
	if err := newRootCmd(&app{newConverter: pdf.New}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
