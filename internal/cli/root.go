// Package cli implements csv2json, a command-line front end to the same
// conversion pipeline the HTTP server runs.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jlfwebstudio/tabela-node-backend/internal/logging"
)

// BuildInfo is stamped in by the release build.
type BuildInfo struct {
	Version string
	Date    string
}

// New returns the root command.
func New(bi BuildInfo) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "csv2json",
		Short:         "Convert service-order CSV exports to canonical JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logs go to stderr so stdout carries only JSON.
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(convertCmd())
	root.AddCommand(columnsCmd())
	root.AddCommand(versionCmd(bi))
	return root
}
