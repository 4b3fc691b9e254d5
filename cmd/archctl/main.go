// Package main is archctl, the offline maintenance tool for archgraph store
// files. It validates and repairs a file, exports a tenant's sanitized
// aggregate, and lists or prunes the backups the file store keeps.
//
// Import Path: archgraph.io/archgraph/cmd/archctl
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"archgraph.io/archgraph/internal/pkg/logger"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "archctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "archctl",
		Short:         "Inspect and repair archgraph store files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := logger.Init(logLevel, "console"); err != nil {
				return err
			}
			// Init only applies once per process.
			return logger.SetLevel(logLevel)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newValidateCmd(), newExportCmd(), newBackupsCmd())
	return root
}
