package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"archgraph.io/archgraph/internal/store/filestore"
)

func newBackupsCmd() *cobra.Command {
	var (
		dir   string
		prune int
	)
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List store backups, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("prune") {
				removed, err := filestore.Prune(dir, prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d backups\n", removed)
			}

			backups, err := filestore.ListBackups(dir)
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no backups in %s\n", dir)
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
			for _, b := range backups {
				fmt.Fprintf(w, "%s\t%d\t%s\n", b.Name, b.Size, b.ModTime.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "data/backups", "backup directory")
	cmd.Flags().IntVar(&prune, "prune", 0, "delete all but the N newest backups before listing")
	return cmd
}
