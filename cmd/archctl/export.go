package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"archgraph.io/archgraph/internal/store"
	"archgraph.io/archgraph/internal/store/filestore"
)

// Export formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

type exportOptions struct {
	file        string
	format      string
	tenant      string
	multiTenant bool
}

func newExportCmd() *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a tenant's sanitized aggregate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "store file to read")
	cmd.Flags().StringVar(&opts.format, "format", formatJSON, "output format: json or yaml")
	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "tenant to export from a multi-tenant file")
	cmd.Flags().BoolVar(&opts.multiTenant, "multi-tenant", false, "the file maps user ids to aggregates")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runExport(cmd *cobra.Command, opts exportOptions) error {
	if opts.format != formatJSON && opts.format != formatYAML {
		return fmt.Errorf("unknown format %q (want json or yaml)", opts.format)
	}
	tenancy := filestore.TenancySingle
	if opts.multiTenant || opts.tenant != "" {
		tenancy = filestore.TenancyMulti
	}
	st, err := filestore.New(filestore.Options{Path: opts.file, Tenancy: tenancy})
	if err != nil {
		return err
	}
	agg, err := st.Load(cmd.Context(), opts.tenant)
	if err != nil {
		return err
	}

	data, err := store.Encode(agg)
	if err != nil {
		return err
	}
	if opts.format == formatYAML {
		// Round-trip through a generic value so YAML keys match the JSON names.
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("convert to yaml: %w", err)
		}
		data, err = yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("convert to yaml: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
	return err
}
