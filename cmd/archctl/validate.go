package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/store"
	"archgraph.io/archgraph/internal/store/filestore"
	"archgraph.io/archgraph/internal/validation"
)

// counts summarises one tenant's aggregate.
type counts struct {
	Projects int
	Systems  int
	Flows    int
}

func (c counts) dropped(after counts) int {
	return (c.Projects - after.Projects) + (c.Systems - after.Systems) + (c.Flows - after.Flows)
}

type validateOptions struct {
	file        string
	multiTenant bool
	write       bool
	backupDir   string
	maxBackups  int
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Sanitize a store file and report what the sanitizer drops",
		Long: `validate decodes a store file, runs it through the sanitizer and prints
per-tenant counts of projects, systems and flows before and after. With
--write the sanitized document replaces the file, keeping a backup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "store file to validate")
	cmd.Flags().BoolVar(&opts.multiTenant, "multi-tenant", false, "the file maps user ids to aggregates")
	cmd.Flags().BoolVar(&opts.write, "write", false, "rewrite the file with the sanitized document")
	cmd.Flags().StringVar(&opts.backupDir, "backup-dir", "", "backup directory for --write (default: <file dir>/backups)")
	cmd.Flags().IntVar(&opts.maxBackups, "max-backups", 20, "backups to keep for --write; 0 disables backups")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runValidate(cmd *cobra.Command, opts validateOptions) error {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read store file: %w", err)
	}

	before, err := rawCounts(data, opts.multiTenant)
	if err != nil {
		return err
	}

	var tenants map[string]domain.Aggregate
	if opts.multiTenant {
		tenants, err = validation.DecodeTenants(data)
	} else {
		var agg domain.Aggregate
		agg, err = validation.Decode(data)
		tenants = map[string]domain.Aggregate{store.DefaultTenant: agg}
	}
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(before))
	for key := range before {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TENANT\tPROJECTS\tSYSTEMS\tFLOWS")
	total := 0
	for _, key := range keys {
		b := before[key]
		a := aggregateCounts(tenants[key])
		fmt.Fprintf(w, "%s\t%d -> %d\t%d -> %d\t%d -> %d\n",
			key, b.Projects, a.Projects, b.Systems, a.Systems, b.Flows, a.Flows)
		if n := b.dropped(a); n > 0 {
			logger.Debug("Sanitizer dropped entities", zap.String("tenant", key), zap.Int("dropped", n))
			total += n
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d entities dropped\n", total)

	if !opts.write {
		return nil
	}
	return rewrite(cmd, opts, tenants)
}

// rewrite saves the sanitized document through the file store so the old
// file is backed up and replaced atomically.
func rewrite(cmd *cobra.Command, opts validateOptions, tenants map[string]domain.Aggregate) error {
	tenancy := filestore.TenancySingle
	if opts.multiTenant {
		tenancy = filestore.TenancyMulti
	}
	st, err := filestore.New(filestore.Options{
		Path:       opts.file,
		Tenancy:    tenancy,
		BackupDir:  opts.backupDir,
		MaxBackups: opts.maxBackups,
	})
	if err != nil {
		return err
	}
	if opts.multiTenant {
		err = st.SaveTenants(tenants)
	} else {
		err = st.Save(cmd.Context(), store.DefaultTenant, tenants[store.DefaultTenant])
	}
	if err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	st.Wait()
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.file)
	return nil
}

// rawCounts counts entities in the undecoded document, before any sanitizing.
func rawCounts(data []byte, multiTenant bool) (map[string]counts, error) {
	out := map[string]counts{}
	if len(bytes.TrimSpace(data)) == 0 {
		if !multiTenant {
			out[store.DefaultTenant] = counts{}
		}
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode store file: %w", err)
	}

	if !multiTenant {
		out[store.DefaultTenant] = rawAggregateCounts(raw)
		return out, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return out, nil
	}
	for key, value := range obj {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = rawAggregateCounts(value)
	}
	return out, nil
}

func rawAggregateCounts(raw any) counts {
	var c counts
	obj, ok := raw.(map[string]any)
	if !ok {
		return c
	}
	for _, value := range obj {
		c.Projects++
		project, ok := value.(map[string]any)
		if !ok {
			continue
		}
		c.Systems += collectionLen(project["systems"])
		c.Flows += collectionLen(project["flows"])
	}
	return c
}

// collectionLen counts the members of a collection stored as an object or an
// array.
func collectionLen(v any) int {
	switch c := v.(type) {
	case map[string]any:
		return len(c)
	case []any:
		return len(c)
	default:
		return 0
	}
}

func aggregateCounts(agg domain.Aggregate) counts {
	c := counts{Projects: len(agg)}
	for _, p := range agg {
		c.Systems += len(p.Systems)
		c.Flows += len(p.Flows)
	}
	return c
}
