package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expertchat/internal/catalog"
	"expertchat/internal/common/fsutil"
)

func newExpertsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "experts",
		Short: "List configured experts and whether they can be served",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, os.LookupEnv)
			if err != nil {
				return err
			}
			c, err := catalog.Load(cfg.ExpertsFile)
			if err != nil {
				return err
			}
			return printExperts(cmd.OutOrStdout(), c, cfg.ModelsDir)
		},
	}
}

func expertStatus(enabled bool, adapter string) string {
	switch {
	case !enabled:
		return "disabled"
	case adapter != "" && !fsutil.PathExists(adapter):
		return "adapter missing"
	default:
		return "available"
	}
}

func printExperts(w io.Writer, c catalog.Catalog, modelsDir string) error {
	fmt.Fprintf(w, "base model: %s\n\n", catalog.ResolveBaseModel(modelsDir, c.BaseModel))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tADAPTER\tSTATUS")
	for _, e := range c.Experts {
		adapter := catalog.ResolvePath(modelsDir, e.AdapterPath)
		shown := adapter
		if shown == "" {
			shown = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Name, shown, expertStatus(e.Enabled, adapter))
	}
	return tw.Flush()
}
