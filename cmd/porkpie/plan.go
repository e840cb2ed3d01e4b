package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/porkpie"
	"github.com/aretw0/porkpie/internal/platform"
	"github.com/aretw0/porkpie/pkg/manifest"
)

var (
	planSource string
	planApply  bool
	planJSON   bool
	planOut    string
)

var planCmd = &cobra.Command{
	Use:   "plan <manifest.yaml>",
	Short: "Validate a manifest and list the operations it performs",
	Long: `Plan resolves the file patterns of a manifest and prints every repository
operation in order. With --apply the manifest is composed into an in-memory
repository and the resulting URIs are printed, a dry run of the real ingest.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := porkpie.LoadManifest(args[0])
		if err != nil {
			return err
		}

		source := planSource
		if source == "" {
			source = filepath.Dir(args[0])
		}
		fsys := os.DirFS(source)

		plan, err := manifest.BuildPlan(m, fsys)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !planApply {
			if planJSON {
				return json.NewEncoder(out).Encode(plan.Steps)
			}
			for _, s := range plan.Steps {
				fmt.Fprintln(out, s)
			}
			return nil
		}

		c, err := porkpie.New(append(cfg.Options(), porkpie.WithLogger(slog.Default()))...)
		if err != nil {
			return err
		}
		result, err := porkpie.ApplyManifest(cmd.Context(), c, m, fsys)
		if err != nil {
			return err
		}

		if planOut != "" {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			if err := platform.WriteFileAtomic(planOut, append(data, '\n'), 0644); err != nil {
				return err
			}
			slog.Info("wrote result", "path", planOut)
		}
		if planJSON {
			return json.NewEncoder(out).Encode(result)
		}
		for _, r := range m.Collections {
			fmt.Fprintf(out, "collection %s %s\n", r.ID, result.Resources[r.ID])
		}
		for _, r := range m.Objects {
			fmt.Fprintf(out, "object %s %s\n", r.ID, result.Resources[r.ID])
			for _, f := range result.Files[r.ID] {
				fmt.Fprintf(out, "  file %s\n", f)
			}
		}
		fmt.Fprintf(out, "%d member link(s)\n", result.Proxies)
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planSource, "source", "s", "", "Directory file patterns are resolved in (default: the manifest's directory)")
	planCmd.Flags().BoolVar(&planApply, "apply", false, "Compose the manifest into an in-memory repository")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Output JSON")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "Also write the --apply result as JSON to this file")
	rootCmd.AddCommand(planCmd)
}
