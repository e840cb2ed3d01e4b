package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/porkpie"
	"github.com/aretw0/porkpie/pkg/adapters/hotfolder"
	ingest "github.com/aretw0/porkpie/pkg/adapters/lifecycle"
	"github.com/aretw0/porkpie/pkg/core"
)

var (
	watchParent string
	watchOnce   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Attach files dropped into a directory to an Object",
	Long: `Watch ingests every file that lands in the hot folder, attaching it to the
parent Object as the variant its path selects (hot_folder.rules in the config).
Without a parent a new Object is created in the in-memory repository first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hf := cfg.HotFolder
		dir := hf.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return errors.New("no hot folder: pass a directory or set hot_folder.dir")
		}

		var debounce time.Duration
		if hf.Debounce != "" {
			d, err := time.ParseDuration(hf.Debounce)
			if err != nil {
				return fmt.Errorf("invalid hot_folder.debounce: %w", err)
			}
			debounce = d
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := porkpie.New(append(cfg.Options(), porkpie.WithLogger(slog.Default()))...)
		if err != nil {
			return err
		}

		parent := watchParent
		if parent == "" {
			parent = hf.Parent
		}
		if parent == "" {
			if parent, err = c.CreateObject(ctx, core.CreateRequest{}); err != nil {
				return fmt.Errorf("create parent object: %w", err)
			}
			slog.Info("created parent object", "uri", parent)
		}

		folder, err := porkpie.NewHotFolder(c, hotfolder.Config{
			Dir:          dir,
			Parent:       parent,
			Rules:        hf.Rules,
			Debounce:     debounce,
			ScanExisting: true,
			Logger:       slog.Default(),
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if watchOnce {
			events, err := folder.Scan(ctx)
			for _, e := range events {
				fmt.Fprintln(out, e)
			}
			return err
		}

		if err := folder.Watch(ctx); err != nil {
			return err
		}
		progress := ingest.NewSource(folder.Events())
		if err := progress.Start(ctx); err != nil {
			return err
		}
		slog.Info("watching", "dir", dir, "parent", parent)

		for e := range progress.Events() {
			fmt.Fprintln(out, e)
		}
		ingested, failed := progress.Totals()
		slog.Info("stopped watching", "ingested", ingested, "failed", failed)
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchParent, "parent", "p", "", "URI of the Object files are attached to")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Ingest the files present and exit")
	rootCmd.AddCommand(watchCmd)
}
