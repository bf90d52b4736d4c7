package main

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/equinoxe-ovh/regafind/internal/fetch"
)

var (
	fetchCSVPath     string
	fetchOutDir      string
	fetchConcurrency int
	fetchAgents      bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download firm pages listed in a register CSV export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cibs, err := fetch.CIBList(fetchCSVPath)
		if err != nil {
			return eris.Wrap(err, "read cib list")
		}

		outDir := fetchOutDir
		if outDir == "" {
			outDir = cfg.Fetch.SaveDir
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrap(err, "create output dir")
		}

		client := fetch.New(fetch.Options{
			BaseURL:           cfg.Fetch.BaseURL,
			UserAgent:         cfg.Fetch.UserAgent,
			Timeout:           time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries:        cfg.Fetch.MaxRetries,
			RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		})

		concurrency := fetchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Fetch.Concurrency
		}

		var fetched, skipped, failed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, cib := range cibs {
			if !fetchAgents && fetch.IsAgent(cib) {
				skipped.Add(1)
				continue
			}

			cib := cib
			g.Go(func() error {
				fragment, err := client.FirmFragment(gctx, cib)
				if err != nil {
					failed.Add(1)
					zap.L().Warn("fetch failed", zap.String("cib", cib), zap.Error(err))
					return nil
				}
				path := filepath.Join(outDir, cib+".html")
				if err := os.WriteFile(path, fragment, 0o644); err != nil {
					return eris.Wrapf(err, "write %s", path)
				}
				fetched.Add(1)
				zap.L().Debug("fetched", zap.String("cib", cib))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("fetch complete",
			zap.Int64("fetched", fetched.Load()),
			zap.Int64("skipped", skipped.Load()),
			zap.Int64("failed", failed.Load()),
			zap.String("dir", outDir),
		)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchCSVPath, "csv", "", "path to the register CSV export (required)")
	_ = fetchCmd.MarkFlagRequired("csv")
	fetchCmd.Flags().StringVar(&fetchOutDir, "out", "", "directory for saved pages (default from config)")
	fetchCmd.Flags().IntVar(&fetchConcurrency, "concurrency", 0, "parallel downloads (default from config)")
	fetchCmd.Flags().BoolVar(&fetchAgents, "agents", false, "also fetch agent registration numbers")
	rootCmd.AddCommand(fetchCmd)
}
