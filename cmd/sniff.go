package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/equinoxe-ovh/regafind/internal/model"
	"github.com/equinoxe-ovh/regafind/internal/regafi"
)

var sniffDir string

var sniffCmd = &cobra.Command{
	Use:   "sniff",
	Short: "Extract firm authorizations from saved pages into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		dir := sniffDir
		if dir == "" {
			dir = cfg.Fetch.SaveDir
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return eris.Wrap(err, "read pages dir")
		}

		run := model.Run{ID: uuid.NewString(), StartedAt: time.Now()}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
				continue
			}

			cib, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".html"))
			if err != nil {
				zap.L().Warn("skipping file without numeric identifier", zap.String("file", entry.Name()))
				run.Skipped++
				continue
			}

			path := filepath.Join(dir, entry.Name())
			firm, err := extractFile(path, cib)
			if errors.Is(err, regafi.ErrExemptCategory) {
				zap.L().Debug("exempt firm skipped", zap.Int("cib", cib))
				run.Skipped++
				continue
			}
			if err != nil {
				zap.L().Warn("extraction failed", zap.Int("cib", cib), zap.Error(err))
				run.Failed++
				continue
			}

			if err := s.SaveFirm(ctx, firm); err != nil {
				zap.L().Error("save failed", zap.Int("cib", cib), zap.Error(err))
				run.Failed++
				continue
			}
			run.Processed++
		}

		run.FinishedAt = time.Now()
		if err := s.RecordRun(ctx, run); err != nil {
			return eris.Wrap(err, "record run")
		}

		zap.L().Info("sniff complete",
			zap.String("run", run.ID),
			zap.Int("processed", run.Processed),
			zap.Int("skipped", run.Skipped),
			zap.Int("failed", run.Failed),
		)
		return nil
	},
}

func extractFile(path string, cib int) (*model.Firm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	return regafi.Extract(doc, cib)
}

func init() {
	sniffCmd.Flags().StringVar(&sniffDir, "dir", "", "directory of saved pages (default from config)")
	rootCmd.AddCommand(sniffCmd)
}
