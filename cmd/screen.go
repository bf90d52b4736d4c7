package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/equinoxe-ovh/regafind/internal/screener"
)

var (
	screenRulesPath string
	screenFormat    string
	screenOutput    string
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Rank stored firms by investment-service weight",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		firms, err := s.ListFirms(ctx)
		if err != nil {
			return eris.Wrap(err, "list firms")
		}

		rules := screener.DefaultRules()
		rulesPath := screenRulesPath
		if rulesPath == "" {
			rulesPath = cfg.Screener.RulesPath
		}
		if rulesPath != "" {
			rules, err = screener.LoadRules(rulesPath)
			if err != nil {
				return eris.Wrap(err, "load rules")
			}
		}

		ranked := screener.Rank(firms, rules)

		var out io.Writer = os.Stdout
		if screenOutput != "" {
			f, err := os.Create(screenOutput)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close()
			out = f
		}

		switch screenFormat {
		case "text":
			err = screener.WriteText(out, ranked)
		case "csv":
			err = screener.WriteCSV(out, ranked)
		case "xlsx":
			if screenOutput == "" {
				return eris.New("xlsx output requires --output")
			}
			err = screener.WriteXLSX(out, ranked)
		default:
			return eris.Errorf("unsupported format: %s", screenFormat)
		}
		if err != nil {
			return eris.Wrap(err, "write report")
		}

		zap.L().Info("screen complete",
			zap.Int("firms", len(ranked)),
			zap.String("format", screenFormat),
		)
		return nil
	},
}

func init() {
	screenCmd.Flags().StringVar(&screenRulesPath, "rules", "", "path to a YAML rule table (default built-in weights)")
	screenCmd.Flags().StringVar(&screenFormat, "format", "text", "report format: text, csv, or xlsx")
	screenCmd.Flags().StringVar(&screenOutput, "output", "", "write the report to a file instead of stdout")
	rootCmd.AddCommand(screenCmd)
}
