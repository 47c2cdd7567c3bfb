package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cardiorisk/cardiorisk/internal/config"
	"github.com/cardiorisk/cardiorisk/internal/model"
)

// offlineResult is what assess --offline prints.
type offlineResult struct {
	Bundle     model.RiskBundle        `json:"bundle"`
	Visible    []model.DiseaseEstimate `json:"visible"`
	LowRisk    []string                `json:"low_risk"`
	RuleReport model.RuleReport        `json:"rule_report"`
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess one patient profile from a JSON file",
	Long:  "Reads a patient profile (JSON, or - for stdin) and prints the full report. With --offline only the estimators run and no narration service is called.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		input, _ := cmd.Flags().GetString("input")
		offline, _ := cmd.Flags().GetBool("offline")
		save, _ := cmd.Flags().GetBool("save")
		user, _ := cmd.Flags().GetString("user")

		p, err := readProfile(input, cmd.InOrStdin())
		if err != nil {
			return err
		}

		mode := config.ModeAssess
		if offline {
			mode = config.ModeOffline
		}
		if save {
			if offline {
				return eris.New("assess: --save cannot be combined with --offline")
			}
			if user == "" {
				return eris.New("assess: --save requires --user")
			}
			if err := cfg.Validate(config.ModeStore); err != nil {
				return err
			}
		}

		env, err := initApp(ctx, mode, save)
		if err != nil {
			return err
		}
		defer env.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		if offline {
			bundle, err := env.Engine.Aggregate(ctx, p)
			if err != nil {
				return err
			}
			return enc.Encode(offlineResult{
				Bundle:     bundle,
				Visible:    env.Engine.Visible(bundle),
				LowRisk:    env.Engine.LowRisk(bundle),
				RuleReport: model.RuleReport{PossibleDiseases: env.Engine.RuleSubset(bundle)},
			})
		}

		report, err := env.Service.Assess(ctx, user, p)
		if err != nil {
			return err
		}
		return enc.Encode(report)
	},
}

func readProfile(path string, stdin io.Reader) (model.PatientProfile, error) {
	var p model.PatientProfile

	var r io.Reader
	switch path {
	case "":
		return p, eris.New("assess: --input is required")
	case "-":
		r = stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return p, eris.Wrap(err, "assess: open input")
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return p, eris.Wrap(err, "assess: decode profile")
	}
	return p, nil
}

func init() {
	assessCmd.Flags().String("input", "", "path to a patient profile JSON file, or - for stdin")
	assessCmd.Flags().Bool("offline", false, "run the estimators only, without narration")
	assessCmd.Flags().Bool("save", false, "store the report")
	assessCmd.Flags().String("user", "", "user id the report belongs to")
	rootCmd.AddCommand(assessCmd)
}
