package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cardiorisk/cardiorisk/internal/config"
	"github.com/cardiorisk/cardiorisk/internal/export"
	"github.com/cardiorisk/cardiorisk/internal/model"
	"github.com/cardiorisk/cardiorisk/internal/store"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored assessment reports",
	Long:  "Commands for listing, summarizing and exporting a user's reports.",
}

// -- reports list --

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's reports, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		recs, err := loadReports(cmd)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No reports found.")
			return nil
		}
		formatReportsList(cmd.OutOrStdout(), recs)
		return nil
	},
}

// -- reports stats --

var reportsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how often each disease was flagged",
	RunE: func(cmd *cobra.Command, _ []string) error {
		recs, err := loadReports(cmd)
		if err != nil {
			return err
		}
		formatReportStats(cmd.OutOrStdout(), computeReportStats(recs))
		return nil
	},
}

// -- reports export --

var reportsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's reports to an xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return eris.New("reports export: --out is required")
		}

		recs, err := loadReports(cmd)
		if err != nil {
			return err
		}
		if err := export.WriteReportsXLSX(out, recs); err != nil {
			return eris.Wrap(err, "reports export")
		}
		zap.L().Info("reports exported", zap.Int("count", len(recs)), zap.String("path", out))
		return nil
	},
}

func loadReports(cmd *cobra.Command) ([]model.ReportRecord, error) {
	ctx := cmd.Context()

	user, _ := cmd.Flags().GetString("user")
	limit, _ := cmd.Flags().GetInt("limit")
	if user == "" {
		return nil, eris.New("reports: --user is required")
	}
	if err := cfg.Validate(config.ModeStore); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}

	return listAll(ctx, st, user, limit)
}

// listAll pages through a user's reports until limit records are read or
// the store runs out.
func listAll(ctx context.Context, st store.Store, user string, limit int) ([]model.ReportRecord, error) {
	var out []model.ReportRecord
	for len(out) < limit {
		page := min(limit-len(out), store.MaxListLimit)
		recs, err := st.ListReports(ctx, store.ReportFilter{UserID: user, Limit: page, Offset: len(out)})
		if err != nil {
			return nil, eris.Wrap(err, "reports list")
		}
		out = append(out, recs...)
		if len(recs) < page {
			break
		}
	}
	return out, nil
}

func init() {
	for _, c := range []*cobra.Command{reportsListCmd, reportsStatsCmd, reportsExportCmd} {
		c.Flags().String("user", "", "user id whose reports to read")
		c.Flags().Int("limit", 50, "max number of reports to read")
	}
	reportsExportCmd.Flags().String("out", "reports.xlsx", "output xlsx path")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsStatsCmd)
	reportsCmd.AddCommand(reportsExportCmd)
	rootCmd.AddCommand(reportsCmd)
}

// diseaseCount is how many reports flagged one disease.
type diseaseCount struct {
	Name  string
	Count int
}

// reportStats holds aggregate statistics computed from a set of reports.
type reportStats struct {
	Total    int
	Degraded int
	Diseases []diseaseCount
}

// computeReportStats counts visible diseases per report, in canonical order.
func computeReportStats(recs []model.ReportRecord) reportStats {
	s := reportStats{Total: len(recs)}
	counts := make(map[string]int)
	for _, r := range recs {
		if r.Degraded {
			s.Degraded++
		}
		for _, d := range r.LLMReport.PossibleDiseases {
			counts[d.Name]++
		}
	}
	for _, name := range model.CanonicalOrder {
		if n := counts[name]; n > 0 {
			s.Diseases = append(s.Diseases, diseaseCount{Name: name, Count: n})
		}
	}
	return s
}

// formatReportsList writes a tabular list of reports to out.
func formatReportsList(out io.Writer, recs []model.ReportRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tDEGRADED\tFLAGGED")
	_, _ = fmt.Fprintln(w, "--\t-------\t--------\t-------")

	for _, r := range recs {
		names := make([]string, len(r.LLMReport.PossibleDiseases))
		for i, d := range r.LLMReport.PossibleDiseases {
			names[i] = fmt.Sprintf("%s %.1f%%", shortName(d.Name), d.Probability)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\n",
			truncateID(r.ID),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Degraded,
			strings.Join(names, ", "),
		)
	}
	_ = w.Flush()
}

// formatReportStats writes aggregate stats to out.
func formatReportStats(out io.Writer, s reportStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total reports:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Degraded:\t%d\n", s.Degraded)
	for _, d := range s.Diseases {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", shortName(d.Name), d.Count)
	}
	_ = w.Flush()
}

// shortName drops the parenthesized gloss from a disease name.
func shortName(name string) string {
	if i := strings.Index(name, " ("); i > 0 {
		return name[:i]
	}
	return name
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
