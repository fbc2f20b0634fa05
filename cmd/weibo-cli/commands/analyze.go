package commands

import (
	"fmt"
	"weibo-analysis/internal/analyzer"
	"weibo-analysis/internal/components/failure"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var (
	analyzeIn     string
	analyzeOut    string
	analyzeTopics int
	analyzeFont   string
)

func init() {
	flags := analyzeCmd.Flags()
	flags.StringVar(&analyzeIn, "in", "", "The comment table to analyze.")
	flags.StringVar(&analyzeOut, "out", "", "The directory to write figures and results to.")
	flags.IntVar(&analyzeTopics, "topics", 0, "The number of topics to fit.")
	flags.StringVar(&analyzeFont, "font", "", "A truetype/opentype font with chinese glyphs.")
	rootCmd.AddCommand(analyzeCmd)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [--in <path>] [--out <dir>] [--topics K] [--font <path>]",
	Short: "Analyzes a comment table and writes figures.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, tel, shutdown := setup(cmd.Context(), "weibo-cli analyze")
		defer shutdown()

		a := cfg.Analyzer
		if analyzeIn != "" {
			a.Input = analyzeIn
		}
		if analyzeOut != "" {
			a.OutputDir = analyzeOut
		}
		if cmd.Flags().Changed("topics") {
			a.Topics.NumTopics = analyzeTopics
		}
		if analyzeFont != "" {
			a.FontPath = analyzeFont
		}

		an, err := analyzer.New(a, tel)
		if err != nil {
			fail(shutdown, "failed to initialize analyzer", err)
		}
		report, err := an.Run(cmd.Context())
		if report.Comments == 0 && err != nil {
			fail(shutdown, "failed to analyze comments", err)
		}

		summary := newTable()
		summary.AppendHeader(table.Row{"Comments", "Mean sentiment", "Distinct tokens", "Topics"})
		summary.AppendRow(table.Row{
			report.Comments,
			fmt.Sprintf("%.3f", mean(report.Scores)),
			len(report.Frequencies),
			len(report.Topics),
		})
		summary.Render()

		top := newTable()
		top.AppendHeader(table.Row{"Token", "Count"})
		for _, e := range report.Frequencies.Top(10) {
			top.AppendRow(table.Row{e.Token, e.Count})
		}
		top.Render()

		artifacts := newTable()
		artifacts.AppendHeader(table.Row{"Artifact", "Status"})
		for _, path := range report.Artifacts {
			artifacts.AppendRow(table.Row{path, "written"})
		}
		for _, f := range report.Failures {
			status := "failed"
			if kind := failure.KindOf(f.Err); kind != nil {
				status = kind.Error()
			}
			artifacts.AppendRow(table.Row{f.Artifact, status})
		}
		artifacts.Render()

		if err != nil {
			fail(shutdown, "some artifacts could not be produced", err)
		}
	},
}
