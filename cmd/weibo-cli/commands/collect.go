package commands

import (
	"log/slog"
	"weibo-analysis/internal/collector"
	"weibo-analysis/internal/components/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	collectPost      string
	collectCookie    string
	collectPages     int
	collectOut       string
	collectArchive   string
	collectOverwrite bool
	collectDumpHttp  string
)

func init() {
	flags := collectCmd.Flags()
	flags.StringVar(&collectPost, "post", "", "The id of the post to collect comments from.")
	flags.StringVar(&collectCookie, "cookie", "", "The Cookie header of a logged in m.weibo.cn session.")
	flags.IntVar(&collectPages, "pages", 0, "The maximum number of pages to fetch.")
	flags.StringVar(&collectOut, "out", "", "The comment table to append to.")
	flags.StringVar(&collectArchive, "archive", "", "A sqlite path or libsql url that also receives every comment.")
	flags.BoolVar(&collectOverwrite, "overwrite", false, "Empty the comment table before collecting.")
	flags.StringVar(&collectDumpHttp, "dump-http", "", "A directory to write every http exchange to.")
	rootCmd.AddCommand(collectCmd)
}

var collectCmd = &cobra.Command{
	Use:   "collect [--post <id>] [--cookie <cookie>] [--pages N] [--out <path>] [--archive <dsn>] [--overwrite]",
	Short: "Collects the comments of a post into a comment table.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, tel, shutdown := setup(cmd.Context(), "weibo-cli collect")
		defer shutdown()

		c := cfg.Collector
		if collectPost != "" {
			c.PostID = collectPost
		}
		if collectCookie != "" {
			c.Cookie = collectCookie
		}
		if cmd.Flags().Changed("pages") {
			c.MaxPages = collectPages
		}
		if collectOut != "" {
			c.Output = collectOut
		}
		if collectArchive != "" {
			c.Archive = collectArchive
		}
		if collectOverwrite {
			c.Overwrite = true
		}

		var output telemetry.MessageOutput
		if collectDumpHttp != "" {
			fsOutput, err := telemetry.NewFilesystemOutput(collectDumpHttp)
			if err != nil {
				fail(shutdown, "failed to create http dump directory", err)
			}
			output = fsOutput
		}

		col, err := collector.New(c, tel, output)
		if err != nil {
			fail(shutdown, "invalid collector config", err)
		}

		result, err := col.Run(cmd.Context())

		t := newTable()
		t.AppendHeader(table.Row{"Run", "Pages", "Comments", "Output"})
		t.AppendRow(table.Row{result.RunID, result.Pages, result.Comments, result.Output})
		t.Render()

		if err != nil {
			fail(shutdown, "failed to collect comments", err)
		}
		slog.Info("collected comments", "comments", result.Comments, "output", result.Output)
	},
}
