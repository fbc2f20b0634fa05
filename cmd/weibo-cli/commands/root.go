package commands

import (
	"context"
	"fmt"
	"os"
	"weibo-analysis/internal/components/serviceutil"
	"weibo-analysis/internal/components/telemetry"
	"weibo-analysis/internal/config"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "The config file, a <name>.local.<ext> file next to it overrides its values.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug information.")
}

var rootCmd = &cobra.Command{
	Use:   "weibo-cli",
	Short: "weibo-cli collects the comments of a weibo post and analyzes them.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config and starts telemetry, the returned function
// flushes telemetry and must be called before exiting.
func setup(ctx context.Context, name string) (config.Config, telemetry.API, func()) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		fatal("failed to read config", err)
	}

	tel := telemetry.SlogAPI{}
	otel, err := telemetry.Setup(ctx, name, cfg.Telemetry)
	if err != nil {
		fatal("failed to setup telemetry", err)
	}

	return cfg, tel, func() {
		telemetry.ReportPerfStats(context.Background(), tel)
		err := otel.Shutdown(context.Background())
		if err != nil {
			tel.ReportWarning("cli.shutdown", err)
		}
	}
}

// fatal must not return, tests replace it.
var fatal = serviceutil.Fatal

// fail flushes telemetry with `shutdown` and exits.
func fail(shutdown func(), message string, err error) {
	shutdown()
	fatal(message, err)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
