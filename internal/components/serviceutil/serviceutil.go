package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"weibo-analysis/internal/components/failure"
)

// Returns a context that will live until Ctrl+C is pressed
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	return ctx
}

// Fatal logs `err` with its failure kind, when it has one, and exits.
func Fatal(message string, err error) {
	args := []any{"err", err.Error()}
	if kind := failure.KindOf(err); kind != nil {
		args = append(args, "kind", kind.Error())
	}
	if stage := failure.StageOf(err); stage != "" {
		args = append(args, "stage", stage)
	}
	slog.Error(message, args...)
	os.Exit(1)
}
