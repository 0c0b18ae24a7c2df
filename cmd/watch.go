package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"grimm.is/nereon/internal/i18n"
	"grimm.is/nereon/internal/logging"
	"grimm.is/nereon/internal/metrics"
	"grimm.is/nereon/internal/tree"
	"grimm.is/nereon/internal/watch"
)

// RunWatch re-decodes src whenever its files change and prints a summary of
// each new tree until ctx is cancelled. With metricsAddr set, /metrics is
// served there for the lifetime of the watch.
func RunWatch(ctx context.Context, w io.Writer, src Source, metricsAddr string) error {
	lib, err := src.Library()
	if err != nil {
		return err
	}
	logger := logging.WithComponent("watch")

	watcher, err := watch.New(func() (*tree.Node, error) {
		return src.decodeWith(lib)
	}, src.Config, src.Meta)
	if err != nil {
		return err
	}
	watcher.OnChange = func(root *tree.Node) {
		nodes := 0
		if root != nil {
			nodes = root.Count()
		}
		Printer.Fprintln(w, Printer.Sprintf(i18n.MsgReloaded, src.Config, nodes))
	}
	watcher.OnError = func(err error) {
		Printer.Fprintln(w, StyleError.Render(err.Error()))
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	return watcher.Run(ctx)
}
