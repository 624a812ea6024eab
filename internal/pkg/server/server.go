// Package server exposes the service's HTTP surface: health probes, the
// manual scrape trigger, and the read endpoints consumed by the
// dashboard pages (results, stats, predictions, scraping logs).
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dajimenez/loteriasrd/internal/pkg/server/handlers"
)

func Run(ctx context.Context, addr string, readHeaderTimeout time.Duration) {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/ping", handlers.HandlePing)
	mux.HandleFunc("/health", handlers.HandleHealth)

	// Manual scrape trigger
	mux.HandleFunc("/scrape", handlers.HandleScrape)

	// Read endpoints for the presentation layers
	mux.HandleFunc("/results", handlers.HandleResults)
	mux.HandleFunc("/stats", handlers.HandleStats)
	mux.HandleFunc("/predictions", handlers.HandlePredictions)
	mux.HandleFunc("/logs", handlers.HandleLogs)

	if readHeaderTimeout <= 0 {
		slog.Error("server.read_header_timeout must be specified in config")
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func AddrFor(port int) string {
	if port <= 0 {
		slog.Error("port must be greater than 0")
		os.Exit(1)
	}
	return fmt.Sprintf(":%d", port)
}
