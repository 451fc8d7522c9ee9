// Command caseload-dashboard serves the read-only web dashboard over the run
// archive produced by cmd/analyse. It performs no analysis itself; every
// page and endpoint reads aggregates already archived in SQLite.
package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/civic-data/caseload.report/internal/api"
	"github.com/civic-data/caseload.report/internal/store"
	"github.com/civic-data/caseload.report/internal/version"
)

var (
	//go:embed static/*
	staticFiles embed.FS
	devMode     = flag.Bool("dev", false, "Serve static files from ./static instead of the embedded copy")
	listen      = flag.String("listen", ":8080", "Listen address")
	dbPath      = flag.String("db", "caseload_runs.db", "Path to the run archive database")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("caseload-dashboard", version.String())
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	archive, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open run archive: %v", err)
	}
	defer archive.Close()

	server := api.NewServer(archive)

	chartMux := server.ChartMux()
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", server.ServeMux()))
	mux.Handle("/charts/", chartMux)
	mux.Handle("/dashboard", chartMux)

	// Static files come from the embedded filesystem in production or from
	// the local ./static in dev for easier iteration without restarting.
	var staticHandler http.Handler
	if *devMode {
		staticHandler = http.FileServer(http.Dir("./static"))
	} else {
		sub, err := fs.Sub(staticFiles, "static")
		if err != nil {
			log.Fatalf("Failed to mount embedded static files: %v", err)
		}
		staticHandler = http.FileServer(http.FS(sub))
	}
	mux.Handle("/", staticHandler)

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Dashboard listening on %s (archive %s)", *listen, *dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
