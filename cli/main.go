package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cartape/cartape/pipeline"
	"github.com/cartape/cartape/pipeline/audio"
	"github.com/cartape/cartape/pipeline/caraudio"
	"github.com/cartape/cartape/pipeline/cleaner"
	"github.com/cartape/cartape/pipeline/config"
	"github.com/cartape/cartape/pipeline/logging"
	"github.com/cartape/cartape/pipeline/match"
	"github.com/cartape/cartape/pipeline/metadata"
	"github.com/cartape/cartape/pipeline/spotify"
)

var (
	// Version is set at build time via ldflags
	// Example: go build -ldflags="-X main.Version=v1.2.3"
	Version = "dev"
)

const (
	exitOK     = 0
	exitUsage  = 1
	exitConfig = 2
	exitRun    = 3
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitUsage)
	}

	command := os.Args[1]

	if command == "version" || command == "--version" || command == "-v" {
		fmt.Printf("cartape version %s\n", Version)
		os.Exit(exitOK)
	}

	switch command {
	case "download":
		downloadCommand()
	case "car-export":
		carExportCommand()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(exitUsage)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `cartape - playlist downloader with car-audio export

USAGE:
    cartape <command> [flags]

COMMANDS:
    download      Download a playlist end-to-end (match, fetch, tag, export)
    car-export    Re-export car-audio copies from an existing playlist folder
    version       Show version information

EXAMPLES:
    cartape download 37i9dQZF1DXcBWIGoYBM5M
    cartape download --config config.yaml https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M
    cartape car-export "downloads/Road Trip Mix"
`)
}

func downloadCommand() {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	logPath := fs.String("log", "", "Path to a JSON-lines run log (optional)")

	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Error parsing flags: %v", err)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: cartape download [flags] <playlist-id-or-url>")
		os.Exit(exitUsage)
	}
	playlistID := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(exitConfig)
	}
	if err := audio.CheckInstalled(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitConfig)
	}

	source, err := spotify.NewClient(&spotify.Config{
		ClientID:     cfg.Download.ClientID,
		ClientSecret: cfg.Download.ClientSecret,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Spotify client error: %v\n", err)
		os.Exit(exitConfig)
	}

	var logger *logging.Logger
	if *logPath != "" {
		logger, err = logging.NewLogger(*logPath, pipeline.NewRunID())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Log file error: %v\n", err)
			os.Exit(exitConfig)
		}
		defer logger.Close()
	}

	var mc pipeline.MetadataCleaner
	if cfg.Cleaner.Enabled {
		mc = cleaner.NewCleaner(cleaner.NewClient(cfg.Cleaner.BaseURL, cfg.Cleaner.Model))
	}

	svc := pipeline.NewService(
		cfg,
		source,
		match.NewSelector(match.NewYtDlpSearcher(), cfg.Match),
		audio.NewFetcher(&audio.Config{
			OutputFormat: cfg.Download.Format,
			Bitrate:      cfg.Download.Bitrate,
		}),
		metadata.NewWriter(),
		mc,
		logger,
	)

	ctx := signalContext()
	summary, err := svc.ProcessPlaylist(ctx, playlistID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		os.Exit(exitRun)
	}

	fmt.Printf("Done: %d downloaded, %d skipped, %d unmatched, %d failed (of %d)\n",
		summary.Downloaded, summary.Skipped, summary.FailedMatch, summary.FailedDownload, summary.Total)
	if summary.FailedMatch+summary.FailedDownload > 0 {
		os.Exit(exitRun)
	}
}

func carExportCommand() {
	fs := flag.NewFlagSet("car-export", flag.ExitOnError)
	dest := fs.String("dest", "car_audio", "Destination root for car-audio copies")

	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Error parsing flags: %v", err)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: cartape car-export [flags] <playlist-folder>")
		os.Exit(exitUsage)
	}
	sourceDir := fs.Arg(0)

	if _, err := os.Stat(sourceDir); err != nil {
		fmt.Fprintf(os.Stderr, "Source folder not found: %s\n", sourceDir)
		os.Exit(exitConfig)
	}

	exporter := caraudio.NewExporter(metadata.NewWriter())
	summary, err := exporter.Export(signalContext(), sourceDir, *dest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(exitRun)
	}
	fmt.Printf("Done: %d exported, %d skipped, %d failed\n", summary.Exported, summary.Skipped, summary.Failed)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM so
// in-flight yt-dlp processes are stopped cleanly.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("INFO: signal_received signal=%v, shutting down", sig)
		cancel()
	}()
	return ctx
}
