package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/poseflow/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "PoseFlow server URL (e.g. https://poseflow.tail1234.ts.net)")
	exportPath := flag.String("path", "", "directory of exported session JSON files")
	login := flag.String("user", "", "login the sessions belong to")
	apiKey := flag.String("api-key", os.Getenv("POSEFLOW_AUTH_API_KEY"), "ingest API key (default $POSEFLOW_AUTH_API_KEY)")
	dryRun := flag.Bool("dry-run", false, "parse and validate but don't send to server")
	batchSize := flag.Int("batch-size", 100, "sessions per ingest request")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("poseflow-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: poseflow-upload -server <URL> -user <login> -path <dir> [-api-key KEY] [-dry-run] [-batch-size N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if !*dryRun {
		if *serverURL == "" || *login == "" || *apiKey == "" {
			fmt.Fprintf(os.Stderr, "Error: -server, -user and -api-key are required (or use -dry-run)\n")
			os.Exit(1)
		}
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *exportPath)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := upload.OpenStateDB(filepath.Join(homeDir, ".poseflow-upload"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	} else {
		log.Info("DRY RUN mode, files will be parsed and validated but not sent")
	}

	uploader := upload.New(client, state, *exportPath, *login, *dryRun, *batchSize, log)
	stats, err := uploader.Run()
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:       %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:    %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:     %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:     %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions sent:     %d\n", stats.SessionsSent)
	fmt.Printf("  Sessions inserted: %d\n", stats.SessionsInserted)
	fmt.Printf("  Sessions rejected: %d\n", stats.SessionsRejected)

	if len(stats.UnknownPoses) > 0 {
		fmt.Printf("\n  Unknown poses (not in server catalog):\n")
		for _, p := range stats.UnknownPoses {
			fmt.Printf("    - %s\n", p)
		}
	}
	fmt.Println()
}
