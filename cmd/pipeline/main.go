package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"space-video-pipeline/config"
	"space-video-pipeline/logging"
	"space-video-pipeline/orchestrator"
	"space-video-pipeline/scheduler"
	"space-video-pipeline/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is for local dev; deployed environments inject real env vars.
	_ = godotenv.Load()

	var (
		configPath   = flag.String("config", "config.yaml", "path to config file")
		duration     = flag.Int("duration", 120, "target video duration in seconds")
		voice        = flag.String("voice", "alloy", "TTS voice to use")
		newsService  = flag.String("news-service", "", "news scraping service URL (overrides config)")
		videoService = flag.String("video-service", "", "video production service URL (overrides config)")
		healthCheck  = flag.Bool("health-check", false, "only run health check on all services")
		schedule     = flag.Bool("schedule", false, "run on the configured schedule instead of once")
		output       = flag.String("output", "workflow_result.json", "output file for workflow results")
	)
	flag.Parse()

	log := logging.New("pipeline")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "err", err)
		return 1
	}
	if *newsService != "" {
		cfg.Services.NewsURL = *newsService
	}
	if *videoService != "" {
		cfg.Services.VideoURL = *videoService
	}

	orch, err := orchestrator.FromConfig(cfg, log)
	if err != nil {
		log.Error("build orchestrator", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if *healthCheck {
		return printHealth(ctx, orch)
	}

	if *schedule {
		runner := scheduler.New(cfg.Schedule.Interval, cfg.Schedule.MinGap, cfg.Paths.LastRun, log)
		runner.Start(ctx, func(ctx context.Context) string {
			result := orch.Run(ctx, *duration, *voice)
			saveJSON(*output, result, log)
			return string(result.Status)
		})
		return 0
	}

	log.Info("starting workflow", "duration", *duration, "voice", *voice)
	result := orch.Run(ctx, *duration, *voice)
	saveJSON(*output, result, log)
	printSummary(result, *output)

	if result.Status != types.RunCompleted {
		return 1
	}
	return 0
}

func printHealth(ctx context.Context, orch *orchestrator.Orchestrator) int {
	health := orch.HealthCheck(ctx)

	fmt.Println("\n=== Service Health Check ===")
	allHealthy := true
	for service, ok := range health {
		mark := "OK"
		if !ok {
			mark = "FAILED"
			allHealthy = false
		}
		fmt.Printf("%-16s %s\n", service, mark)
	}
	if allHealthy {
		fmt.Println("\nOverall: all services healthy")
		return 0
	}
	fmt.Println("\nOverall: some services failed")
	return 1
}

func printSummary(result *types.WorkflowRun, output string) {
	fmt.Println("\n=== Workflow Results ===")
	fmt.Printf("Status: %s\n", result.Status)
	fmt.Printf("Duration: %.2f seconds\n", result.TotalSeconds)
	fmt.Printf("Results saved to: %s\n", output)

	if result.Status == types.RunCompleted {
		if result.FinalVideoURL != "" {
			fmt.Printf("Video URL: %s\n", result.FinalVideoURL)
		}
		fmt.Println("Pipeline completed successfully.")
		return
	}

	fmt.Println("Pipeline failed.")
	for _, e := range result.Errors {
		fmt.Printf("  - %s\n", e)
	}
}

func saveJSON(path string, v any, log *slog.Logger) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn("could not marshal results", "err", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warn("could not save results", "path", path, "err", err)
	}
}
