// Replay CLI: re-scores archived outcome records against the current
// reinforcement memory and reports how well today's memory agrees with
// how those trades actually ended.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"token-snipe-engine/internal/replay"
	"token-snipe-engine/internal/storage"
	"token-snipe-engine/internal/storage/memory"
	"token-snipe-engine/internal/storage/migrations"
	pgstore "token-snipe-engine/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	limit := flag.Int("limit", replay.DefaultLimit, "Maximum number of outcome records to replay")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (empty stores; useful for smoke tests)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	verbose := flag.Bool("verbose", false, "Include per-record results in the output")

	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create stores
	var (
		records  storage.OutcomeRecordStore   = memory.NewOutcomeRecordStore()
		weights  storage.ReasoningWeightStore = memory.NewReasoningWeightStore()
		patterns storage.SignalPatternStore   = memory.NewSignalPatternStore()
		streaks  storage.StreakStore          = memory.NewStreakStore()
		tokens   storage.TokenRecordStore     = memory.NewTokenRecordStore()
	)

	if !*useMemory {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}

		records = pgstore.NewOutcomeRecordStore(pool)
		weights = pgstore.NewReasoningWeightStore(pool)
		patterns = pgstore.NewSignalPatternStore(pool)
		streaks = pgstore.NewStreakStore(pool)
		tokens = pgstore.NewTokenRecordStore(pool)
	}

	engine := replay.New(replay.Options{
		Records:  records,
		Weights:  weights,
		Patterns: patterns,
		Streaks:  streaks,
		Tokens:   tokens,
		Logger:   logger,
	})

	logger.Printf("Replaying up to %d outcome records", *limit)
	report, err := engine.Run(ctx, *limit)
	if err != nil {
		logger.Fatalf("replay failed: %v", err)
	}

	if !*verbose {
		report.Results = nil
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("\n=== Replay Summary ===\n")
	fmt.Printf("Records Replayed:    %d\n", report.Records)
	fmt.Printf("Aligned Decisions:   %d (%.1f%%)\n", report.Aligned, report.AlignmentRate*100)
	fmt.Printf("Predictions Made:    %d\n", report.Predicted)
	fmt.Printf("Prediction Hits:     %d (%.1f%%)\n", report.PredictionHits, report.PredictionAccuracy*100)
	fmt.Printf("Mean Score Drift:    %.2f\n", report.MeanScoreDrift)
	if *verbose {
		fmt.Printf("\n%-12s %-10s %-8s %-8s %-8s %s\n", "RECORD", "OUTCOME", "ORIG", "REPLAY", "ACTION", "ALIGNED")
		for _, r := range report.Results {
			id := r.RecordID
			if len(id) > 12 {
				id = id[:12]
			}
			fmt.Printf("%-12s %-10s %-8.1f %-8.1f %-8s %v\n",
				id, r.Outcome, r.OriginalScore, r.ReplayScore, r.ReplayAction, r.Aligned)
		}
	}
}
