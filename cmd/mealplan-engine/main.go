package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mealplan-engine/internal/config"
	"mealplan-engine/internal/llm"
	"mealplan-engine/internal/metrics"
	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/planner"
	"mealplan-engine/internal/profile"
	"mealplan-engine/internal/shared"
	"mealplan-engine/internal/storage"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "generate":
		if err := runGenerate(ctx, cfg, logger, os.Args[2:]); err != nil {
			logger.Fatal("generation failed", zap.Error(err))
		}
	case "history":
		if err := runHistory(ctx, cfg, os.Args[2:]); err != nil {
			logger.Fatal("history failed", zap.Error(err))
		}
	case "usage":
		if err := runUsage(ctx, cfg, os.Args[2:]); err != nil {
			logger.Fatal("usage report failed", zap.Error(err))
		}
	case "metrics-cleanup":
		if err := runMetricsCleanup(ctx, cfg, os.Args[2:]); err != nil {
			logger.Fatal("cleanup failed", zap.Error(err))
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func newTextGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, func(), error) {
	switch cfg.Provider {
	case "groq":
		return llm.NewGroqClient(cfg.GroqAPIKey), func() {}, nil
	default:
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	}
}

func runGenerate(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	profilePath := fs.String("profile", "", "Path to a user profile JSON file")
	planType := fs.String("type", "weekly", "Plan type: daily, weekly or monthly")
	duration := fs.Int("duration", 0, "Number of days (defaults per plan type)")
	calories := fs.Float64("calories", 2000, "Target daily calories")
	out := fs.String("out", "", "Write the plan JSON to this file instead of stdout")
	fs.Parse(args)

	if *profilePath == "" {
		return fmt.Errorf("-profile is required")
	}
	data, err := os.ReadFile(*profilePath)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}
	var prof profile.UserProfile
	if err := json.Unmarshal(data, &prof); err != nil {
		return fmt.Errorf("failed to parse profile: %w", err)
	}

	req := plan.Request{
		PlanType:       plan.Type(*planType),
		Duration:       *duration,
		TargetCalories: *calories,
		Profile:        prof,
	}
	if req.Duration == 0 {
		switch req.PlanType {
		case plan.TypeDaily:
			req.Duration = 1
		case plan.TypeMonthly:
			req.Duration = 30
		default:
			req.Duration = 7
		}
	}

	textGen, closeGen, err := newTextGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s client: %w", cfg.Provider, err)
	}
	defer closeGen()

	db, err := storage.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	planRepo := storage.NewPlanRepository(db)
	metricsStore := metrics.NewStore(db.SQL)

	p := planner.NewPlanner(textGen, cfg, logger)
	result, genErr := p.GenerateMealPlan(ctx, req)
	if genErr != nil {
		// Failed requests still spent tokens; record them with an empty
		// plan id since no plan was stored.
		var pipeErr *planner.PipelineError
		if errors.As(genErr, &pipeErr) {
			recordMetas(ctx, logger, metricsStore, "", "failure", pipeErr.Metas)
		}
		return genErr
	}

	id, err := planRepo.Save(ctx, req, result.Plan)
	if err != nil {
		logger.Warn("failed to persist plan", zap.Error(err))
	} else {
		logger.Info("plan saved", zap.String("id", id))
	}
	recordMetas(ctx, logger, metricsStore, id, "success", result.Metas)

	for _, v := range result.Accepted {
		logger.Info("accepted with leniency", zap.String("code", v.Code), zap.String("message", v.Message))
	}
	for _, v := range result.Warnings {
		logger.Info("warning", zap.String("code", v.Code), zap.String("message", v.Message))
	}

	encoded, err := json.MarshalIndent(result.Plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if *out != "" {
		return os.WriteFile(*out, encoded, 0644)
	}
	fmt.Println(string(encoded))
	return nil
}

func recordMetas(ctx context.Context, logger *zap.Logger, store *metrics.Store, planID, outcome string, metas []shared.AgentMeta) {
	for _, meta := range metas {
		if err := store.RecordMeta(ctx, planID, outcome, meta); err != nil {
			logger.Warn("failed to record metric", zap.Error(err))
		}
	}
}

func runHistory(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 10, "How many recent plans to list")
	fs.Parse(args)

	db, err := storage.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	plans, err := storage.NewPlanRepository(db).ListRecent(ctx, *limit)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Println("No stored plans.")
		return nil
	}
	for _, sp := range plans {
		fmt.Printf("%s  %s  %d days  %.0f kcal  %s\n",
			sp.ID, sp.PlanType, sp.Duration, sp.TargetCalories, sp.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runUsage(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("usage", flag.ExitOnError)
	days := fs.Int("days", 7, "Report usage for the last N days")
	fs.Parse(args)

	db, err := storage.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	usage, err := metrics.NewStore(db.SQL).GetDailyUsage(ctx, *days)
	if err != nil {
		return err
	}
	for _, u := range usage {
		fmt.Printf("%s  prompt=%d  completion=%d  calls=%d\n", u.Date, u.TotalPrompt, u.TotalCompletion, u.Calls)
	}
	return nil
}

func runMetricsCleanup(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	fs.Parse(args)

	db, err := storage.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	affected, err := metrics.NewStore(db.SQL).Cleanup(ctx, *days)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d old metric records.\n", affected)
	return nil
}

func printUsage() {
	fmt.Println("Usage: mealplan-engine <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate           Generate a meal plan from a profile JSON file")
	fmt.Println("  history            List recently generated plans")
	fmt.Println("  usage              Show daily token usage")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
