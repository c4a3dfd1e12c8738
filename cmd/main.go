package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/miraverse/miraverse-backend/internal/generate"
	httpserver "github.com/miraverse/miraverse-backend/internal/http"
	httpH "github.com/miraverse/miraverse-backend/internal/http/handlers"
	"github.com/miraverse/miraverse-backend/internal/ingest"
	"github.com/miraverse/miraverse-backend/internal/labs"
	"github.com/miraverse/miraverse-backend/internal/platform/envutil"
	"github.com/miraverse/miraverse-backend/internal/platform/logger"
	"github.com/miraverse/miraverse-backend/internal/platform/openai"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	address := envutil.String("HTTP_ADDRESS", ":8080")
	corsOrigins := splitCSV(envutil.String("CORS_ORIGINS", ""))
	quizQuestions := envutil.Int("QUIZ_QUESTION_COUNT", 5)
	slideImages := envutil.Bool("SLIDE_IMAGES", false)

	// Clients
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	ingestService := ingest.NewService(log, openaiClient, ingest.NewFetcher(log))
	generateCfg := generate.DefaultConfig()
	generateCfg.QuizQuestions = quizQuestions
	generateCfg.SlideImages = slideImages
	generateService := generate.NewService(log, openaiClient, generateCfg)
	labsService := labs.NewService(log, openaiClient)

	// HTTP
	server := httpserver.NewServer(httpserver.RouterConfig{
		Log:             log,
		CORSOrigins:     corsOrigins,
		GenerateHandler: httpH.NewGenerateHandler(log, generateService),
		SourceHandler:   httpH.NewSourceHandler(log, ingestService),
		LabsHandler:     httpH.NewLabsHandler(log, labsService),
		HealthHandler:   httpH.NewHealthHandler(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting HTTP server", "address", address)
	if err := server.Run(ctx, address); err != nil {
		log.Error("HTTP server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("Shutdown complete")
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
