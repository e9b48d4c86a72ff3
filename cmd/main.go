package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botfarm/internal/api"
	"botfarm/internal/config"
	"botfarm/internal/factory"
	"botfarm/internal/generation"
	"botfarm/internal/lifecycle"
	"botfarm/internal/memory"
	"botfarm/internal/monitoring"
	"botfarm/internal/personality"
	"botfarm/internal/platform"
	"botfarm/internal/quality"
	"botfarm/internal/rng"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	seed        = flag.Int64("seed", 0, "Randomness seed, 0 uses the clock")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	model, err := initializeLLM(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM: %v", err)
	}

	store, err := memory.Open(cfg.Database, cfg.Memory)
	if err != nil {
		log.Fatalf("Failed to open memory store: %v", err)
	}
	defer store.Close()

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	r := rng.New(s)

	client := platform.NewClient(cfg.Platform)
	if err := client.CheckHealth(ctx); err != nil {
		log.Printf("Platform not reachable yet: %v", err)
	}

	scorer := quality.NewScorer(cfg.Quality)
	gen := generation.New(model, scorer, store, cfg.LLM, cfg.Quality, r)
	fac := factory.New(personality.NewRegistry(), client, r)
	metrics := monitoring.NewCollector()

	manager := lifecycle.NewManager(cfg, client, store, gen, fac, metrics, r)
	go manager.Run(ctx)

	go startMetricsServer(cfg.Server.MetricsPort, metrics)

	operator := api.NewServer(manager, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: operator.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}

		cancel()
	}()

	log.Printf("Starting API server on port %d", cfg.Server.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func initializeLLM(cfg *config.Config) (llms.Model, error) {
	llm, err := openai.New(
		openai.WithModel(cfg.LLM.Model),
		openai.WithToken(cfg.LLM.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}

	return llm, nil
}

func startMetricsServer(port int, metrics *monitoring.Collector) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(metrics.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
