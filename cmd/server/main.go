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

	"github.com/visionvoice/visionvoice/internal/api"
	"github.com/visionvoice/visionvoice/internal/config"
	"github.com/visionvoice/visionvoice/internal/health"
	"github.com/visionvoice/visionvoice/internal/mix"
	"github.com/visionvoice/visionvoice/internal/provider"
	"github.com/visionvoice/visionvoice/internal/storage"
	"github.com/visionvoice/visionvoice/internal/track"
	"github.com/visionvoice/visionvoice/internal/tts"
	"github.com/visionvoice/visionvoice/internal/usage"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/example.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting VisionVoice Server v%s", version)
	log.Printf("Configuration loaded from: %s", *configPath)

	// Initialize storage adapter
	store, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create storage adapter: %v", err)
	}
	defer store.Close()
	log.Printf("Storage adapter initialized: %s", cfg.Storage.Adapter)

	// Initialize TTS providers
	providers := make(map[string]provider.TTSProvider)
	if cfg.Providers.OpenAI.Enabled {
		p, err := provider.NewOpenAIProvider(cfg.Providers.OpenAI)
		if err != nil {
			log.Fatalf("Failed to initialize OpenAI provider: %v", err)
		}
		providers[provider.ProviderOpenAI] = p
	}
	if cfg.Providers.ElevenLabs.Enabled {
		p, err := provider.NewElevenLabsProvider(cfg.Providers.ElevenLabs)
		if err != nil {
			log.Fatalf("Failed to initialize ElevenLabs provider: %v", err)
		}
		providers[provider.ProviderElevenLabs] = p
	}
	if len(providers) == 0 {
		log.Printf("Warning: no TTS providers enabled; only dry-run generation will succeed")
	}
	for name := range providers {
		log.Printf("TTS provider enabled: %s", name)
	}

	// Usage ledger and synthesis router
	ledger := usage.NewLedger(store)
	synth := provider.NewSynthesizer(providers, ledger)
	defer synth.Close()

	// Track repository over the blob store
	repo := track.NewRepository(store)
	log.Printf("Track repository initialized")

	// Background mixing trigger (optional)
	var mixer *mix.Trigger
	if cfg.Mix.Enabled {
		invoker, err := mix.NewLambdaInvoker(cfg.Mix)
		if err != nil {
			log.Fatalf("Failed to initialize mix invoker: %v", err)
		}
		mixer = mix.NewTrigger(repo, invoker, cfg.Mix.BackgroundTrackURL)
		log.Printf("Background mixing enabled via %s", cfg.Mix.FunctionName)
	} else {
		log.Printf("Background mixing disabled")
	}

	// Generation orchestrator
	orch := tts.NewOrchestrator(repo, synth, store, mixer, cfg.Storage.S3.Bucket, cfg.Storage.CDNPrefix)

	// Health checks
	healthHandler := health.NewHandler(version)
	healthHandler.Register("storage", health.StorageCheck(store))
	healthHandler.Register("openai", health.ProviderCheck(cfg.Providers.OpenAI.Enabled))
	healthHandler.Register("elevenlabs", health.ProviderCheck(cfg.Providers.ElevenLabs.Enabled))

	// Set up HTTP server and routes
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/health/live", healthHandler.LivenessHandler())
	mux.HandleFunc("/health/ready", healthHandler.ReadinessHandler())
	mux.HandleFunc("/health", healthHandler.HealthHandler())

	// Audio generation and track status
	audioHandler := api.NewAudioHandler(orch, repo)
	mux.HandleFunc("/api/v1/audio/generate", audioHandler.Generate)
	mux.HandleFunc("/api/v1/audio/tracks", audioHandler.ListTracks)

	// Batch progress polling
	batchHandler := api.NewBatchHandler(repo)
	mux.HandleFunc("POST /api/v1/batches", batchHandler.CreateBatch)
	mux.HandleFunc("GET /api/v1/batches/{id}", batchHandler.GetBatch)

	// Voice catalog, previews, and reference clips
	voicesHandler := api.NewVoicesHandler(orch)
	mux.HandleFunc("/api/v1/voices", voicesHandler.ListVoices)
	mux.HandleFunc("/api/v1/voices/preview", voicesHandler.Preview)
	mux.HandleFunc("/api/v1/voices/reference", voicesHandler.Reference)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Let in-flight mix triggers and full-track assembly finish
	orch.Wait()

	log.Println("Server stopped")
}
