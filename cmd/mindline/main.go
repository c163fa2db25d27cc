// Package main provides the mindline server entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mindline-ai/mindline/internal/config"
	"github.com/mindline-ai/mindline/internal/content"
	"github.com/mindline-ai/mindline/internal/db"
	"github.com/mindline-ai/mindline/internal/knowledge"
	"github.com/mindline-ai/mindline/internal/lines"
	"github.com/mindline-ai/mindline/internal/llm"
	"github.com/mindline-ai/mindline/internal/llmcache"
	"github.com/mindline-ai/mindline/internal/moments"
	"github.com/mindline-ai/mindline/internal/perplexity"
	"github.com/mindline-ai/mindline/internal/recommend"
	"github.com/mindline-ai/mindline/internal/server"
	"github.com/mindline-ai/mindline/internal/strategy"
	"github.com/mindline-ai/mindline/internal/tracking"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	settingsPath := flag.String("settings", "", "Settings file (default: ~/.mindline/settings.yaml)")
	port := flag.Int("port", 0, "HTTP listen port (overrides settings)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureDataDir(); err != nil {
		log.Fatal().Err(err).Msg("Failed to create data directory")
	}

	cfg, err := config.Load(*settingsPath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load settings, using defaults")
		cfg = config.Default()
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if !*debug {
		if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY is required")
	}
	if cfg.PerplexityAPIKey == "" {
		log.Fatal().Msg("PERPLEXITY_API_KEY is required")
	}

	store, err := db.NewStore(db.Config{
		Driver: cfg.DBDriver,
		Path:   cfg.DBPath,
		DSN:    cfg.DBDSN,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer store.Close()

	var callCache llmcache.Store = db.NewCallCacheStore(store)
	if cfg.RedisAddr != "" {
		log.Info().Str("addr", cfg.RedisAddr).Msg("Layering Redis over the call cache")
		callCache = llmcache.NewRedisStore(cfg.RedisAddr, callCache)
	}

	model := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.Model,
		Cache:   callCache,
	})
	answers := perplexity.NewClient(perplexity.Config{
		APIKey: cfg.PerplexityAPIKey,
		Model:  cfg.PerplexityModel,
		Cache:  callCache,
	})

	contents := db.NewContentStore(store)
	tracker := tracking.NewProcessor(db.NewInteractionStore(store))
	discovery := content.NewDiscovery(
		content.NewPerplexitySearcher(answers),
		content.NewExtractor(model),
		contents,
		content.DiscoveryConfig{
			SearchLimit:  cfg.SearchConcurrency,
			FetchLimit:   cfg.FetchConcurrency,
			FetchTimeout: cfg.FetchTimeout(),
		},
	)

	orchestrator := recommend.NewOrchestrator(recommend.Deps{
		Lines:        lines.NewManager(db.NewLineStore(store), model, cfg.RecentLineWindow),
		Answer:       answers,
		Grouper:      lines.NewGrouper(model),
		Knowledge:    knowledge.NewAnalyzer(model),
		Moments:      moments.NewDetector(model),
		Strategies:   strategy.NewGenerator(model),
		Discovery:    discovery,
		Filter:       content.NewFilterer(model),
		Interactions: tracker,
		Audit:        db.NewRecommendationStore(store),
	}, cfg.MaxAttempts)

	svc := server.NewService(Version, orchestrator, tracker, callCache, contents)

	watcher, err := config.NewWatcher(config.SettingsPath(), func(next *config.Config) {
		// Only the log level applies without a restart.
		if level, err := zerolog.ParseLevel(next.LogLevel); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("Settings watcher unavailable")
	} else if err := watcher.Start(); err == nil {
		defer watcher.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Int("port", cfg.Port).Str("version", Version).Msg("mindline listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown incomplete")
	}
}
