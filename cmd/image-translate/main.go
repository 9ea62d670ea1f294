package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/ironsheep/image-translate/internal/config"
	"github.com/ironsheep/image-translate/internal/grammar"
	"github.com/ironsheep/image-translate/internal/ocr"
	"github.com/ironsheep/image-translate/internal/pipeline"
	"github.com/ironsheep/image-translate/internal/server"
	"github.com/ironsheep/image-translate/internal/speech"
	"github.com/ironsheep/image-translate/internal/translate"
	"github.com/ironsheep/image-translate/internal/web"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("image-translate - read, translate and speak the text in images")
	fmt.Println()
	fmt.Println("Usage: image-translate [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve            Run the web interface (default)")
	fmt.Println("  mcp              Serve MCP tools over stdin/stdout")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Configuration is read from config.yaml (override with CONFIG_PATH),")
	fmt.Println("a .env file, and " + config.EnvPrefix + "* environment variables, e.g.")
	fmt.Println("  " + config.EnvPrefix + "PORT=8080")
	fmt.Println("  " + config.EnvPrefix + "LOG_LEVEL=debug")
	fmt.Println("  " + config.EnvPrefix + "TRANSLATION_BACKEND=openai")
	fmt.Println("  " + config.EnvPrefix + "OPENAI_API_KEY=sk-...")
}

func main() {
	command := "serve"
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-translate %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "serve", "mcp":
			command = os.Args[1]
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
			usage()
			os.Exit(2)
		}
	}

	// Logs go to stderr; in MCP mode stdout carries the protocol.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config from %s: %v", configPath, err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit, "config", configPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, cleanup, err := buildService(cfg, registry, logger)
	if err != nil {
		log.Fatalf("failed to initialise backends: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "mcp":
		// Run blocks on stdin, so a signal must not wait for the next line.
		done := make(chan error, 1)
		go func() { done <- server.New(svc, Version).Run(ctx) }()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mcp server error", "error", err)
				cleanup()
				os.Exit(1)
			}
		case <-ctx.Done():
			logger.Info("shutdown signal received")
		}
	default:
		serveHTTP(ctx, cfg, svc, registry, logger)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// buildService wires the configured backends. The returned cleanup closes
// any connections they hold.
func buildService(cfg *config.Config, registry *prometheus.Registry, logger *slog.Logger) (*pipeline.Service, func(), error) {
	cleanup := func() {}

	engine := ocr.NewTesseractEngine(cfg.OCR.TessdataPrefix)
	if info := engine.GetInfo(); info.Available {
		logger.Info("tesseract ready", "version", info.Version, "tessdata", info.Tessdata)
	} else {
		logger.Warn("tesseract version unavailable; recognition may fail")
	}

	var translator translate.Translator
	switch cfg.Translation.Backend {
	case "openai":
		t, err := translate.NewOpenAITranslator(translate.OpenAIOptions{
			APIKey:  cfg.Translation.APIKey,
			BaseURL: cfg.Translation.Endpoint,
			Model:   cfg.Translation.Model,
		})
		if err != nil {
			return nil, cleanup, err
		}
		translator = t
	default:
		g := translate.NewGoogleTranslator(cfg.Translation.Endpoint, cfg.Translation.Timeout)
		g.ChunkSize = cfg.Translation.ChunkSize
		translator = g
	}

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("redis url: %w", err)
		}
		client := redis.NewClient(opts)
		cleanup = func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close failed", "error", err)
			}
		}
		translator = translate.NewCachedTranslator(translator, client, cfg.Translation.CacheTTL)
		logger.Info("translation cache enabled", "addr", opts.Addr, "ttl", cfg.Translation.CacheTTL)
	}

	checker := grammar.NewLanguageToolClient(cfg.Grammar.URL, cfg.Grammar.Timeout)

	var synthesizer speech.Synthesizer
	switch cfg.Speech.Backend {
	case "openai":
		s, err := speech.NewOpenAISynthesizer(speech.OpenAIOptions{
			APIKey:  cfg.Speech.APIKey,
			BaseURL: cfg.Speech.Endpoint,
			Model:   cfg.Speech.Model,
			Voice:   cfg.Speech.Voice,
		})
		if err != nil {
			return nil, cleanup, err
		}
		synthesizer = s
	default:
		synthesizer = speech.NewGoogleSynthesizer(cfg.Speech.Endpoint, cfg.Speech.Timeout)
	}

	svc, err := pipeline.New(pipeline.Deps{
		Engine:      engine,
		Translator:  translator,
		Checker:     checker,
		Synthesizer: synthesizer,
		Metrics:     pipeline.NewMetrics(registry),
		Logger:      logger,
	}, pipeline.OptionsFromConfig(cfg))
	if err != nil {
		return nil, cleanup, err
	}
	return svc, cleanup, nil
}

func serveHTTP(ctx context.Context, cfg *config.Config, svc *pipeline.Service, registry *prometheus.Registry, logger *slog.Logger) {
	e := web.NewServer(svc, web.Options{
		UploadLimit: cfg.UploadLimit,
		Gatherer:    registry,
		Version:     Version,
	}).NewEcho()

	portString := fmt.Sprintf(":%d", cfg.Port)

	// Start HTTP server in a goroutine to allow graceful shutdown
	go func() {
		logger.Info("http server listening", "addr", portString)
		if err := e.Start(portString); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}
