package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/presentation-assistant/internal/api"
	"github.com/example/presentation-assistant/internal/config"
	"github.com/example/presentation-assistant/internal/pipeline"
	"github.com/example/presentation-assistant/internal/providers/gemini"
	"github.com/example/presentation-assistant/internal/providers/image"
	"github.com/example/presentation-assistant/internal/providers/translate"
	"github.com/example/presentation-assistant/internal/render/deck"
	"github.com/example/presentation-assistant/internal/render/pdfdoc"
	"github.com/example/presentation-assistant/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx := context.Background()
	var geminiClient *gemini.Client
	if cfg.GoogleAPIKey != "" {
		backend, err := gemini.NewSDKBackend(ctx, cfg.GoogleAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("creating model backend failed")
		}
		defer backend.Close()
		geminiClient = gemini.NewClient(backend, log)
	} else {
		log.Warn().Msg("GOOGLE_API_KEY not set, all generation runs offline")
	}

	store, err := storage.Open(cfg.StorageDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("opening storage failed")
	}

	translator := translate.New()
	images := image.New(cfg.HFAPIKey)
	var imageGen deck.ImageGenerator
	if images.Enabled() {
		imageGen = images
	} else {
		log.Warn().Msg("HF_API_KEY not set, image generation disabled")
	}

	server := &api.Server{
		Log:   log,
		Store: store,
		Gen: &pipeline.Generator{
			Gemini:         geminiClient,
			PreferredModel: cfg.GeminiModel,
			Log:            log,
		},
		Deck:       &deck.Renderer{Log: log, Translator: translator, Images: imageGen},
		PDF:        &pdfdoc.Renderer{Log: log},
		Images:     imageGen,
		Translator: translator,
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
