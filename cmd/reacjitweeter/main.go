package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/reacji-tweeter/internal/admin"
	"github.com/p-blackswan/reacji-tweeter/internal/config"
	"github.com/p-blackswan/reacji-tweeter/internal/health"
	"github.com/p-blackswan/reacji-tweeter/internal/metrics"
	"github.com/p-blackswan/reacji-tweeter/internal/slackbot"
	"github.com/p-blackswan/reacji-tweeter/internal/store"
	"github.com/p-blackswan/reacji-tweeter/internal/tracker"
	"github.com/p-blackswan/reacji-tweeter/internal/twitter"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("trigger_emoji", cfg.TriggerEmoji).
		Str("connector", cfg.DBConnectorType).
		Str("admin_addr", cfg.AdminListenAddr).
		Msg("starting reacji-tweeter")

	if !cfg.SlackEnabled() {
		logger.Fatal().Msg("SLACK_BOT_TOKEN and SLACK_APP_TOKEN are required")
	}
	if !cfg.TwitterEnabled() {
		logger.Fatal().Msg("twitter credentials are incomplete; need TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN, TWITTER_ACCESS_SECRET")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// A bad or missing connector tag is a configuration error; die now, not
	// on the first event.
	db, err := store.Open(cfg.DBConnectorType, store.Config{Path: cfg.DBPath})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer db.Close()

	if cfg.ForbiddenSeedPath != "" {
		n, err := store.SeedForbidden(ctx, db, cfg.ForbiddenSeedPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to seed forbidden items")
		}
		logger.Info().Int("count", n).Msg("seeded forbidden items")
	}

	m := metrics.New()
	checker := health.NewChecker(logger)

	gateway := twitter.NewClient(twitter.Credentials{
		APIKey:       cfg.TwitterAPIKey,
		APISecret:    cfg.TwitterAPISecret,
		AccessToken:  cfg.TwitterAccessToken,
		AccessSecret: cfg.TwitterAccessSecret,
	}, logger)

	slackHandler := slackbot.NewHandler(logger)
	app, err := slackbot.NewApp(cfg.SlackBotToken, cfg.SlackAppToken, logger, slackHandler)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create slack app")
	}

	resolver := slackbot.NewChannelResolver(app.API())
	trackerHandler := tracker.NewHandler(db, gateway, resolver, cfg.TriggerEmoji, logger, m)
	slackHandler.SetTracker(trackerHandler)

	checker.Register("slack", func(ctx context.Context) health.Status {
		if _, err := app.API().AuthTestContext(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})
	if pinger, ok := db.(store.Pinger); ok {
		checker.Register("store", func(ctx context.Context) health.Status {
			if err := pinger.Ping(ctx); err != nil {
				return health.StatusDown
			}
			return health.StatusOK
		})
	}

	adminSrv := admin.NewServer(admin.ServerConfig{
		ListenAddr:  cfg.AdminListenAddr,
		Auth:        admin.AuthConfig{Mode: cfg.AdminAuthMode, APIKey: cfg.AdminAPIKey},
		CORSOrigins: cfg.AdminCORSOrigins,
	}, db, checker, m, logger)

	errCh := make(chan error, 2)

	go func() {
		errCh <- adminSrv.Listen()
	}()

	go func() {
		errCh <- app.Run(ctx)
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("component failed")
		}
	}

	cancel()
	if err := adminSrv.Shutdown(); err != nil {
		logger.Warn().Err(err).Msg("admin server shutdown error")
	}
	logger.Info().Msg("goodbye")
}
