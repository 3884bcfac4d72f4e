package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"holiday-booking/internal/app"
	"holiday-booking/internal/booking"
	"holiday-booking/internal/calendar"
	"holiday-booking/internal/config"
	"holiday-booking/internal/conflict"
	"holiday-booking/internal/grouping"
	"holiday-booking/internal/logging"
	"holiday-booking/internal/memstore"
	"holiday-booking/internal/notify"
	"holiday-booking/internal/pricing"
	"holiday-booking/internal/server"
	"holiday-booking/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		repo store.Repository
		db   app.Pinger
	)
	if cfg.DatabaseURL != "" {
		pg, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		repo, db = pg, pg
		logger.Info("using postgres store")
	} else {
		mem := memstore.New()
		repo, db = mem, mem
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	oauthCfg := calendar.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	var cal calendar.Client
	if cfg.CalendarEnabled() {
		g, err := calendar.NewGoogle(ctx, oauthCfg, cfg.GoogleRefreshToken, cfg.CalendarID, cfg.CalendarTimeout, logger)
		if err != nil {
			return err
		}
		cal = g
	} else {
		logger.Warn("google calendar not configured, using in-memory calendar")
		cal = calendar.NewMemory()
	}

	hub := notify.NewHub(logger)
	notifiers := notify.Multi{hub}
	if email := notify.NewEmail(cfg.PostmarkToken, cfg.NotifyFrom, cfg.NotifyTo, cfg.BaseURL); email.Configured() {
		notifiers = append(notifiers, email)
	}

	engine := pricing.NewEngine(repo, cal,
		pricing.WithLocation(cfg.Location),
		pricing.WithLogger(logger),
	)
	detector := conflict.NewDetector(repo, cal,
		conflict.WithNotifier(notifiers),
		conflict.WithLocation(cfg.Location),
		conflict.WithLogger(logger),
	)
	bookings := booking.NewService(repo, engine,
		booking.WithCalendar(cal),
		booking.WithConflictChecker(detector),
		booking.WithLogger(logger),
	)
	grouper := grouping.NewGrouper(repo, cal, detector, logger)

	if cfg.SweepInterval > 0 {
		sweeper := conflict.NewSweeper(detector, cfg.SweepInterval, logger)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	a := &app.App{
		Bookings:  bookings,
		Pricing:   engine,
		Phases:    pricing.NewAdmin(repo, logger),
		Conflicts: detector,
		Grouper:   grouper,
		OAuth:     oauthCfg,
		Hub:       hub,
		DB:        db,
		FeedName:  "Holiday home availability",
		Auth:      app.AuthConfig{StaticTokens: cfg.StaticTokens, JWTSecret: cfg.JWTHMACSecret},
		Logger:    logger,
	}

	return server.Run(ctx, cfg.Port, a.Router(), logger)
}
