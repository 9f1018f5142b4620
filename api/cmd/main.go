package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	zlog "github.com/rs/zerolog/log"

	"github.com/communityos/occurrence-service/internal/application/occurrence"
	"github.com/communityos/occurrence-service/internal/application/registration"
	"github.com/communityos/occurrence-service/internal/config"
	"github.com/communityos/occurrence-service/internal/infrastructure/caching/redis"
	"github.com/communityos/occurrence-service/internal/infrastructure/calendar"
	"github.com/communityos/occurrence-service/internal/infrastructure/calendar/google"
	"github.com/communityos/occurrence-service/internal/infrastructure/db/postgres"
	rabbitmq "github.com/communityos/occurrence-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/communityos/occurrence-service/internal/logger"
	"github.com/communityos/occurrence-service/internal/recurrence"
	"github.com/communityos/occurrence-service/internal/transport/http/handlers"
	authmw "github.com/communityos/occurrence-service/internal/transport/http/middleware"
	"github.com/communityos/occurrence-service/internal/transport/http/router"
)

// sysClock implements the Clock interfaces using system time
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// App holds all dependencies for the service
type App struct {
	Config *config.Config
	Server *http.Server
	DB     *sql.DB

	Repo      *postgres.Repo
	Calendar  *calendar.Adapter
	Publisher *rabbitmq.Publisher
	EventPub  occurrence.EventPublisher
	Consumer  *rabbitmq.Consumer
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	u, _ := url.Parse(cfg.DatabaseURL)
	zlog.Info().
		Str("db_user", u.User.Username()).
		Str("db_host", u.Host).
		Str("db_db", u.Path).
		Msg("db config loaded")

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("db open failed")
	}
	defer db.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			zlog.Fatal().Err(err).Msg("db ping failed")
		}
	}

	app := NewApp(cfg, db)
	defer func() {
		if app.Publisher != nil {
			_ = app.Publisher.Close()
		}
		if app.Consumer != nil {
			_ = app.Consumer.Close()
		}
	}()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Repo.StartOutboxWorker(rootCtx, app.EventPub)
	if app.Consumer != nil {
		app.Consumer.Start(rootCtx)
	}

	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
	}()

	<-rootCtx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("http shutdown failed")
	}

	// Let in-flight calendar dispatches finish before the process exits.
	app.Calendar.Wait()
}

func NewApp(cfg *config.Config, db *sql.DB) *App {
	// 1) Infrastructure
	repo := postgres.New(db)
	regRepo := postgres.NewRegistrationRepo(db)

	var cache *redis.Client
	if cfg.RedisURL != "" {
		c, err := redis.New(cfg.RedisURL)
		if err != nil {
			zlog.Warn().Err(err).Msg("redis unavailable: caching disabled")
		} else {
			cache = c
		}
	}

	var rabbit *rabbitmq.Publisher
	var pub occurrence.EventPublisher = occurrence.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			zlog.Fatal().Err(err).Msg("rabbit publisher init failed")
		}
		rabbit = p
		pub = p
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: domain events will not be published")
	}

	// calendar bridge: disabled unless credentials are configured
	var provider calendar.Provider = calendar.Disabled{}
	if cfg.GoogleCredentialsFile != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		g, err := google.New(ctx, cfg.GoogleCredentialsFile, cfg.GoogleCalendarID)
		if err != nil {
			zlog.Warn().Err(err).Msg("google calendar init failed: sync disabled")
		} else {
			provider = g
			zlog.Info().Str("calendar_id", cfg.GoogleCalendarID).Msg("google calendar sync ready")
		}
	}
	adapter := calendar.NewAdapter(provider, repo, sysClock{}, cfg.CalendarSyncTimeout)

	// 2) Application
	gen := recurrence.NewGenerator(recurrence.DefaultBounds())

	var occCache occurrence.Cache
	var regCache registration.Cache
	if cache != nil {
		occCache = cache
		regCache = cache
	}

	osvc := occurrence.New(repo, gen, sysClock{}, adapter, occCache, cfg.CacheTTLDetails)
	rsvc := registration.New(regRepo, repo, sysClock{}, adapter, regCache, cfg.CacheTTLCounts)

	var consumer *rabbitmq.Consumer
	if cfg.RabbitURL != "" {
		c, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, rsvc)
		if err != nil {
			zlog.Fatal().Err(err).Msg("rabbit consumer init failed")
		}
		consumer = c
	}

	// 3) Transport
	h := handlers.NewOccurrencesHandler(osvc, sysClock{})
	reg := handlers.NewRegistrationsHandler(rsvc)
	auth := authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer)
	z := handlers.NewHealthHandler()

	// 4) Router
	httpHandler := router.New(h, reg, auth, z, cfg)

	// 5) Server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &App{
		Config:    cfg,
		Server:    srv,
		DB:        db,
		Repo:      repo,
		Calendar:  adapter,
		Publisher: rabbit,
		EventPub:  pub,
		Consumer:  consumer,
	}
}
