package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/cache"
	"github.com/Nixie-Tech-LLC/kiriha/internal/config"
	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api"
	"github.com/Nixie-Tech-LLC/kiriha/internal/nfc"
	"github.com/Nixie-Tech-LLC/kiriha/internal/redis"
	"github.com/Nixie-Tech-LLC/kiriha/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	defer conn.Close()

	if err := db.RunMigrations(conn, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := db.NewStore(conn)

	queryCache, err := initCache(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.CacheBackend).Msg("cache init")
	}

	files := InitStorage(cfg)

	services := Services{
		Rooms:    service.NewRooms(store, queryCache),
		Subjects: service.NewSubjects(store, queryCache),
		Users:    service.NewUsers(store, queryCache, files),
		Classes:  service.NewClasses(store, queryCache, cfg.Location),
	}

	if cfg.AdminEmail != "" {
		if err := services.Users.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to create bootstrap admin")
		}
	}

	feed := nfc.NewFeed(nfc.DefaultBuffer)
	defer feed.Close()

	var emitter nfc.Emitter = feed
	if cfg.MQTTBrokerURL != "" {
		bridge := nfc.NewBridge(nfc.BridgeConfig{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Topic:     cfg.MQTTScanTopic,
		}, feed)
		if err := bridge.Start(ctx); err != nil {
			log.Fatal().Err(err).Str("broker", cfg.MQTTBrokerURL).Msg("mqtt connect")
		}
		defer bridge.Close()
		emitter = bridge
	} else {
		log.Info().Msg("no MQTT broker configured, scans stay in-process")
	}

	recorder := service.NewRecorder(store, queryCache, cfg.AttendanceGrace, cfg.Location)
	go recorder.Run(ctx, feed.Subscribe(ctx))

	if err := api.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg, store, services, emitter, feed)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// initCache picks the query cache backend. Redis lets several server
// instances share entries and invalidations.
func initCache(ctx context.Context, cfg *config.Config) (*cache.Cache, error) {
	if cfg.CacheBackend == config.CacheRedis {
		client, err := redis.NewClient(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		log.Info().Str("address", cfg.RedisAddress).Msg("using redis query cache")
		return cache.New(cache.NewRedisStore(client, "kiriha:"), cfg.CacheTTL), nil
	}

	memory, err := cache.NewMemoryStore(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	log.Info().Int("size", cfg.CacheSize).Msg("using in-memory query cache")
	return cache.New(memory, cfg.CacheTTL), nil
}
