package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "midway_hotel/internal/adapters/http_server"
	"midway_hotel/internal/adapters/nominatim"
	"midway_hotel/internal/adapters/observability"
	"midway_hotel/internal/adapters/rakuten"
	redisad "midway_hotel/internal/adapters/redis"
	"midway_hotel/internal/app"
	"midway_hotel/internal/domain"
	"midway_hotel/internal/session"
	"midway_hotel/internal/shared"
	"midway_hotel/internal/storage/memory"
	mysqlrepo "midway_hotel/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// search log (optional)
	var searchLog domain.SearchLogRepository
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		defer db.Close()
		log.Info().Msg("database connection ok")
		searchLog = mysqlrepo.New(db)
	}

	// cache + picker store
	var (
		cache  domain.Cache
		picker domain.PickerStore = memory.NewPickerStore(cfg.PickerTTL)
	)
	if cfg.RedisAddr != "" {
		rc := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis ping failed")
		}
		defer rc.Close()
		cache = redisad.NewCache(rc, "midway:")
		if cfg.PickerStore == "redis" {
			picker = redisad.NewPickerStore(rc, cfg.PickerTTL)
		}
	}

	// session
	var jwtv *session.JWTVerifier
	if cfg.JWTSecret != "" {
		jwtv = session.NewJWTVerifier(cfg.JWTSecret, "midway-hotel", time.Hour)
	} else {
		log.Warn().Msg("JWT_SECRET is empty; bearer auth disabled")
	}
	sess := session.New()
	if err := sess.Init(session.NewTokenProvider(jwtv)); err != nil {
		log.Fatal().Err(err).Msg("session init failed")
	}
	defer sess.Teardown()

	// deps
	geo := nominatim.New(cfg.NominatimBase, cfg.NominatimUA, cfg.ExternalRPS, cfg.ExternalTimeout)
	inv := rakuten.New(cfg.RakutenBase, cfg.RakutenAppID, cfg.ExternalRPS, cfg.ExternalTimeout)
	orch := app.NewOrchestrator(app.Deps{
		Geocoder:  geo,
		Inventory: inv,
		Cache:     cache,
		CacheTTL:  cfg.CacheTTL,
		SearchLog: searchLog,
		Session:   sess,
	})
	pickers := app.NewPickerService(geo, picker, cfg.ExternalTimeout)
	q := app.NewQueryService(searchLog, cache, cfg.CacheTTL)

	// http; one request covers two geocodes and the inventory call
	srv := server.New(3*cfg.ExternalTimeout + 5*time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Orch: orch, Picker: pickers, Geo: geo, Q: q, Auth: jwtv})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	pickers.Drain()
	log.Info().Msg("API stopped")
}
