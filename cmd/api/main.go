package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	server "lobby_lobster/internal/adapters/http_server"
	"lobby_lobster/internal/adapters/observability"
	redisad "lobby_lobster/internal/adapters/redis"
	"lobby_lobster/internal/app"
	"lobby_lobster/internal/domain"
	"lobby_lobster/internal/shared"
	"lobby_lobster/internal/storage/memory"
	mysqlrepo "lobby_lobster/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// store
	var store domain.Store
	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("using in-memory store, data is lost on exit")
		store = memory.New()
	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		db.SetMaxOpenConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		store = mysqlrepo.New(db)
	}

	// room cache is optional
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, room cache disabled")
		} else {
			cache = rc
		}
	}

	// deps
	rooms := app.NewRoomService(store, cache, cfg.CacheTTL)
	reservations := app.NewReservationService(store)
	guests := app.NewGuestService(store)
	invoices := app.NewInvoiceService(reservations, rooms)

	// http
	srv := server.New(server.Options{
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		CORSOrigin:     cfg.CORSOrigin,
	})
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Rooms:        rooms,
		Reservations: reservations,
		Guests:       guests,
		Invoices:     invoices,
	})

	servers := []*http.Server{{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}}
	if ms := observability.NewMetricsServer(cfg.MetricsAddr, reg); ms != nil {
		servers = append(servers, ms)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, hs := range servers {
		hs := hs
		g.Go(func() error {
			log.Info().Str("addr", hs.Addr).Str("store", cfg.StoreDriver).Msg("listening")
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	// either a signal or a failed listener stops every server
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, hs := range servers {
			if err := hs.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Str("addr", hs.Addr).Msg("graceful shutdown failed")
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
