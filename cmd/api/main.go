package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"sistema_hotel/internal/adapters/auth"
	"sistema_hotel/internal/adapters/gateway"
	server "sistema_hotel/internal/adapters/http_server"
	"sistema_hotel/internal/adapters/notify"
	"sistema_hotel/internal/adapters/observability"
	redisad "sistema_hotel/internal/adapters/redis"
	"sistema_hotel/internal/app"
	"sistema_hotel/internal/domain"
	"sistema_hotel/internal/shared"
	mysqlrepo "sistema_hotel/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	tokens := auth.New(cfg.JWTSecret, 0)

	var gw domain.PaymentGateway
	if cfg.GatewayBase != "" {
		gw, err = gateway.New(cfg.GatewayBase, cfg.GatewayKey, cfg.GatewayRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize payment gateway client")
		}
	} else {
		log.Warn().Msg("GATEWAY_BASE_URL not set; using payment simulator")
		gw = gateway.NewSimulator()
	}

	mailer := notify.New(cfg.NotifyWorkers)
	defer mailer.Close()

	bookings := app.NewBookingService(repo, cache, cfg.CacheTTL)
	payments := app.NewPaymentService(repo, bookings, gw, mailer)
	hotels := app.NewHotelService(repo, repo, cache, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Bookings: bookings,
		Payments: payments,
		Hotels:   hotels,
		Tokens:   tokens,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
