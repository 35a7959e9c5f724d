package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vega6/storefront/app/api"
	"github.com/vega6/storefront/app/auth"
	"github.com/vega6/storefront/app/catalog"
	"github.com/vega6/storefront/app/orders"
	"github.com/vega6/storefront/config"
	"github.com/vega6/storefront/database"
	"github.com/vega6/storefront/models"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	maker := auth.NewTokenMaker(cfg.JWTSecret)
	mailer := auth.NewSMTPMailer(cfg.SenderName, cfg.SMTPAddress, cfg.SMTPPass, cfg.SMTPHost, cfg.SMTPPort)
	otpStore := auth.NewRedisOTPStore(rdb)

	users := models.NewUsersRepository(db)
	products := models.NewProductsRepository(db)
	orderRepo := models.NewOrdersRepository(db)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(api.RequestLogger(logger))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Server is running",
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, api.NotFound("Route not found"))
	})

	auth.NewHandler(users, maker, otpStore, mailer, logger).Register(r)
	catalog.NewHandler(products, maker).Register(r)
	orders.NewHandler(
		orders.NewService(products, orderRepo),
		orders.NewHTTPRateProvider(),
		maker,
	).Register(r)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
