package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/carebook/booking-api/internal/config"
	"github.com/carebook/booking-api/internal/email"
	"github.com/carebook/booking-api/internal/handler"
	adminHandler "github.com/carebook/booking-api/internal/handler/admin"
	appointmentHandler "github.com/carebook/booking-api/internal/handler/appointment"
	authHandler "github.com/carebook/booking-api/internal/handler/auth"
	doctorHandler "github.com/carebook/booking-api/internal/handler/doctor"
	"github.com/carebook/booking-api/internal/middleware"
	"github.com/carebook/booking-api/internal/repository/postgres"
	"github.com/carebook/booking-api/internal/repository/redisrepo"
	"github.com/carebook/booking-api/internal/router"
	appointmentService "github.com/carebook/booking-api/internal/service/appointment"
	authService "github.com/carebook/booking-api/internal/service/auth"
	doctorService "github.com/carebook/booking-api/internal/service/doctor"
	userService "github.com/carebook/booking-api/internal/service/user"
	"github.com/carebook/booking-api/pkg/auth"
	"github.com/carebook/booking-api/pkg/security"
)

const doctorDirectoryCacheTTL = 5 * time.Minute

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redisrepo.NewClient(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	tokenRepo := redisrepo.NewTokenRepository(redisClient)

	// Notifier falls back to a no-op when SMTP is not configured
	var notifier email.Notifier = email.NoopNotifier{}
	if cfg.SMTP.Host != "" {
		notifier = email.NewSMTPNotifier(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, userRepo)
	}

	// Services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	authSvc := authService.NewService(userRepo, tokenRepo, jwtSvc, hasher, log.Logger)
	doctorSvc := doctorService.NewService(userRepo, doctorDirectoryCacheTTL)
	userSvc := userService.NewService(userRepo, log.Logger)
	appointmentSvc := appointmentService.NewService(appointmentRepo, userRepo, notifier, log.Logger)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	h := handler.NewHandler()
	authH := authHandler.NewHandler(authSvc)
	doctorH := doctorHandler.NewHandler(doctorSvc)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc)
	adminH := adminHandler.NewHandler(userSvc, appointmentSvc)

	r := router.NewRouter(authMiddleware, authH, doctorH, appointmentH, adminH, h, router.Config{
		RateLimit: middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		},
		CORS: middleware.DefaultCORSConfig(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
