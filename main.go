package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/config"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/database"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/posclient"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/realtime"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/refilltimer"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/router"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/services"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/storage"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/telemetry"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg.Log.Level, cfg.Log.Format)
	utils.ExposeErrors = cfg.Server.ExposeErrors
	jwtTTL := time.Duration(cfg.JWT.ExpirationHours) * time.Hour
	if err := utils.ConfigureJWT(cfg.JWT.Secret, jwtTTL, cfg.JWT.Issuer, cfg.Server.GinMode == gin.ReleaseMode); err != nil {
		utils.ErrorLogger.Fatalf("Invalid JWT configuration: %v", err)
	}

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTelemetry := telemetry.Setup(cfg.Telemetry.ServiceName)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.Seed(context.Background(), db, database.SeedOptions{
		Tables:        cfg.Seed.Tables,
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
	}); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed database: %v", err)
	}

	hub := realtime.NewHub()
	publishers := realtime.MultiPublisher{hub}
	if cfg.NATS.URL != "" {
		natsPub, err := realtime.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			utils.ErrorLogger.WithError(err).Warn("NATS unavailable, realtime events stay local")
		} else {
			defer natsPub.Close()
			publishers = append(publishers, natsPub)
			utils.InfoLogger.WithField("url", cfg.NATS.URL).Info("Mirroring realtime events to NATS")
		}
	}

	opts := router.Options{
		Publisher:          publishers,
		Hub:                hub,
		ProofPrefix:        cfg.Storage.Prefix,
		CORSOrigins:        cfg.Server.CorsAllowedOrigins,
		RateLimitPerSecond: cfg.Server.RateLimitPerSecond,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
		HSTS:               cfg.Server.GinMode == gin.ReleaseMode,
		Reservation: services.ReservationOptions{
			StrictTableLookup: cfg.Reservation.StrictTableLookup,
			FallbackTableID:   cfg.Reservation.FallbackTableID,
		},
		TimerOptions: refilltimer.Options{
			DefaultDuration: cfg.Refill.DefaultDuration,
			MinDuration:     cfg.Refill.MinDuration,
			ExpiryDelay:     cfg.Refill.ExpiryDelay,
			TickInterval:    time.Second,
		},
	}

	// Countdown refill disimpan di Redis jika tersedia, supaya restart tidak menghapusnya
	if cfg.Redis.Addr != "" {
		client, err := refilltimer.ConnectRedis(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			utils.ErrorLogger.WithError(err).Warn("Redis unavailable, refill countdowns kept in memory")
		} else {
			defer client.Close()
			opts.TimerStore = refilltimer.NewRedisStore(client)
		}
	}

	if cfg.POS.BaseURL != "" {
		opts.TimerRemote = posclient.New(cfg.POS.BaseURL, posclient.WithAPIKey(cfg.POS.APIKey))
	}

	if cfg.Storage.Bucket != "" {
		proofStore, err := storage.NewS3ProofStore(context.Background(), storage.S3Config{
			Endpoint:      cfg.Storage.Endpoint,
			Region:        cfg.Storage.Region,
			Bucket:        cfg.Storage.Bucket,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			utils.ErrorLogger.WithError(err).Warn("Payment proof storage unavailable")
		} else {
			opts.ProofStore = proofStore
		}
	}

	deps := router.NewDependencies(db, opts)
	if err := deps.Timers.Resume(context.Background()); err != nil {
		utils.ErrorLogger.WithError(err).Warn("Failed to resume refill countdowns")
	}
	defer deps.Timers.Stop()

	r := router.SetupRouter(deps)
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           otelhttp.NewHandler(r, cfg.Telemetry.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	utils.InfoLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("shutdown error: %v", err)
	}
}
