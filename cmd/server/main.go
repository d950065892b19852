package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"parkslot/internal/api"
	"parkslot/internal/config"
	"parkslot/internal/lock"
	"parkslot/internal/metrics"
	"parkslot/internal/middleware"
	"parkslot/internal/repository"
	"parkslot/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}
	metrics.Init(nil)

	ctx := context.Background()

	var repo repository.LedgerRepository
	switch cfg.LedgerStore {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open DB: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		repo, err = repository.NewPostgresLedgerRepository(ctx, db)
		if err != nil {
			log.Fatalf("Failed to prepare ledger table: %v", err)
		}
	default:
		repo = repository.NewFileLedgerRepository(cfg.LedgerFile)
	}

	var locker lock.Locker
	switch cfg.LockBackend {
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		locker = lock.NewRedisLocker(client, cfg.LockTTL)
	default:
		locker = lock.NewMemoryLocker()
	}

	sender := service.NewSenderService(cfg.SendGrid, cfg.Twilio)
	parking := service.NewParkingService(repo, locker,
		service.WithLocation(loc),
		service.WithNotifier(sender),
		service.WithLockHoldTimeout(cfg.LockHoldTimeout()),
	)

	// Load once at startup so a missing ledger file is created before traffic arrives.
	if occupancy, err := parking.Occupancy(ctx); err != nil {
		log.Fatalf("Failed to load parking ledger: %v", err)
	} else {
		metrics.SetOccupancy(occupancy)
	}

	jobs := service.NewJobService(parking)
	scheduler, err := jobs.Schedule(cfg.OccupancyReportSchedule, loc)
	if err != nil {
		log.Fatalf("Invalid OCCUPANCY_REPORT_SCHEDULE: %v", err)
	}
	if scheduler != nil {
		scheduler.Start()
		log.Printf("Occupancy report scheduled: %s", cfg.OccupancyReportSchedule)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	router := api.NewRouter(api.NewParkingHandler(parking), limiter)

	// recovery → CORS → access log → router
	handler := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CORS(
			handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(handlers.CombinedLoggingHandler(os.Stdout, router)),
	)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	sender.Wait()
	log.Println("Server stopped cleanly")
}
