package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/client"
	"github.com/yourorg/notification-engine/internal/config"
	"github.com/yourorg/notification-engine/internal/delivery"
	"github.com/yourorg/notification-engine/internal/handler"
	"github.com/yourorg/notification-engine/internal/middleware"
	"github.com/yourorg/notification-engine/internal/repository"
	"github.com/yourorg/notification-engine/internal/scheduler"
	"github.com/yourorg/notification-engine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis client (if enabled)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		// Test Redis connection
		_, err = redisClient.Ping(context.Background()).Result()
		if err != nil {
			logger.Warn("Failed to connect to Redis, running without cache", zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Connected to Redis", zap.String("address", cfg.Redis.URL))
		}
	}

	// Create repositories
	notificationRepo := repository.NewNotificationRepository(db, logger)
	digestRepo := repository.NewDigestRepository(db, logger)
	preferenceRepo := repository.NewPreferenceRepository(db, logger)
	activityRepo := repository.NewActivityRepository(db, logger)
	surveyRepo := repository.NewSurveyRepository(db, logger)

	// Create clients
	mailerClient := client.NewMailerClient(
		cfg.Mailer.URL,
		cfg.Mailer.ServiceKey,
		cfg.Mailer.Timeout,
		cfg.Mailer.MaxRetries,
		logger,
	)

	// Assemble delivery channels. Email alerts are always on; the Kafka
	// event stream only when brokers are configured.
	channels := []delivery.Channel{
		delivery.NewEmailChannel(preferenceRepo, mailerClient, logger),
	}

	var kafkaChannel *delivery.KafkaChannel
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		kafkaChannel = delivery.NewKafkaChannel(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		channels = append(channels, kafkaChannel)
		logger.Info("Initialized Kafka delivery channel",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}
	dispatcher := delivery.NewDispatcher(logger, channels...)

	// Create services
	guard := service.NewDeduplicationGuard(notificationRepo, logger)
	notificationService := service.NewNotificationService(
		notificationRepo,
		guard,
		redisClient,
		cfg.Redis.CacheTTL,
		cfg.Engine.DedupLookback,
		logger,
	)
	sweeperService := service.NewSweeperService(notificationRepo, cfg.Engine.RetentionDays, logger)
	activityScanner := service.NewActivityScanner(
		activityRepo,
		notificationRepo,
		notificationService,
		guard,
		dispatcher,
		cfg.Engine.ScanHorizon,
		cfg.Engine.DedupLookback,
		cfg.Engine.DeliveryRequeryWindow,
		logger,
	)
	surveyScanner := service.NewSurveyScanner(
		surveyRepo,
		notificationRepo,
		notificationService,
		guard,
		dispatcher,
		cfg.Engine.ScanHorizon,
		cfg.Engine.DedupLookback,
		cfg.Engine.DeliveryRequeryWindow,
		logger,
	)
	digestService := service.NewDigestService(
		notificationRepo,
		digestRepo,
		preferenceRepo,
		mailerClient,
		cfg.Engine.DigestWindow,
		cfg.Engine.DigestResendGuard,
		cfg.Engine.DigestMaxItems,
		logger,
	)

	sched := buildScheduler(cfg, logger, activityScanner, surveyScanner, sweeperService, digestService)

	// One-shot mode: run a single job and exit
	if len(os.Args) > 2 && os.Args[1] == "run-job" {
		runJobAndExit(sched, digestService, logger, os.Args[2:])
		return
	}

	// Create HTTP server
	router := setupRouter(cfg, notificationService, digestService, sched, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start scheduled jobs
	schedCtx, stopSched := context.WithCancel(context.Background())
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Start(schedCtx)
	}()

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the schedulers before the HTTP surface so no job outlives the
	// shutdown deadline
	stopSched()
	<-schedDone

	if kafkaChannel != nil {
		kafkaChannel.Close()
	}

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

// buildScheduler registers every periodic job with its cadence. Scanners
// run well inside the dedup lookback so a missed tick never doubles up
// notifications, and the digest ticker matches the window size exactly.
func buildScheduler(
	cfg *config.Config,
	logger *zap.Logger,
	activityScanner *service.ActivityScanner,
	surveyScanner *service.SurveyScanner,
	sweeperService *service.SweeperService,
	digestService *service.DigestService,
) *scheduler.Scheduler {
	sched := scheduler.New(logger)

	sched.Register(scheduler.Job{
		Name:     "scan-activity-deadlines",
		Interval: 15 * time.Minute,
		Run: func(ctx context.Context) error {
			_, err := activityScanner.Scan(ctx, time.Now())
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "scan-survey-deadlines",
		Interval: 15 * time.Minute,
		Run: func(ctx context.Context) error {
			_, err := surveyScanner.Scan(ctx, time.Now())
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "sweep-expired",
		Interval: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			_, err := sweeperService.SweepExpired(ctx, time.Now())
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "sweep-unsnooze",
		Interval: time.Minute,
		Run: func(ctx context.Context) error {
			_, err := sweeperService.SweepUnsnoozed(ctx, time.Now())
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "sweep-retention",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			_, err := sweeperService.SweepRetention(ctx, time.Now())
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "digest-daily",
		Interval: cfg.Engine.DigestWindow,
		Run: func(ctx context.Context) error {
			_, err := digestService.RunDaily(ctx, time.Now(), nil)
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "digest-weekly",
		Interval: cfg.Engine.DigestWindow,
		Run: func(ctx context.Context) error {
			_, err := digestService.RunWeekly(ctx, time.Now(), nil)
			return err
		},
	})

	return sched
}

// runJobAndExit runs one job by name and exits non-zero on failure.
// Usage: engine run-job <name> [user-id]
func runJobAndExit(sched *scheduler.Scheduler, digestService *service.DigestService, logger *zap.Logger, args []string) {
	name := args[0]

	if len(args) > 1 {
		userID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			logger.Fatal("Invalid user ID argument", zap.String("arg", args[1]))
		}

		var runErr error
		switch name {
		case "digest-daily":
			_, runErr = digestService.RunDaily(context.Background(), time.Now(), &userID)
		case "digest-weekly":
			_, runErr = digestService.RunWeekly(context.Background(), time.Now(), &userID)
		default:
			logger.Fatal("User argument is only supported for digest jobs", zap.String("job", name))
		}
		if runErr != nil {
			logger.Fatal("Job failed", zap.Error(runErr), zap.String("job", name))
		}
		return
	}

	if err := sched.RunJob(context.Background(), name); err != nil {
		logger.Error("Job failed", zap.Error(err), zap.String("job", name))
		os.Exit(1)
	}
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func connectToDB(dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName,
		dbConfig.SSLMode,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}

func setupRouter(
	cfg *config.Config,
	notificationService *service.NotificationService,
	digestService *service.DigestService,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		// ==================== NOTIFICATION ROUTES ====================
		notifications := v1.Group("/users/me/notifications")
		{
			notifications.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, logger))

			notifHandler := handler.NewNotificationHandler(notificationService, logger)

			notifications.GET("", notifHandler.GetNotifications)
			notifications.GET("/count", notifHandler.GetUnreadCount)
			notifications.PUT("/read-all", notifHandler.MarkAllAsRead)
			notifications.PUT("/:id/read", notifHandler.MarkAsRead)
			notifications.PUT("/:id/snooze", notifHandler.Snooze)
			notifications.PUT("/:id/dismiss", notifHandler.Dismiss)
			notifications.PUT("/:id/resolve", notifHandler.Resolve)
		}

		// ==================== SERVICE API ====================
		svc := v1.Group("/service")
		{
			// Protected with service key
			svc.Use(middleware.ServiceAuthMiddleware(cfg.Server.ServiceKey, logger))

			jobHandler := handler.NewJobHandler(sched, digestService, logger)

			svc.GET("/jobs", jobHandler.ListJobs)
			svc.POST("/jobs/:name/run", jobHandler.RunJob)
		}
	}

	return router
}
