package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/luminebeauty/booking-assistant/cmd/mainconfig"
	"github.com/luminebeauty/booking-assistant/internal/calendar"
	"github.com/luminebeauty/booking-assistant/internal/channels/line"
	"github.com/luminebeauty/booking-assistant/internal/chat"
	appconfig "github.com/luminebeauty/booking-assistant/internal/config"
	"github.com/luminebeauty/booking-assistant/internal/dialogue"
	"github.com/luminebeauty/booking-assistant/internal/extract"
	"github.com/luminebeauty/booking-assistant/internal/history"
	"github.com/luminebeauty/booking-assistant/internal/httpapi"
	"github.com/luminebeauty/booking-assistant/internal/observability/metrics"
	"github.com/luminebeauty/booking-assistant/internal/profile"
	"github.com/luminebeauty/booking-assistant/internal/userlock"
	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	botMetrics := metrics.NewBotMetrics(prometheus.DefaultRegisterer)

	// Shared salon calendar.
	calClient, err := calendar.NewGoogleClient(ctx, cfg.GoogleCredentialsFile, cfg.CalendarID, loc)
	if err != nil {
		logger.Error("failed to init calendar client", "error", err)
		os.Exit(1)
	}
	scheduler := calendar.NewScheduler(
		calClient,
		calendar.Window{
			OpenHour:    cfg.BusinessOpenHour,
			CloseHour:   cfg.BusinessCloseHour,
			SlotMinutes: cfg.SlotMinutes,
		},
		loc,
		logger.Component("calendar"),
		calendar.WithMetrics(botMetrics),
	)

	// Profile store.
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	profiles := profile.NewDynamoStore(dynamoClient, cfg.ProfilesTable, logger.Component("profile"))

	// Free-text fallback assistant.
	gemini, err := chat.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to init gemini client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = gemini.Close() }()
	assistant := chat.NewAssistant(gemini, cfg.GeminiModelID, logger.Component("chat"))

	// Booking history is optional; without a database the profile's
	// lastBooking snapshot is the only record.
	engineOpts := []dialogue.Option{dialogue.WithMetrics(botMetrics)}
	var historyStore *history.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		historyStore = history.NewStore(db)
		engineOpts = append(engineOpts, dialogue.WithHistory(historyStore))
	} else {
		logger.Warn("DATABASE_URL not set, booking history disabled")
	}

	engine := dialogue.NewEngine(
		profiles,
		scheduler,
		extract.New(time.Now),
		assistant,
		dialogue.DefaultCatalog(),
		cfg.SessionGap,
		logger.Component("dialogue"),
		engineOpts...,
	)

	var locker userlock.Locker = userlock.NoopLocker{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = redisClient.Close() }()
		locker = userlock.NewRedisUserLocker(redisClient, cfg.UserLockTTL)
	} else {
		logger.Warn("REDIS_ADDR not set, same-user turn ordering relies on a single worker")
	}

	lineClient := line.NewClient(cfg.LineChannelAccessToken)
	if cfg.LineAPIBaseURL != "" {
		lineClient.SetAPIBase(cfg.LineAPIBaseURL)
	}

	var dispatcher *dialogue.Dispatcher
	if cfg.UseMemoryQueue {
		logger.Info("using in-memory turn queue")
		dispatcher = dialogue.NewDispatcher(
			engine,
			dialogue.NewMemoryQueue(0),
			lineClient,
			locker,
			logger.Component("dispatch"),
			dialogue.WithWorkerCount(cfg.WorkerCount),
		)
	} else {
		sqsClient := sqs.NewFromConfig(awsCfg)
		dispatcher = dialogue.NewDispatcher(
			engine,
			dialogue.NewSQSQueue(sqsClient, cfg.TurnQueueURL),
			lineClient,
			locker,
			logger.Component("dispatch"),
			dialogue.WithWorkerCount(cfg.WorkerCount),
		)
	}

	webhook := line.NewWebhookHandler(cfg.LineChannelSecret, func(msg line.ParsedInboundMessage) {
		enqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := dispatcher.Enqueue(enqCtx, dialogue.Turn{
			UserID:     msg.UserID,
			Text:       msg.Text,
			ReplyToken: msg.ReplyToken,
		})
		if err != nil {
			logger.Error("failed to enqueue turn", "user_id", msg.UserID, "error", err)
		}
	})

	router := httpapi.NewRouter(&httpapi.Config{
		Logger:          logger.Component("http"),
		LineWebhook:     webhook.HandleInbound,
		AdminHandler:    httpapi.NewAdminHandler(profiles, adminBookings(historyStore), logger.Component("admin")),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("dispatcher shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// adminBookings avoids handing the admin API a typed-nil interface when
// history is disabled.
func adminBookings(s *history.Store) httpapi.BookingLister {
	if s == nil {
		return nil
	}
	return s
}
