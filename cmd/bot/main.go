package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"coach_digital_bot/internal/app"
	"coach_digital_bot/internal/infra/cache"
	"coach_digital_bot/internal/infra/config"
	idb "coach_digital_bot/internal/infra/database"
	"coach_digital_bot/internal/infra/logger"
	"coach_digital_bot/internal/infra/scheduler"
	"coach_digital_bot/internal/infra/telegram"
)

// chatStore keeps chat states and answers which chats a coach uses.
type chatStore interface {
	app.StateStore
	app.ChatDirectory
}

func main() {
	fmt.Println("Coach Digital Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.For("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, idb.Pool{
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	if cfg.MigrateOnStart {
		if err := idb.RunMigrations(db); err != nil {
			mainLogger.WithError(err).Fatal("Could not apply database migrations")
		}
		mainLogger.Info("Database migrations applied.")
	}

	// Initialize Repositories
	coachRepo := idb.NewPostgresCoachRepository(db)
	schoolRepo := idb.NewPostgresSchoolRepository(db)
	imageRepo := idb.NewPostgresImageRepository(db)
	teacherRepo := idb.NewPostgresTeacherRepository(db)
	sessionRepo := idb.NewPostgresSessionRepository(db)
	mainLogger.Info("Repositories initialized.")

	// Initialize Services
	validator := app.NewValidator()
	services := app.NavigatorServices{
		Coaches:  app.NewCoachService(coachRepo, validator, logger.For("coach_service")),
		Schools:  app.NewSchoolService(schoolRepo, validator, cfg.SearchLimit, logger.For("school_service")),
		Images:   app.NewImageService(imageRepo, logger.For("image_service")),
		Auth:     app.NewAuthService(coachRepo, validator, logger.For("auth_service")),
		Teachers: app.NewTeacherService(teacherRepo, imageRepo, logger.For("teacher_service")),
		Sessions: app.NewObservationService(sessionRepo, logger.For("observation_service")),
	}
	mainLogger.Info("Services initialized.")

	// Chat state store: Redis when configured, memory otherwise
	var store chatStore
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to Redis")
		}
		defer rdb.Close()
		store = cache.NewRedisStateStore(rdb, cfg.SessionTTL)
		mainLogger.Info("Chat states are kept in Redis.")
	} else {
		store = app.NewMemoryStateStore()
		mainLogger.Warn("REDIS_URL is not set, chat states are kept in memory and lost on restart.")
	}

	navigator := app.NewNavigator(store, services, logger.For("navigator"))

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:     cfg.TelegramToken,
		Poller:    &telebot.LongPoller{Timeout: 10 * time.Second},
		ParseMode: telebot.ModeHTML,
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.For("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
					"text":      c.Text(),
				})
			}
			entry.Error("Telegram handler failed")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	messenger := telegram.NewBotMessenger(bot)

	// Initialize Scheduler
	reminders := app.NewReminderService(services.Sessions, store, messenger, cfg.PendingReminderAfter, logger.For("reminder_service"))
	jobs := scheduler.NewScheduler(
		reminders,
		store,
		logger.Get().WithField("service", "scheduler"),
		cfg.SessionTTL,
		cfg.CronSpecPendingReminder,
		cfg.CronSpecSessionSweep,
	)
	if err := jobs.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start scheduler")
	}

	// Register Handlers
	debouncer := app.NewDebouncer(cfg.SearchDebounce)
	screens := telegram.NewScreens(navigator, services.Teachers, services.Sessions, logger.For("telegram"))
	handlers := telegram.NewHandlers(ctx, navigator, screens, messenger, debouncer, logger.For("telegram"))
	handlers.Register(bot)
	mainLogger.Info("Telegram handlers registered.")

	mainLogger.Info("Application setup complete. Bot and Scheduler are starting...")

	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	debouncer.Stop()
	jobs.Stop()
	cancel()
	mainLogger.Info("Application shut down gracefully.")
}
