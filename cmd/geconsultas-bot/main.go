package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/salonso/geconsultas-bot/internal/bot"
	"github.com/salonso/geconsultas-bot/internal/config"
	"github.com/salonso/geconsultas-bot/internal/domain"
	"github.com/salonso/geconsultas-bot/internal/repository/sqlite"
	"github.com/salonso/geconsultas-bot/internal/session"
	"github.com/salonso/geconsultas-bot/internal/sink"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logrus.Infof("Database initialized at: %s", cfg.DatabasePath)

	// Initialize repositories
	catalogRepo := sqlite.NewCatalogRepository(db)
	registryRepo := sqlite.NewRegistryRepository(db)

	// Initialize record sink and start the drain cycle
	registrySink := sink.New(registryRepo, catalogRepo, cfg.DrainInterval)
	registrySink.Start()
	defer registrySink.Stop()

	// Initialize session router
	router := session.NewRouter(session.Config{
		SecretHash: cfg.AuthSecretHash,
		Courses:    domain.DataSourceFunc(catalogRepo.CourseNames),
		Members:    domain.DataSourceFunc(catalogRepo.MemberNames),
		Sink:       registrySink,
		PageLength: cfg.PageLength,
		Location:   cfg.Location,
	})

	// Initialize bot
	telegramBot, err := bot.New(cfg.TelegramToken, router)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize bot")
	}

	// Handle graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start bot in goroutine
	go func() {
		logrus.Info("Bot started. Press Ctrl+C to stop.")
		if err := telegramBot.Start(); err != nil {
			logrus.WithError(err).Fatal("Bot stopped with error")
		}
	}()

	// Wait for stop signal
	<-stop
	logrus.Info("Shutting down gracefully...")
	telegramBot.Stop()
}
