package main

import (
	"os"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/genai"
	"github.com/anjiri1684/english_practice/jobs"
	"github.com/anjiri1684/english_practice/middleware"
	"github.com/anjiri1684/english_practice/notifications"
	"github.com/anjiri1684/english_practice/payments"
	"github.com/anjiri1684/english_practice/routes"
	"github.com/anjiri1684/english_practice/services"
	log "github.com/sirupsen/logrus"
)

func setupLogging(s *config.Settings) {
	log.SetOutput(os.Stdout)
	if s.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Invalid configuration: %v", err)
	}
	config.App = settings
	setupLogging(settings)

	if err := database.ConnectDB(settings.DatabaseURL); err != nil {
		log.Fatalf("🔥 %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("🔥 %v", err)
	}
	if err := database.SeedAdmin(settings); err != nil {
		log.WithError(err).Error("🔥 Failed to seed admin")
	}
	if err := database.SeedTokenPacks(); err != nil {
		log.WithError(err).Error("🔥 Failed to seed token packs")
	}

	notifications.InitEmailService(settings)
	payments.Init(settings)
	genai.Init(settings)
	services.InitStorage(settings)

	limiter := middleware.NewRateLimiter(settings.GenerationRatePerMinute, settings.GenerationBurst)

	scheduler, err := jobs.Schedule(limiter)
	if err != nil {
		log.Fatalf("🔥 Failed to schedule jobs: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Info("✅ Cron jobs scheduled successfully.")

	app := routes.NewApp(limiter, settings.FrontendURL)

	log.Infof("✅ Server is running on port %s", settings.Port)
	if err := app.Listen(":" + settings.Port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
