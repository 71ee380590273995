package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pharmavoice/config"
	"pharmavoice/cron"
	"pharmavoice/database"
	bookingRepo "pharmavoice/database/repository/booking"
	calllogRepo "pharmavoice/database/repository/calllog"
	sessionRepo "pharmavoice/database/repository/session"
	"pharmavoice/handlers"
	"pharmavoice/middleware"
	"pharmavoice/routes"
	"pharmavoice/services/dialog"
	"pharmavoice/services/intelligence"
	"pharmavoice/services/places"
	"pharmavoice/services/speech"
	"pharmavoice/services/telephony"
	"pharmavoice/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitAnalyticsCache()

	// Repositories.
	sessions := sessionRepo.NewMongoSessionRepo()
	bookings := bookingRepo.NewMongoBookingRepo()
	logs := calllogRepo.NewMongoCallLogRepo()

	// Collaborators.
	completer, err := intelligence.NewGeminiCompleter(context.Background(), config.AppConfig.GeminiAPIKey)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize completion client: %v", err)
	}
	finder := places.NewService(config.AppConfig.GoogleAPIKey, utils.GetCacheClient(), logger)

	var audioStore speech.AudioStore
	if config.AppConfig.AudioStore == "cloudinary" {
		audioStore, err = speech.NewCloudinaryStore(
			config.AppConfig.CloudinaryCloudName,
			config.AppConfig.CloudinaryAPIKey,
			config.AppConfig.CloudinaryAPISecret,
		)
	} else {
		audioStore, err = speech.NewLocalStore(config.AppConfig.StaticDir, config.AppConfig.BaseURL)
	}
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize audio store: %v", err)
	}
	synth := speech.NewElevenLabsSynthesizer(config.AppConfig.ElevenLabsAPIKey, config.AppConfig.ElevenLabsVoiceID)
	speechSvc := speech.NewService(synth, audioStore, logger)

	// Dialogue core.
	classifier := dialog.NewKeywordClassifier()
	engine := dialog.NewEngine(classifier, bookings, completer, finder, logger)
	prompter := telephony.NewPrompter(strings.TrimRight(config.AppConfig.BaseURL, "/") + "/voice/recording")

	// Background worker.
	tasks := cron.NewTaskClient(logger)
	defer tasks.Close()
	cron.InitWorker(&cron.Worker{
		Sessions:  sessions,
		Bookings:  bookings,
		Logs:      logs,
		Analytics: utils.GetAnalyticsClient(),
		Logger:    logger,
	})

	voiceHandler := handlers.NewVoiceHandler(sessions, logs, classifier, engine, speechSvc, prompter, tasks, logger)
	analyticsHandler := handlers.NewAnalyticsHandler(sessions, bookings, logs, utils.GetAnalyticsClient(), logger)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(routes.CORSConfig())

	routes.RegisterVoiceRoutes(router, voiceHandler)
	routes.RegisterAnalyticsRoutes(router, analyticsHandler)
	routes.RegisterStaticRoutes(router)
	routes.RegisterHealthRoute(router)

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetAnalyticsClient()},
		database.MongoClient,
	)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("forced shutdown: %v", err)
	}
}
