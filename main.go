package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agropulse/internal/api"
	"agropulse/internal/bootstrap"
	"agropulse/internal/config"
	"agropulse/internal/database"
	"agropulse/internal/jobs"
	"agropulse/internal/services/community"
	"agropulse/internal/services/history"
	"agropulse/internal/services/papers"
	"agropulse/internal/services/weather"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	closeLog, err := bootstrap.Logging(cfg.LogFile)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Model artifacts are required; a mismatched pair must not serve.
	advisor, modelInfo, err := bootstrap.Advisor(ctx, cfg, bootstrap.Researcher(cfg))
	if err != nil {
		log.Fatal("Failed to load crop model: ", err)
	}

	table, err := bootstrap.MarketTable(cfg)
	if err != nil {
		log.Fatal("Failed to load market data: ", err)
	}
	marketOpts, err := bootstrap.MarketOptions(cfg)
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer database.Close(db)

	store, err := bootstrap.BlobStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open paper storage: ", err)
	}

	err = jobs.StartMarketReports(ctx, cfg.ReportSchedule, &jobs.MarketReport{
		Table:   table,
		Dir:     cfg.ReportDir,
		Options: marketOpts,
	})
	if err != nil {
		log.Fatal(err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Services{
		Advisor:    advisor,
		ModelInfo:  modelInfo,
		History:    history.NewStore(db),
		Market:     table,
		MarketOpts: marketOpts,
		Weather: weather.NewClient(weather.Config{
			ForecastURL: cfg.ForecastURL,
			GeocodeURL:  cfg.GeocodeURL,
			Timezone:    cfg.WeatherTimezone,
		}),
		Papers:     papers.NewService(db, store, nil, cfg.MaxUploadBytes()),
		Community:  community.NewService(db),
		AdminToken: cfg.AdminToken,
		LogFile:    cfg.LogFile,
	})
	if cfg.AdminToken == "" {
		log.Println("ADMIN_TOKEN not set; admin routes are disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}
