package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/franckalain/wellnesscraft/internal/chat"
	"github.com/franckalain/wellnesscraft/internal/config"
	"github.com/franckalain/wellnesscraft/internal/database"
	"github.com/franckalain/wellnesscraft/internal/logging"
	"github.com/franckalain/wellnesscraft/internal/ml"
	"github.com/franckalain/wellnesscraft/internal/profile"
	"github.com/franckalain/wellnesscraft/internal/server"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger := logging.NewLogger("wellnesscraft", cfg.Server.LogLevel)
	ctx := context.Background()

	// Initialize database
	var store database.Store
	if cfg.Database.Path == ":memory:" {
		store = database.NewMemoryStore()
	} else {
		db, err := database.NewSQLiteDB(cfg.Database.Path, logger)
		if err != nil {
			logger.Error("Failed to open database", "error", err, "path", cfg.Database.Path)
			os.Exit(1)
		}
		store = db
	}
	defer store.Close()

	// Initialize ML service
	generator, err := ml.NewGenerator(ctx, ml.Options{
		Type:       cfg.ML.Type,
		Model:      cfg.ML.Model,
		ConfigPath: cfg.ML.ConfigPath,
	}, logger)
	if err != nil {
		logger.Error("Failed to create generator", "error", err)
		os.Exit(1)
	}
	defer generator.Close()

	// Restore profiles and bind the coach chat to the active one
	repo := profile.NewRepository(store, generator, logger.With("component", "profile"))
	repo.Load(ctx)

	var srv *server.Server
	engine := chat.NewEngine(repo, generator, store, logger.With("component", "chat"), chat.WithNotify(func(v chat.View) {
		srv.NotifyChat(v)
	}))
	srv = server.New(repo, engine, generator, logger.With("component", "server"))
	engine.Bind(ctx, repo.ActiveID())

	// Initialize and start server
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(cfg.Server.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer.RegisterOnShutdown(srv.CloseClients)

	if err := server.Run(ctx, httpServer, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
