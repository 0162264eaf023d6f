package main

import (
	"net/http"

	"inkpad/config"
	"inkpad/config/database"
	"inkpad/internal/document/repository"
	"inkpad/pkg/logger"
	"inkpad/router"
	"inkpad/socket"

	"github.com/joho/godotenv"
)

func main() {
	loadErr := godotenv.Load()

	logger.Init()
	defer logger.Sync()

	if loadErr != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		logger.Sugar.Fatal("JWT_SECRET environment variable not set")
	}

	db := database.Connect(cfg.DSN())
	defer db.Close()

	repo := repository.NewDocumentRepository(db)

	hub := socket.NewHub(repo)
	go hub.Run()

	handler := router.Setup(repo, hub, []byte(cfg.JWTSecret))

	logger.Sugar.Infof("Listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		logger.Sugar.Fatalf("Server exited: %v", err)
	}
}
