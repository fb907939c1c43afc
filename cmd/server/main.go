package main

import (
	"log"

	"go.uber.org/zap"

	"timesolver/internal/config"
	"timesolver/internal/logging"
	"timesolver/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer logger.Sync()

	if err := server.Run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
