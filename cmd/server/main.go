package main

import (
	"log"

	"orderlyflow/internal/config"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Failed to create logger: %v", err)
	}
	defer appLog.Close()

	s, err := server.Init(cfg, appLog)
	if err != nil {
		appLog.Fatalf("❌ Server initialization failed: %v", err)
	}

	if err := s.Run(); err != nil {
		appLog.Fatalf("%v", err)
	}
}
