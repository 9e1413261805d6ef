package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"invoiceqa/cmd"
	"invoiceqa/internal/config"
	"invoiceqa/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Configure logging; commands report configuration errors themselves
	cfg, err := config.Load()
	if err != nil {
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting invoiceqa")

	cmd.Execute()

	log.Debug().Msg("invoiceqa shutdown")
	os.Exit(0)
}
