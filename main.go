package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gosobol/adapters/report"
	"gosobol/internal"
	"gosobol/internal/config"
	"gosobol/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLoggerTo(os.Stderr, internal.ParseLogLevel(appConfig.Runtime.LogLevel))

	// Create dependency injection container
	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := appContainer.Run(ctx)
	if err != nil {
		logger.Error("Run failed: %v", err)
		appContainer.Shutdown(context.Background())
		os.Exit(1)
	}

	fmt.Print(report.RenderTerminal(result.Report))
}
