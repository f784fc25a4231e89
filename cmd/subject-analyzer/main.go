package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/di"
	"github.com/mikey/subject-analyzer/internal/factory"
	"github.com/mikey/subject-analyzer/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	frontends []ports.Frontend,
	analyzer core.AIAnalyzer,
	cacheRepo factory.StoppableCache,
) error {
	defer logger.Sync()

	errCh := make(chan error, len(frontends))
	var wg sync.WaitGroup

	// Start every frontend
	for _, fe := range frontends {
		wg.Add(1)
		go func(fe ports.Frontend) {
			defer wg.Done()
			if err := fe.Start(); err != nil {
				errCh <- fmt.Errorf("%s: %w", fe.Name(), err)
			}
		}(fe)
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		logger.Error("Frontend failed, shutting down", zap.Error(runErr))
	}

	// Stop the frontends
	for _, fe := range frontends {
		if err := fe.Stop(); err != nil {
			logger.Error("Failed to stop frontend", zap.String("frontend", fe.Name()), zap.Error(err))
		}
	}
	wg.Wait()

	// Close any resources that need closing
	if closer, ok := analyzer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close AI client", zap.Error(err))
		}
	}

	cacheRepo.Stop()

	logger.Info("Shutdown complete")
	return runErr
}
