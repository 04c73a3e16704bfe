package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/modelshelf/modelshelf/cmd"
	"github.com/modelshelf/modelshelf/pkg/environment"
	"github.com/modelshelf/modelshelf/pkg/logging"
)

func main() {
	// Initialize filesystem and context
	fs := afero.NewOsFs()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.GetLogger()

	env, err := setupEnvironment(fs)
	if err != nil {
		logger.Error("Failed to set up environment", "error", err)
		os.Exit(1)
	}

	setupSignalHandler(cancel, logger)

	rootCmd := cmd.NewRootCommand(ctx, fs, env, logger)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setupEnvironment initializes the environment using the filesystem.
func setupEnvironment(fs afero.Fs) (*environment.Environment, error) {
	environ, err := environment.NewEnvironment(fs, nil)
	if err != nil {
		return nil, err
	}
	return environ, nil
}

// setupSignalHandler cancels the root context on SIGINT or SIGTERM so the
// server can shut down gracefully. A second signal exits immediately.
func setupSignalHandler(cancelFunc context.CancelFunc, logger *logging.Logger) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		logger.Debug("received signal, initiating shutdown", "signal", sig)
		cancelFunc()

		<-sigs
		os.Exit(1)
	}()
}
