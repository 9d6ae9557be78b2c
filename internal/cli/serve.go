package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmshift/vmshift/internal/api"
	appmigrate "github.com/vmshift/vmshift/internal/app/migrate"
	"github.com/vmshift/vmshift/internal/cli/ui"
)

var (
	serveAddr      string
	serveStateFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the migration status API",
	Long: `Start a read-only HTTP API over the recorded migration runs.

Endpoints:
  GET /health          Service liveness
  GET /api/runs        All runs, newest first
  GET /api/runs/{id}   One run with its full pipeline context

Examples:
  vmshift serve                        # Listen on 127.0.0.1:8080
  vmshift serve --addr 0.0.0.0:9000    # Listen on all interfaces`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "address to listen on")
	serveCmd.Flags().StringVar(&serveStateFile, "state-file", "", "run state file (default is $HOME/.vmshift/runs.json)")
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := appmigrate.NewRunStore(serveStateFile)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Config{
		Addr:    serveAddr,
		Verbose: IsVerbose(),
	}, store)

	if !IsQuiet() {
		ui.Header("vmshift Status API")
		ui.Info(fmt.Sprintf("Serving runs from %s", store.FilePath()))
		ui.Info(fmt.Sprintf("Listening on http://%s", serveAddr))
		ui.Success("Server started. Press Ctrl+C to stop.")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
