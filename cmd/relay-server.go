package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kayz/tokenbrush/internal/logger"
	"github.com/kayz/tokenbrush/internal/relayserver"
	"github.com/spf13/cobra"
)

var (
	relayServerPort int
)

var relayServerCmd = &cobra.Command{
	Use:   "relay-server",
	Short: "Start the same-origin image relay server",
	Long: `Start the image relay server.

The relay fetches a generated image URL server-side and streams the bytes
back with a permissive cross-origin header, so a browser-hosted client can
read image data that its own origin policy would otherwise block.

Endpoints:
  GET /relay?u=<base64url(url)>&f=<filename>
  GET /health`,
	Run: runRelayServer,
}

func init() {
	rootCmd.AddCommand(relayServerCmd)
	relayServerCmd.Flags().IntVar(&relayServerPort, "port", 8787, "Server port")
}

func runRelayServer(cmd *cobra.Command, args []string) {
	addr := fmt.Sprintf(":%d", relayServerPort)
	server := &http.Server{
		Addr:    addr,
		Handler: relayserver.New().Handler(),
	}

	go func() {
		logger.Infof("Relay server starting on %s", addr)
		logger.Infof("Relay endpoint: http://localhost%s/relay", addr)
		logger.Infof("Health check: http://localhost%s/health", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server shutdown error: %v", err)
	}
	logger.Infof("Server stopped")
}
