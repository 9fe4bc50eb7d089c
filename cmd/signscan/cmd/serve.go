package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roadwatch-ai/signscan/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server for traffic sign detection",
	Long: `Start an HTTP server exposing detection over a REST API.

Endpoints:
  GET  /health   server health check
  GET  /models   available model variants and class labels
  POST /detect   multipart image upload, returns detections
  GET  /metrics  Prometheus metrics

Examples:
  signscan serve
  signscan serve --host 0.0.0.0 --port 9000
  signscan serve --compact --score-mode hier2`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		flags := cmd.Flags()

		host := cfg.Server.Host
		if flags.Changed("host") {
			host, _ = flags.GetString("host")
		}
		port := cfg.Server.Port
		if flags.Changed("port") {
			port, _ = flags.GetInt("port")
		}
		corsOrigin := cfg.Server.CORSOrigin
		if flags.Changed("cors-origin") {
			corsOrigin, _ = flags.GetString("cors-origin")
		}
		maxUploadMB := cfg.Server.MaxUploadMB
		if flags.Changed("max-upload-size") {
			maxUploadMB, _ = flags.GetInt("max-upload-size")
		}
		timeoutSec := cfg.Server.TimeoutSec
		if flags.Changed("timeout") {
			timeoutSec, _ = flags.GetInt("timeout")
		}
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if flags.Changed("shutdown-timeout") {
			shutdownTimeout, _ = flags.GetInt("shutdown-timeout")
		}
		overlayEnabled := cfg.Server.OverlayEnabled
		if flags.Changed("overlay") {
			overlayEnabled, _ = flags.GetBool("overlay")
		}

		if flags.Changed("compact") {
			cfg.Pipeline.Detector.CompactModel, _ = flags.GetBool("compact")
		}
		if flags.Changed("model") {
			cfg.Pipeline.Detector.ModelPath, _ = flags.GetString("model")
		}
		if flags.Changed("score-mode") {
			cfg.Pipeline.Decode.ScoreMode, _ = flags.GetString("score-mode")
		}
		if flags.Changed("confidence") {
			cfg.Pipeline.Decode.ScoreThreshold, _ = flags.GetFloat64("confidence")
		}

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serverConfig := server.Config{
			Host:            host,
			Port:            port,
			CORSOrigin:      corsOrigin,
			MaxUploadMB:     int64(maxUploadMB),
			TimeoutSec:      timeoutSec,
			OverlayEnabled:  overlayEnabled,
			ModelsDir:       cfg.ModelsDir,
			PipelineBuilder: cfg.NewPipelineBuilder(),
		}

		signServer, err := server.NewServer(serverConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}
		defer func() { _ = signServer.Close() }()

		mux := http.NewServeMux()
		signServer.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeoutSec) * time.Second,
			WriteTimeout:      time.Duration(timeoutSec) * time.Second,
		}

		go func() {
			slog.Info("Starting detection server", "host", host, "port", port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		slog.Info("Shutting down HTTP server", "timeout", fmt.Sprintf("%ds", shutdownTimeout))
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		if err := signServer.Close(); err != nil {
			slog.Error("Server cleanup error", "error", err)
		}
		slog.Info("Shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Bool("overlay", true, "enable overlay image responses")

	serveCmd.Flags().String("model", "", "override detection model path")
	serveCmd.Flags().Bool("compact", false, "use the compact (tiny) model variant")
	serveCmd.Flags().String("score-mode", "flat", "class scoring mode (flat, hier1, hier2)")
	serveCmd.Flags().Float64("confidence", 0.5, "minimum detection score threshold (0..1)")
}
