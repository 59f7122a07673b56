package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bookgenre/internal/apihandlers"
)

var (
	serveAddr string
	servePort string
	serveSeed bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prediction and catalogue HTTP API",
	Long: `Starts an HTTP server exposing POST /predict, the /books catalogue,
/health and /ready.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		cfg := appInstance.Config

		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if serveSeed {
			if _, err := appInstance.BookService.Seed(cmd.Context()); err != nil {
				return fmt.Errorf("seed catalogue: %w", err)
			}
		}

		gin.SetMode(cfg.Server.Mode)
		router := apihandlers.NewRouter(apihandlers.NewAPIHandler(appInstance), cfg.Server.CORSOrigins)
		srv := &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.WithField("addr", srv.Addr).Info("Starting API server")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to run API server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("Shutdown signal received, draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown API server: %w", err)
		}
		log.Info("API server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides server.port / PORT)")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "Insert the sample books into an empty catalogue before serving")
}
