package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/topsol/fatura-copel/client"
	"github.com/topsol/fatura-copel/config"
	"github.com/topsol/fatura-copel/handler"
	"github.com/topsol/fatura-copel/metrics"
	"github.com/topsol/fatura-copel/service"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "fatura",
	Short:        "COPEL electricity invoice interpreter",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		invoiceService, closeFn := buildService(cfg, logger)
		defer closeFn()
		metrics.Init()

		if cfg.Level() > log.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}
		router := handler.NewRouter(handler.NewInvoiceHandler(invoiceService, cfg.MaxFileSize, logger), logger)

		srv := &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting COPEL invoice interpreter", "port", cfg.ServerPort)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func newLogger(cfg *config.Config) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "fatura",
		Level:           cfg.Level(),
	})
}

// buildService wires the PDF readers, the optional remote text service and
// the OCR fallback. The returned func releases the clients.
func buildService(cfg *config.Config, logger *log.Logger) (*service.InvoiceService, func()) {
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath, cfg.OCRLanguage, logger)

	var remote service.RemoteTextExtractor
	if cfg.TextServiceURL != "" {
		remote = client.NewTextServiceClient(cfg.TextServiceURL, &http.Client{Timeout: cfg.ConversionTimeout}, logger)
		logger.Info("using remote text service", "url", cfg.TextServiceURL)
	}

	svc := service.NewInvoiceService(
		service.NewPDFProcessor(),
		tesseractClient,
		remote,
		service.Options{
			Extract:           cfg.ExtractOptions(),
			MinTextLength:     cfg.MinTextLength,
			ConversionTimeout: cfg.ConversionTimeout,
			DecodePix:         cfg.PixDecode,
		},
		logger,
	)
	return svc, tesseractClient.Close
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("text-service-url", "", "remote document-to-text service")
	rootCmd.PersistentFlags().Duration("conversion-timeout", time.Minute, "document conversion timeout")
	rootCmd.PersistentFlags().Int("min-text-length", 20, "minimum extracted text before falling back to OCR")
	rootCmd.PersistentFlags().String("ocr-language", "por", "tesseract language")
	rootCmd.PersistentFlags().String("tessdata", "", "tesseract data directory")
	rootCmd.PersistentFlags().Bool("pix", false, "decode the PIX QR code")

	serveCmd.Flags().String("port", "8080", "HTTP port")
	serveCmd.Flags().Int64("max-file-size", 10*1024*1024, "maximum upload size in bytes")

	rootCmd.AddCommand(serveCmd, parseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
