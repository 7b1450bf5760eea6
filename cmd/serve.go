package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/finchhq/finch/internal/agent"
	"github.com/finchhq/finch/internal/api"
	"github.com/finchhq/finch/internal/config"
	"github.com/finchhq/finch/internal/observability"
	"github.com/finchhq/finch/internal/tools"
	"github.com/finchhq/finch/internal/upstream"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // SSE streaming needs longer timeout
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	logger := initLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting agent server", "version", AppVersion)

	if cfg.Tracing.Enabled {
		shutdownTracing, err := observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			Environment: cfg.Tracing.Environment,
			ServiceName: cfg.Tracing.ServiceName,
		}, logger)
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := shutdownTracing(flushCtx); err != nil {
				logger.Warn("trace flush failed", "error", err)
			}
		}()
	}

	providerTimeout := time.Duration(cfg.Tools.TimeoutMs) * time.Millisecond
	toolClient := &http.Client{Timeout: providerTimeout}

	var pages *tools.PageFetcher
	if cfg.Tools.FetchPages {
		pages = tools.NewPageFetcher(toolClient, logger.With("component", "pagefetch"))
	}
	quotes := tools.NewQuotes(cfg.Tools.FinanceBaseURL, toolClient, logger.With("component", "quotes"))
	search := tools.NewSearch(cfg.Tools.SearchBaseURL, toolClient, pages, logger.With("component", "search"))

	model := upstream.NewClient(upstream.Config{
		BaseURL:     cfg.UpstreamBaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.ModelName,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, nil, logger.With("component", "upstream"))

	ag, err := agent.New(agent.Config{
		Quotes:          quotes,
		Search:          search,
		Model:           model,
		Logger:          logger.With("component", "agent"),
		Persona:         cfg.Persona,
		ProviderTimeout: providerTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating agent: %w", err)
	}

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:     logger.With("component", "api"),
		Agent:      ag,
		TrustProxy: cfg.TrustProxy,
		RateBurst:  cfg.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", cfg.Addr,
		"api", "/api/v1/*",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
