package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/unit-converter/internal/adapters/http"
	"github.com/kirillkom/unit-converter/internal/bootstrap"
	"github.com/kirillkom/unit-converter/internal/config"
	"github.com/kirillkom/unit-converter/internal/core/ports"
	"github.com/kirillkom/unit-converter/internal/observability/logging"
	"github.com/kirillkom/unit-converter/internal/observability/metrics"
)

const service = "unit-converter-api"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	var accounts ports.AccountService
	if app.Accounts != nil {
		accounts = app.Accounts
	}
	router, err := httpadapter.NewRouter(cfg, app.Converter, accounts, app.Sink, metrics.NewHTTPServerMetrics(service))
	if err != nil {
		slog.Error("router_init_failed", "error", err)
		os.Exit(1)
	}
	go router.RunSessionJanitor(ctx, time.Minute)

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		slog.Error("api_listen_failed", "error", err, "port", cfg.APIPort)
		os.Exit(1)
	}
	listener = netutil.LimitListener(listener, cfg.APIMaxConnections)

	server := &http.Server{
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("api_listening",
			"port", cfg.APIPort,
			"auth_enabled", cfg.AuthEnabled,
			"credential_store", cfg.CredentialStore,
			"events", app.Events != nil,
		)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
