package bootstrap

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/unit-converter/internal/config"
	"github.com/kirillkom/unit-converter/internal/core/domain"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ConversionLogPath = filepath.Join(dir, "logs", "unit_converter.log")
	cfg.SQLitePath = filepath.Join(dir, "data", "users.db")
	cfg.BcryptCost = 4
	return cfg
}

func TestNewWithoutAuthLeavesAccountsNil(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if app.Accounts != nil {
		t.Fatalf("expected no account service when auth is disabled")
	}
	if app.Events != nil {
		t.Fatalf("expected no event stream without NATS_URL")
	}

	if _, err := app.Converter.Convert(context.Background(), domain.ConversionInput{
		Category: "length", Value: "1", FromUnit: "km", ToUnit: "m",
	}); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	lines, err := app.Sink.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "Length: 1 km → 1000.000000 m") {
		t.Fatalf("unexpected log lines: %q", lines)
	}
}

func TestNewWiresCredentialStores(t *testing.T) {
	for _, store := range []string{config.StoreMemory, config.StoreSQLite} {
		t.Run(store, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.AuthEnabled = true
			cfg.CredentialStore = store

			app, err := New(context.Background(), cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer app.Close()

			ctx := context.Background()
			if _, err := app.Accounts.Register(ctx, "alice", "pw"); err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if _, err := app.Accounts.Authenticate(ctx, "alice", "pw"); err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
		})
	}
}

func TestNewWorkerRequiresNATS(t *testing.T) {
	cfg := testConfig(t)
	cfg.WorkerLogPath = filepath.Join(t.TempDir(), "worker.log")
	if _, err := NewWorker(cfg); err == nil {
		t.Fatalf("expected error without NATS_URL")
	}
}
