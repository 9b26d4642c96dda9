package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/device-catalog/internal/audit"
	"github.com/nerrad567/device-catalog/internal/device"
	"github.com/nerrad567/device-catalog/internal/infrastructure/config"
	"github.com/nerrad567/device-catalog/internal/infrastructure/database"
	"github.com/nerrad567/device-catalog/internal/infrastructure/logging"
	"github.com/nerrad567/device-catalog/internal/reporting"
)

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv(configPathEnv, "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(configPathEnv, "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv(configPathEnv, "/etc/devicecatalog.yaml")
	if got := getConfigPath(); got != "/etc/devicecatalog.yaml" {
		t.Errorf("getConfigPath() = %q, want env value", got)
	}
}

// freePort returns a TCP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// TestRun_LoadsAndAudits starts the service with the audit database
// enabled, lets it run briefly and checks the load was recorded.
func TestRun_LoadsAndAudits(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "devices.json")
	dbPath := filepath.Join(dir, "audit.db")
	configPath := filepath.Join(dir, "config.yaml")

	catalog := `[
		{"brand": "Mockia", "model": "5800", "formFactor": "CANDYBAR"},
		{"brand": "", "model": "X", "formFactor": "PHABLET"}
	]`
	if err := os.WriteFile(catalogPath, []byte(catalog), 0o600); err != nil {
		t.Fatalf("writing catalogue: %v", err)
	}

	cfg := fmt.Sprintf(`
catalog:
  source_path: %q
database:
  enabled: true
  path: %q
  wal_mode: true
  busy_timeout: 5
api:
  host: "127.0.0.1"
  port: %d
logging:
  level: error
  format: text
  output: stderr
`, catalogPath, dbPath, freePort(t))
	if err := os.WriteFile(configPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv(configPathEnv, configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	db, err := database.Open(context.Background(), database.Config{Path: dbPath, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	result, err := audit.NewSQLiteRepository(db.DB).List(context.Background(), audit.Filter{})
	if err != nil {
		t.Fatalf("listing audit entries: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(result.Entries))
	}
	entry := result.Entries[0]
	if entry.Action != audit.ActionCatalogLoaded || entry.Total != 2 || entry.Valid != 1 || entry.Invalid != 1 {
		t.Errorf("audit entry = %+v", entry)
	}
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Create(_ context.Context, entry *audit.Entry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func TestPreloadCatalog_Failure(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Output: "stderr"}, "test")
	rec := &recordingAudit{}
	reporter := reporting.New(reporting.Deps{Audit: rec})

	store := device.NewStore(device.SourceFunc(func(context.Context) ([]byte, error) {
		return nil, errors.New("no such bucket")
	}))

	preloadCatalog(context.Background(), store, reporter, log)

	if len(rec.entries) != 1 || rec.entries[0].Action != audit.ActionCatalogLoadFailed {
		t.Fatalf("entries = %+v, want one load_failed entry", rec.entries)
	}
	if _, err := store.ValidRecords(context.Background()); !errors.Is(err, device.ErrLoad) {
		t.Errorf("ValidRecords() error = %v, want ErrLoad", err)
	}
}

func TestReportingDeps_NilSinks(t *testing.T) {
	deps := reportingDeps(logging.Default(), nil, nil, nil)
	if deps.Audit != nil || deps.Events != nil || deps.Metrics != nil {
		t.Errorf("unconfigured sinks wired: %+v", deps)
	}
}
