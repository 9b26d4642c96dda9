package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/device-catalog/internal/audit"
	"github.com/nerrad567/device-catalog/internal/device"
	"github.com/nerrad567/device-catalog/internal/infrastructure/config"
	"github.com/nerrad567/device-catalog/internal/infrastructure/logging"
)

const catalogJSON = `[
	{"brand": "Mockia", "model": "5800", "formFactor": "CANDYBAR"},
	{"brand": "Phony", "model": "X11", "formFactor": "SMARTPHONE",
	 "attributes": [{"name": "Bluetooth", "value": "0.1"}]},
	{"brand": "Phony", "model": "Fold", "formFactor": "CLAMSHELL"},
	{"brand": "Acme", "model": "A/B", "formFactor": "PHABLET"},
	{"brand": "Broken", "model": "Z", "formFactor": "TABLET"}
]`

// fakeAudit is an in-memory audit.Repository.
type fakeAudit struct {
	entries    []audit.Entry
	lastFilter audit.Filter
	err        error
}

func (f *fakeAudit) Create(_ context.Context, entry *audit.Entry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return &audit.ListResult{Entries: f.entries, Total: len(f.entries), Limit: filter.Limit}, nil
}

type fakeBroker struct{ connected bool }

func (b fakeBroker) IsConnected() bool { return b.connected }

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

// testServer creates a Server over a store loaded from doc.
func testServer(t *testing.T, doc string, deps Deps) http.Handler {
	t.Helper()

	deps.Logger = testLogger()
	deps.Version = "test"
	if deps.Catalog == nil {
		deps.Catalog = device.NewStore(device.StaticSource([]byte(doc)))
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv.Handler()
}

// failingServer creates a Server whose catalogue load always fails.
func failingServer(t *testing.T) http.Handler {
	t.Helper()
	store := device.NewStore(device.SourceFunc(func(context.Context) ([]byte, error) {
		return nil, errors.New("disk on fire")
	}))
	return testServer(t, "", Deps{Catalog: store})
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type listResponse struct {
	Devices []device.Device `json:"devices"`
	Count   int             `json:"count"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func fullNames(devices []device.Device) []string {
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		name, _ := d.FullName()
		names = append(names, name)
	}
	return names
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_RequiresDeps(t *testing.T) {
	store := device.NewStore(device.StaticSource([]byte("[]")))

	if _, err := New(Deps{Catalog: store}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: testLogger()}); err == nil {
		t.Error("New() without catalogue should fail")
	}
}

func TestCloseWithoutStart(t *testing.T) {
	srv, err := New(Deps{Logger: testLogger(), Catalog: device.NewStore(nil)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

// =============================================================================
// Devices
// =============================================================================

func TestListDevices(t *testing.T) {
	h := testServer(t, catalogJSON, Deps{})

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"all valid", "/api/v1/devices", []string{"Mockia 5800", "Phony X11", "Phony Fold", "Acme A/B"}},
		{"by brand", "/api/v1/devices?brand=Phony", []string{"Phony X11", "Phony Fold"}},
		{"by model", "/api/v1/devices?model=5800", []string{"Mockia 5800"}},
		{"brand wins over model", "/api/v1/devices?brand=Phony&model=5800", []string{"Phony X11", "Phony Fold"}},
		{"blank brand falls back to model", "/api/v1/devices?brand=%20&model=5800", []string{"Mockia 5800"}},
		{"case sensitive", "/api/v1/devices?brand=phony", []string{}},
		{"invalid records hidden", "/api/v1/devices?brand=Broken", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
			}

			resp := decode[listResponse](t, rec)
			got := fullNames(resp.Devices)
			if resp.Count != len(tt.want) || strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("devices = %v (count %d), want %v", got, resp.Count, tt.want)
			}
		})
	}
}

func TestListDevices_EmptyIsArray(t *testing.T) {
	h := testServer(t, catalogJSON, Deps{})

	rec := do(t, h, http.MethodGet, "/api/v1/devices?brand=Nobody")
	if !strings.Contains(rec.Body.String(), `"devices":[]`) {
		t.Errorf("body = %s, want empty array", rec.Body.String())
	}
}

func TestGetDevice(t *testing.T) {
	h := testServer(t, catalogJSON, Deps{})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantName   string
	}{
		{"found", "/api/v1/devices/Phony%20X11", http.StatusOK, "Phony X11"},
		{"escaped slash", "/api/v1/devices/Acme%20A%2FB", http.StatusOK, "Acme A/B"},
		{"invalid record not found", "/api/v1/devices/Broken%20Z", http.StatusNotFound, ""},
		{"unknown", "/api/v1/devices/Nope%201", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				d := decode[device.Device](t, rec)
				if name, _ := d.FullName(); name != tt.wantName {
					t.Errorf("device = %q, want %q", name, tt.wantName)
				}
				return
			}
			if e := decode[Error](t, rec); e.Code != ErrCodeNotFound {
				t.Errorf("code = %q, want %q", e.Code, ErrCodeNotFound)
			}
		})
	}
}

func TestDeviceStats(t *testing.T) {
	h := testServer(t, catalogJSON, Deps{})

	rec := do(t, h, http.MethodGet, "/api/v1/devices/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	stats := decode[device.Stats](t, rec)
	if stats.Valid != 4 {
		t.Errorf("Valid = %d, want 4", stats.Valid)
	}
	if stats.ByBrand["Phony"] != 2 {
		t.Errorf("ByBrand[Phony] = %d, want 2", stats.ByBrand["Phony"])
	}
	if stats.ByFormFactor[device.FormFactorClamshell] != 1 {
		t.Errorf("ByFormFactor[CLAMSHELL] = %d, want 1", stats.ByFormFactor[device.FormFactorClamshell])
	}
}

func TestCatalogReport(t *testing.T) {
	h := testServer(t, catalogJSON, Deps{})

	rec := do(t, h, http.MethodGet, "/api/v1/catalog/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rep := decode[device.Report](t, rec)
	if rep.Total != 5 || rep.Valid != 4 || len(rep.Invalid) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Invalid[0].Index != 4 || rep.Invalid[0].Violations[0].Field != "formFactor" {
		t.Errorf("invalid record = %+v", rep.Invalid[0])
	}
}

// =============================================================================
// Load failure
// =============================================================================

func TestCatalogUnavailable(t *testing.T) {
	h := failingServer(t)

	for _, target := range []string{
		"/api/v1/devices",
		"/api/v1/devices?brand=Phony",
		"/api/v1/devices/stats",
		"/api/v1/devices/Phony%20X11",
		"/api/v1/catalog/report",
	} {
		t.Run(target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, target)
			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", rec.Code)
			}
			if e := decode[Error](t, rec); e.Code != ErrCodeUnavailable {
				t.Errorf("code = %q, want %q", e.Code, ErrCodeUnavailable)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Run("loaded", func(t *testing.T) {
		rec := do(t, testServer(t, catalogJSON, Deps{}), http.MethodGet, "/api/v1/health")
		body := decode[map[string]string](t, rec)
		if rec.Code != http.StatusOK || body["status"] != "ok" || body["catalog"] != "loaded" {
			t.Errorf("health = %d %v", rec.Code, body)
		}
		if body["version"] != "test" {
			t.Errorf("version = %q, want test", body["version"])
		}
	})

	t.Run("load failed", func(t *testing.T) {
		rec := do(t, failingServer(t), http.MethodGet, "/api/v1/health")
		body := decode[map[string]string](t, rec)
		if rec.Code != http.StatusOK || body["status"] != "degraded" || body["catalog"] != "unavailable" {
			t.Errorf("health = %d %v", rec.Code, body)
		}
	})
}

func TestMetrics(t *testing.T) {
	h := testServer(t, catalogJSON, Deps{MQTT: fakeBroker{connected: true}})

	rec := do(t, h, http.MethodGet, "/api/v1/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	m := decode[SystemMetrics](t, rec)
	if !m.Catalog.Loaded || m.Catalog.Valid != 4 || m.Catalog.Invalid != 1 || m.Catalog.Brands != 3 {
		t.Errorf("catalog metrics = %+v", m.Catalog)
	}
	if m.MQTT == nil || !m.MQTT.Connected {
		t.Errorf("mqtt metrics = %+v", m.MQTT)
	}
	if m.Database != nil {
		t.Error("database metrics present without a database")
	}
}

// statsFailingCatalog serves a loaded catalogue whose stats lookup fails.
type statsFailingCatalog struct {
	Catalog
}

func (statsFailingCatalog) GetStats(context.Context) (device.Stats, error) {
	return device.Stats{}, errors.New("stats unavailable")
}

func TestMetrics_StatsError(t *testing.T) {
	store := device.NewStore(device.StaticSource([]byte(catalogJSON)))
	h := testServer(t, "", Deps{Catalog: statsFailingCatalog{Catalog: store}})

	rec := do(t, h, http.MethodGet, "/api/v1/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	m := decode[SystemMetrics](t, rec)
	if !m.Catalog.Loaded || m.Catalog.Valid != 4 || m.Catalog.Brands != 0 {
		t.Errorf("catalog metrics = %+v, want loaded with no brand count", m.Catalog)
	}
}

// =============================================================================
// Audit
// =============================================================================

func TestListAudit_NotConfigured(t *testing.T) {
	rec := do(t, testServer(t, catalogJSON, Deps{}), http.MethodGet, "/api/v1/audit")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if e := decode[Error](t, rec); e.Code != ErrCodeNotConfigured {
		t.Errorf("code = %q, want %q", e.Code, ErrCodeNotConfigured)
	}
}

func TestListAudit(t *testing.T) {
	repo := &fakeAudit{entries: []audit.Entry{{ID: "aud-1", Action: audit.ActionCatalogLoaded, Source: "devices.json"}}}
	h := testServer(t, catalogJSON, Deps{Audit: repo})

	rec := do(t, h, http.MethodGet, "/api/v1/audit?action=catalog.loaded&limit=5&offset=bad")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	result := decode[audit.ListResult](t, rec)
	if len(result.Entries) != 1 || result.Entries[0].ID != "aud-1" {
		t.Errorf("entries = %+v", result.Entries)
	}
	if repo.lastFilter.Action != audit.ActionCatalogLoaded || repo.lastFilter.Limit != 5 || repo.lastFilter.Offset != 0 {
		t.Errorf("filter = %+v", repo.lastFilter)
	}
}

func TestListAudit_RepositoryError(t *testing.T) {
	h := testServer(t, catalogJSON, Deps{Audit: &fakeAudit{err: errors.New("locked")}})

	rec := do(t, h, http.MethodGet, "/api/v1/audit")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// =============================================================================
// Middleware
// =============================================================================

func TestReadOnly(t *testing.T) {
	h := testServer(t, catalogJSON, Deps{})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		rec := do(t, h, method, "/api/v1/devices")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want 405", method, rec.Code)
		}
		if rec.Header().Get("Allow") != "GET, HEAD" {
			t.Errorf("%s Allow = %q", method, rec.Header().Get("Allow"))
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := testServer(t, catalogJSON, Deps{Config: config.APIConfig{
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://panel.local"}},
	}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/devices", nil)
	req.Header.Set("Origin", "http://panel.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://panel.local" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Allow-Origin = %q", got)
	}
}

func TestRequestID(t *testing.T) {
	h := testServer(t, catalogJSON, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want echo", got)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/health")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not generated")
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, testServer(t, catalogJSON, Deps{}), http.MethodGet, "/api/v2/devices")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestJoinOrDefault(t *testing.T) {
	if got := joinOrDefault(nil, "GET"); got != "GET" {
		t.Errorf("joinOrDefault(nil) = %q", got)
	}
	if got := joinOrDefault([]string{"GET", "HEAD"}, "x"); got != "GET, HEAD" {
		t.Errorf("joinOrDefault() = %q", got)
	}
}
