package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/device-catalog/internal/device"
)

// handleListDevices returns valid devices, optionally filtered.
//
// Query parameters (first non-blank one wins):
//   - brand: exact, case-sensitive brand match
//   - model: exact, case-sensitive model match
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		devices []device.Device
		err     error
	)
	switch brand, model := q.Get("brand"), q.Get("model"); {
	case strings.TrimSpace(brand) != "":
		devices, err = s.catalog.FilterByBrand(ctx, brand)
	case strings.TrimSpace(model) != "":
		devices, err = s.catalog.FilterByModel(ctx, model)
	default:
		devices, err = s.catalog.ValidRecords(ctx)
	}
	if err != nil {
		s.writeCatalogError(w, r, err, "failed to list devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns the valid device with the given full name
// ("<brand> <model>").
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	fullName := fullNameParam(r)

	dev, ok, err := s.catalog.FindByFullName(r.Context(), fullName)
	if err != nil {
		s.writeCatalogError(w, r, err, "failed to get device")
		return
	}
	if !ok {
		writeNotFound(w, "device not found")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleDeviceStats returns counts of valid devices by form factor and brand.
func (s *Server) handleDeviceStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.GetStats(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err, "failed to compute device stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCatalogReport returns the load report: totals plus every invalid
// record with its violations.
func (s *Server) handleCatalogReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.catalog.Report(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err, "failed to build catalogue report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// fullNameParam returns the decoded {fullName} path segment. chi matches
// against RawPath when the request had escapes such as %2F, leaving the
// segment encoded.
func fullNameParam(r *http.Request) string {
	raw := chi.URLParam(r, "fullName")
	if r.URL.RawPath == "" {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeCatalogError maps a store error to 503 for a failed load and 500
// otherwise.
func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, device.ErrLoad) {
		writeUnavailable(w)
		return
	}
	s.logger.Error(message,
		"error", err,
		"path", r.URL.Path,
		"request_id", r.Context().Value(ctxKeyRequestID),
	)
	writeInternalError(w, message)
}
