// Package reporting fans the outcome of a catalogue load out to the
// optional sinks: the audit log, MQTT and InfluxDB.
//
// Every sink is optional. A failing sink never stops the others; the
// errors are joined, logged and returned.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/device-catalog/internal/audit"
	"github.com/nerrad567/device-catalog/internal/device"
	"github.com/nerrad567/device-catalog/internal/infrastructure/influxdb"
	"github.com/nerrad567/device-catalog/internal/infrastructure/mqtt"
)

// AuditRecorder persists audit entries. Satisfied by *audit.SQLiteRepository.
type AuditRecorder interface {
	Create(ctx context.Context, entry *audit.Entry) error
}

// EventPublisher publishes retained JSON events. Satisfied by *mqtt.Client.
type EventPublisher interface {
	PublishJSON(topic string, v any) error
}

// MetricsWriter records load metrics. Satisfied by *influxdb.Client.
type MetricsWriter interface {
	WriteCatalogLoad(load influxdb.CatalogLoad)
}

// Logger is the logging surface the reporter needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// LoadedEvent is published on the catalog/loaded topic.
type LoadedEvent struct {
	Source     string         `json:"source"`
	Total      int            `json:"total"`
	Valid      int            `json:"valid"`
	Invalid    int            `json:"invalid"`
	Violations map[string]int `json:"violations,omitempty"`
	Timestamp  string         `json:"timestamp"`
}

// FailedEvent is published on the catalog/load_failed topic.
type FailedEvent struct {
	Source    string `json:"source"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Deps holds the sinks. Nil sinks are skipped.
type Deps struct {
	Audit   AuditRecorder
	Events  EventPublisher
	Topics  mqtt.Topics
	Metrics MetricsWriter
	Logger  Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Reporter publishes load outcomes to every configured sink.
type Reporter struct {
	deps Deps
}

// New creates a Reporter.
func New(deps Deps) *Reporter {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Reporter{deps: deps}
}

// PublishLoaded reports a successful load.
func (r *Reporter) PublishLoaded(ctx context.Context, rep device.Report) error {
	now := r.deps.Now().UTC()
	counts := rep.ViolationCounts()
	invalid := len(rep.Invalid)

	var errs []error

	if r.deps.Audit != nil {
		entry := &audit.Entry{
			Action:    audit.ActionCatalogLoaded,
			Source:    rep.Source,
			Total:     rep.Total,
			Valid:     rep.Valid,
			Invalid:   invalid,
			Details:   violationDetails(counts),
			CreatedAt: now,
		}
		if err := r.deps.Audit.Create(ctx, entry); err != nil {
			errs = append(errs, fmt.Errorf("audit: %w", err))
		}
	}

	if r.deps.Events != nil {
		event := LoadedEvent{
			Source:     rep.Source,
			Total:      rep.Total,
			Valid:      rep.Valid,
			Invalid:    invalid,
			Violations: counts,
			Timestamp:  now.Format(time.RFC3339),
		}
		if err := r.deps.Events.PublishJSON(r.deps.Topics.CatalogLoaded(), event); err != nil {
			errs = append(errs, fmt.Errorf("mqtt: %w", err))
		}
	}

	if r.deps.Metrics != nil {
		r.deps.Metrics.WriteCatalogLoad(influxdb.CatalogLoad{
			Source:            rep.Source,
			Total:             rep.Total,
			Valid:             rep.Valid,
			Invalid:           invalid,
			ViolationsByField: counts,
			At:                now,
		})
	}

	return r.finish("catalogue load reported", rep.Source, errs)
}

// PublishFailed reports a load that failed with loadErr.
func (r *Reporter) PublishFailed(ctx context.Context, source string, loadErr error) error {
	now := r.deps.Now().UTC()
	message := ""
	if loadErr != nil {
		message = loadErr.Error()
	}

	var errs []error

	if r.deps.Audit != nil {
		entry := &audit.Entry{
			Action:    audit.ActionCatalogLoadFailed,
			Source:    source,
			Error:     message,
			CreatedAt: now,
		}
		if err := r.deps.Audit.Create(ctx, entry); err != nil {
			errs = append(errs, fmt.Errorf("audit: %w", err))
		}
	}

	if r.deps.Events != nil {
		event := FailedEvent{
			Source:    source,
			Error:     message,
			Timestamp: now.Format(time.RFC3339),
		}
		if err := r.deps.Events.PublishJSON(r.deps.Topics.CatalogLoadFailed(), event); err != nil {
			errs = append(errs, fmt.Errorf("mqtt: %w", err))
		}
	}

	return r.finish("catalogue load failure reported", source, errs)
}

// finish logs the outcome and joins sink errors.
func (r *Reporter) finish(msg, source string, errs []error) error {
	err := errors.Join(errs...)
	if r.deps.Logger == nil {
		return err
	}
	if err != nil {
		r.deps.Logger.Warn("catalogue report sink failed", "source", source, "error", err)
		return err
	}
	r.deps.Logger.Info(msg, "source", source)
	return nil
}

// violationDetails renders counts as audit details; nil when there are none.
func violationDetails(counts map[string]int) map[string]any {
	if len(counts) == 0 {
		return nil
	}
	violations := make(map[string]any, len(counts))
	for field, n := range counts {
		violations[field] = n
	}
	return map[string]any{"violations": violations}
}
