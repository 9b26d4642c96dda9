package device

import (
	"context"
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Store.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// snapshot is the immutable result of the one-time load.
type snapshot struct {
	all   []Device
	valid []Device
	names NameIndex
}

// Store is the read-only device catalogue.
//
// The source is read, parsed and validated on the first query and the
// result is kept for the life of the Store. Concurrent first callers block
// until that load completes and then share the same snapshot. A failed load
// is kept as well: every query returns the same ErrLoad-wrapped error until
// a new Store is created.
//
// All public methods are thread-safe.
type Store struct {
	source Source
	logger Logger

	once sync.Once
	snap *snapshot
	err  error
}

// NewStore creates a store over the given source. Nothing is read until the
// first query or an explicit Preload.
func NewStore(source Source) *Store {
	return &Store{
		source: source,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the store.
// It must be called before the first query.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// SourceName returns the name of the configured source, or "" if none.
func (s *Store) SourceName() string {
	if s.source == nil {
		return ""
	}
	return s.source.Name()
}

// Preload forces the one-time load and returns its error, if any.
// Calling it is optional; every query loads lazily.
func (s *Store) Preload(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

// load returns the cached snapshot, reading the source on first use.
func (s *Store) load(ctx context.Context) (*snapshot, error) {
	s.once.Do(func() {
		// The result is cached for every caller, so it must not depend on
		// whether the first caller's request was cancelled.
		s.snap, s.err = s.readSnapshot(context.WithoutCancel(ctx))
	})
	return s.snap, s.err
}

// readSnapshot reads and validates the whole source.
func (s *Store) readSnapshot(ctx context.Context) (*snapshot, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, ErrNoSource)
	}

	data, err := s.source.Read(ctx)
	if err != nil {
		s.logger.Error("device source unreadable", "source", s.source.Name(), "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, s.source.Name(), err)
	}

	all, err := decodeDevices(data)
	if err != nil {
		s.logger.Error("device source malformed", "source", s.source.Name(), "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, s.source.Name(), err)
	}

	names := IndexFullNames(all)
	valid := make([]Device, 0, len(all))
	for _, d := range all {
		if d.IsValid(names) {
			valid = append(valid, d)
		}
	}

	s.logger.Info("device catalogue loaded",
		"source", s.source.Name(),
		"total", len(all),
		"valid", len(valid),
		"invalid", len(all)-len(valid),
	)

	return &snapshot{all: all, valid: valid, names: names}, nil
}

// LoadAll returns every record in the source, valid or not, in source order.
// The returned devices are deep copies; callers can safely modify them.
func (s *Store) LoadAll(ctx context.Context) ([]Device, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return deepCopyDevices(snap.all), nil
}

// ValidRecords returns the records that pass validation, in source order.
// The returned devices are deep copies; callers can safely modify them.
func (s *Store) ValidRecords(ctx context.Context) ([]Device, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return deepCopyDevices(snap.valid), nil
}

// FilterByBrand returns the valid records whose brand equals brand exactly.
// No match yields an empty slice, not an error.
func (s *Store) FilterByBrand(ctx context.Context, brand string) ([]Device, error) {
	return s.filter(ctx, func(d Device) bool { return d.Brand == brand })
}

// FilterByModel returns the valid records whose model equals model exactly.
// No match yields an empty slice, not an error.
func (s *Store) FilterByModel(ctx context.Context, model string) ([]Device, error) {
	return s.filter(ctx, func(d Device) bool { return d.Model == model })
}

// filter returns deep copies of the valid records matching keep, in order.
func (s *Store) filter(ctx context.Context, keep func(Device) bool) ([]Device, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Device, 0)
	for _, d := range snap.valid {
		if keep(d) {
			out = append(out, d.DeepCopy())
		}
	}
	return out, nil
}

// FindByFullName returns the valid record with the given full name.
// The boolean is false when no valid record matches; that is not an error.
// Full names are unique among valid records, so at most one can match.
func (s *Store) FindByFullName(ctx context.Context, fullName string) (Device, bool, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return Device{}, false, err
	}

	for _, d := range snap.valid {
		if name, ok := d.FullName(); ok && name == fullName {
			return d.DeepCopy(), true, nil
		}
	}
	return Device{}, false, nil
}

// Stats summarises the valid records for monitoring.
type Stats struct {
	Total        int                `json:"total"`
	Valid        int                `json:"valid"`
	ByFormFactor map[FormFactor]int `json:"by_form_factor"`
	ByBrand      map[string]int     `json:"by_brand"`
}

// GetStats returns counts over the loaded catalogue.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Total:        len(snap.all),
		Valid:        len(snap.valid),
		ByFormFactor: make(map[FormFactor]int),
		ByBrand:      make(map[string]int),
	}
	for _, d := range snap.valid {
		stats.ByFormFactor[d.FormFactor]++
		stats.ByBrand[d.Brand]++
	}
	return stats, nil
}
