package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Source provides the raw JSON document the catalogue is loaded from.
type Source interface {
	// Name identifies the source in logs and errors (e.g. a file path).
	Name() string

	// Read returns the complete document.
	Read(ctx context.Context) ([]byte, error)
}

// FileSource reads the catalogue from a JSON file on disk.
type FileSource struct {
	Path string
}

// Name returns the file path.
func (s FileSource) Name() string {
	return s.Path
}

// Read returns the file contents.
func (s FileSource) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading device file: %w", err)
	}
	return data, nil
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]byte, error)

// Name returns a fixed label; function sources have no natural identity.
func (SourceFunc) Name() string {
	return "func"
}

// Read calls f.
func (f SourceFunc) Read(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// StaticSource returns a Source serving a fixed document.
func StaticSource(data []byte) Source {
	return SourceFunc(func(context.Context) ([]byte, error) {
		return data, nil
	})
}

// decodeDevices parses a JSON array of device objects, preserving order.
//
// The top level must be an array; each element must be an object whose
// fields have the expected types. Keys match exactly, so "Brand" is not
// "brand". A JSON null field decodes as missing and is left for validation
// to report.
func decodeDevices(data []byte) ([]Device, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array of device objects")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("parsing device list: %w", err)
	}

	devices := make([]Device, 0, len(raw))
	for i, elem := range raw {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			return nil, fmt.Errorf("element %d: expected a JSON object", i)
		}

		d, err := decodeDevice(elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		devices = append(devices, d)
	}

	return devices, nil
}

func decodeDevice(elem json.RawMessage) (Device, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return Device{}, err
	}

	var d Device
	if err := decodeField(fields, "brand", &d.Brand); err != nil {
		return Device{}, err
	}
	if err := decodeField(fields, "model", &d.Model); err != nil {
		return Device{}, err
	}
	if err := decodeField(fields, "formFactor", &d.FormFactor); err != nil {
		return Device{}, err
	}

	var attrs []json.RawMessage
	if err := decodeField(fields, "attributes", &attrs); err != nil {
		return Device{}, err
	}
	if attrs != nil {
		d.Attributes = make([]Attribute, 0, len(attrs))
	}
	for j, raw := range attrs {
		attr, err := decodeAttribute(raw)
		if err != nil {
			return Device{}, fmt.Errorf("attributes[%d]: %w", j, err)
		}
		d.Attributes = append(d.Attributes, attr)
	}

	return d, nil
}

// decodeAttribute reads one attribute object. A null element decodes as an
// attribute with neither name nor value.
func decodeAttribute(raw json.RawMessage) (Attribute, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Attribute{}, err
	}

	var a Attribute
	if err := decodeField(fields, "name", &a.Name); err != nil {
		return Attribute{}, err
	}
	if err := decodeField(fields, "value", &a.Value); err != nil {
		return Attribute{}, err
	}
	return a, nil
}

// decodeField unmarshals fields[key] into dst. Absent keys leave dst untouched.
func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}
