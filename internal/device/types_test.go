package device

import "testing"

func TestFullName(t *testing.T) {
	tests := []struct {
		name   string
		device Device
		want   string
		wantOK bool
	}{
		{
			name:   "brand and model present",
			device: Device{Brand: "brand1", Model: "model1"},
			want:   "brand1 model1",
			wantOK: true,
		},
		{
			name:   "model missing",
			device: Device{Brand: "brand1"},
		},
		{
			name:   "brand missing",
			device: Device{Model: "model1"},
		},
		{
			name:   "both missing",
			device: Device{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.device.FullName()
			if ok != tt.wantOK {
				t.Fatalf("FullName() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeepCopy(t *testing.T) {
	original := Device{
		Brand:      "Mockia",
		Model:      "5800",
		FormFactor: FormFactorCandybar,
		Attributes: []Attribute{{Name: "Screen Size", Value: "128mm"}},
	}

	cpy := original.DeepCopy()
	cpy.Attributes[0].Value = "changed"

	if original.Attributes[0].Value != "128mm" {
		t.Errorf("original attribute modified: %q", original.Attributes[0].Value)
	}
}

func TestDeepCopyDevices_EmptyIsNonNil(t *testing.T) {
	got := deepCopyDevices(nil)
	if got == nil {
		t.Fatal("deepCopyDevices(nil) = nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}
