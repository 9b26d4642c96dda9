package device

// Device is a single catalogue entry as loaded from the device source.
//
// Devices are value objects: once the store has loaded them they are never
// updated. Validity is not a field; it depends on the sibling set and is
// computed on demand via Violations.
type Device struct {
	Brand      string      `json:"brand"`
	Model      string      `json:"model"`
	FormFactor FormFactor  `json:"formFactor"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// Attribute is a named, free-form property of a device (e.g. "Screen Size").
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FullName returns "{brand} {model}".
//
// The second return value is false when either brand or model is empty; an
// absent full name never matches a lookup and never collides with another
// absent full name.
func (d Device) FullName() (string, bool) {
	if d.Brand == "" || d.Model == "" {
		return "", false
	}
	return d.Brand + " " + d.Model, true
}

// DeepCopy returns an independent copy of the device.
// The attribute slice is cloned so modifications to the copy do not reach
// the store's snapshot.
func (d Device) DeepCopy() Device {
	cpy := d
	if d.Attributes != nil {
		cpy.Attributes = make([]Attribute, len(d.Attributes))
		copy(cpy.Attributes, d.Attributes)
	}
	return cpy
}

// FormFactor is the physical shape of a device.
type FormFactor string

// Supported form factors.
const (
	FormFactorCandybar   FormFactor = "CANDYBAR"
	FormFactorSmartphone FormFactor = "SMARTPHONE"
	FormFactorPhablet    FormFactor = "PHABLET"
	FormFactorClamshell  FormFactor = "CLAMSHELL"
)

// AllFormFactors returns all valid form factor values.
func AllFormFactors() []FormFactor {
	return []FormFactor{
		FormFactorCandybar,
		FormFactorSmartphone,
		FormFactorPhablet,
		FormFactorClamshell,
	}
}

// deepCopyDevices copies a slice of devices, always returning a non-nil slice
// so empty results encode as [] rather than null.
func deepCopyDevices(devices []Device) []Device {
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.DeepCopy())
	}
	return out
}
