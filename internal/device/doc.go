// Package device provides the read-only device catalogue.
//
// The catalogue is loaded once from a JSON document listing devices by
// brand, model, form factor and free-form attributes. Every record is kept,
// but queries only ever see the valid subset.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                       Device Catalogue                       │
//	│                                                              │
//	│  ┌──────────────────┐   ┌──────────────────┐                 │
//	│  │      Store       │   │    Validation    │                 │
//	│  │    (store.go)    │──▶│  (validation.go) │                 │
//	│  │                  │   │                  │                 │
//	│  │ • One-time load  │   │ • Field rules    │                 │
//	│  │ • Valid subset   │   │ • Full name      │                 │
//	│  │ • Queries        │   │   uniqueness     │                 │
//	│  └──────────────────┘   └──────────────────┘                 │
//	│           │                                                  │
//	└───────────│──────────────────────────────────────────────────┘
//	            ▼
//	┌──────────────────────┐
//	│ Source (source.go)   │
//	│ • JSON file on disk  │
//	└──────────────────────┘
//
// # Validation
//
// A record is valid when brand and model are present and at most 50
// characters, the form factor is one of CANDYBAR, SMARTPHONE, PHABLET or
// CLAMSHELL, every attribute has a name (≤ 20) and a value (≤ 100), and its
// full name ("brand model") is not shared with any other loaded record.
// Duplicated full names invalidate every record that carries them.
//
// # Usage
//
//	store := device.NewStore(device.FileSource{Path: "data/devices.json"})
//	store.SetLogger(log)
//
//	phones, err := store.FilterByBrand(ctx, "Mockia")
//	dev, ok, err := store.FindByFullName(ctx, "Mockia 5800")
//	if err == nil && !ok {
//	    // not found
//	}
//
// # Thread Safety
//
// The Store is safe for concurrent use. The load is guarded by sync.Once;
// the snapshot is immutable afterwards and read without locking.
package device
