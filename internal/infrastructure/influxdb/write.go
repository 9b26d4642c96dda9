package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementCatalogLoad       = "catalog_load"
	measurementCatalogViolations = "catalog_violations"
)

// CatalogLoad summarises one catalogue load for the metrics backend.
type CatalogLoad struct {
	Source  string
	Total   int
	Valid   int
	Invalid int

	// ViolationsByField counts violations per field name, e.g. "brand": 3.
	ViolationsByField map[string]int

	At time.Time
}

// WriteCatalogLoad records a load as one catalog_load point plus one
// catalog_violations point per violated field. The write is non-blocking.
func (c *Client) WriteCatalogLoad(load CatalogLoad) {
	if !c.IsConnected() {
		return
	}
	for _, p := range catalogLoadPoints(load) {
		c.writeAPI.WritePoint(p)
	}
}

// catalogLoadPoints builds the points for a load.
func catalogLoadPoints(load CatalogLoad) []*write.Point {
	at := load.At
	if at.IsZero() {
		at = time.Now()
	}

	points := make([]*write.Point, 0, 1+len(load.ViolationsByField))
	points = append(points, write.NewPoint(
		measurementCatalogLoad,
		map[string]string{"source": load.Source},
		map[string]interface{}{
			"total":   load.Total,
			"valid":   load.Valid,
			"invalid": load.Invalid,
		},
		at,
	))

	for field, count := range load.ViolationsByField {
		points = append(points, write.NewPoint(
			measurementCatalogViolations,
			map[string]string{
				"source": load.Source,
				"field":  field,
			},
			map[string]interface{}{"count": count},
			at,
		))
	}

	return points
}
