// Package influxdb writes catalogue load metrics to InfluxDB v2.
//
// Each load produces:
//
//	catalog_load,source=<name> total=<n>,valid=<n>,invalid=<n>
//	catalog_violations,source=<name>,field=<field> count=<n>
//
// Writes go through the non-blocking batched write API; async failures
// are delivered to the SetOnError callback.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics off
//	}
//	defer client.Close()
//
//	client.WriteCatalogLoad(influxdb.CatalogLoad{Source: "devices.json", Total: 10, Valid: 9, Invalid: 1})
package influxdb
