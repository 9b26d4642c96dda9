// Package mqtt publishes catalogue events to an MQTT broker.
//
// The catalogue is read-only, so the client only publishes:
//
//	{prefix}/system/status        online/offline, retained, also the LWT
//	{prefix}/catalog/loaded       load summary, retained
//	{prefix}/catalog/load_failed  load error, retained
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(client.Topics().CatalogLoaded(), summary)
//
// TLS should be enabled (cfg.Broker.TLS) whenever the broker is not local.
package mqtt
