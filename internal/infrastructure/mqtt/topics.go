package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "devicecatalog"

// Topics builds the catalogue's MQTT topics under a common prefix.
//
//	topics := mqtt.NewTopics("devicecatalog")
//	topics.Status()        // "devicecatalog/system/status"
//	topics.CatalogLoaded() // "devicecatalog/catalog/loaded"
type Topics struct {
	prefix string
}

// NewTopics returns topic builders rooted at prefix. Surrounding slashes
// are trimmed; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root of every topic.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// Status is the retained online/offline topic, also used for the LWT.
func (t Topics) Status() string {
	return t.Prefix() + "/system/status"
}

// CatalogLoaded carries the retained summary of the most recent load.
func (t Topics) CatalogLoaded() string {
	return t.Prefix() + "/catalog/loaded"
}

// CatalogLoadFailed carries the retained error of a failed load.
func (t Topics) CatalogLoadFailed() string {
	return t.Prefix() + "/catalog/load_failed"
}
