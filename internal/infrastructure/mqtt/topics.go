package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes of the ADR message bus.
//
// Instrument services and the core share one flat hierarchy:
//
//	adr/request/{service}/{request_id}    core → service
//	adr/response/{service}/{request_id}   service → core
//	adr/discovery/{service}               retained device announcements
//	adr/core/status                       core online/offline (LWT)
//	adr/core/{unit}/status                retained cycle status per unit
//	adr/core/{unit}/log                   controller log entries per unit
const (
	TopicPrefix     = "adr"
	TopicPrefixCore = "adr/core"
)

// Topics provides builders for the ADR MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Request("lakeshore_218", "5b0e...")
//	// Returns: "adr/request/lakeshore_218/5b0e..."
type Topics struct{}

// Request returns the topic a request to a service is published on.
func (Topics) Request(service, requestID string) string {
	return fmt.Sprintf("%s/request/%s/%s", TopicPrefix, service, requestID)
}

// Response returns the topic a service answers a request on.
func (Topics) Response(service, requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", TopicPrefix, service, requestID)
}

// AllResponses matches every response from every service.
func (Topics) AllResponses() string {
	return TopicPrefix + "/response/+/+"
}

// Discovery returns the retained announcement topic of a service.
func (Topics) Discovery(service string) string {
	return fmt.Sprintf("%s/discovery/%s", TopicPrefix, service)
}

// AllDiscovery matches the announcements of every service.
func (Topics) AllDiscovery() string {
	return TopicPrefix + "/discovery/+"
}

// CoreStatus returns the core's own online/offline topic.
func (Topics) CoreStatus() string {
	return TopicPrefixCore + "/status"
}

// UnitStatus returns the retained cycle status topic of an ADR unit.
func (Topics) UnitStatus(unit string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixCore, unit)
}

// UnitLog returns the log entry topic of an ADR unit.
func (Topics) UnitLog(unit string) string {
	return fmt.Sprintf("%s/%s/log", TopicPrefixCore, unit)
}

// ServiceFromTopic extracts the service segment of a request, response or
// discovery topic. It returns "" for any other topic.
func ServiceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[0] != TopicPrefix {
		return ""
	}
	switch parts[1] {
	case "request", "response":
		if len(parts) == 4 {
			return parts[2]
		}
	case "discovery":
		if len(parts) == 3 {
			return parts[2]
		}
	}
	return ""
}

// RequestIDFromTopic extracts the request ID of a request or response topic.
func RequestIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix {
		return ""
	}
	if parts[1] != "request" && parts[1] != "response" {
		return ""
	}
	return parts[3]
}
