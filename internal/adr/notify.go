package adr

import (
	"time"

	"github.com/nerrad567/adr-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/adr-core/internal/state"
)

// StatusEvent is the payload of a status change notification.
type StatusEvent struct {
	Unit   string       `json:"unit"`
	Status state.Status `json:"status"`
	Time   time.Time    `json:"time"`
}

// LogEvent is the payload of a log entry notification.
type LogEvent struct {
	Unit    string    `json:"unit"`
	Time    time.Time `json:"time"`
	Stamp   string    `json:"stamp"`
	Message string    `json:"message"`
}

// NewLogEvent builds the notification payload of e.
func NewLogEvent(unit string, e state.Entry) LogEvent {
	return LogEvent{Unit: unit, Time: e.Time, Stamp: e.Stamp(), Message: e.Message}
}

// JSONPublisher publishes JSON payloads. *mqtt.Client implements it.
type JSONPublisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// MQTTNotifier publishes status changes (retained) and log entries.
type MQTTNotifier struct {
	pub    JSONPublisher
	logger Logger
}

// NewMQTTNotifier creates a notifier publishing through pub.
func NewMQTTNotifier(pub JSONPublisher, logger Logger) *MQTTNotifier {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTNotifier{pub: pub, logger: logger}
}

// StatusChanged publishes the new status on the unit status topic.
func (n *MQTTNotifier) StatusChanged(unit string, status state.Status, at time.Time) {
	ev := StatusEvent{Unit: unit, Status: status, Time: at}
	if err := n.pub.PublishJSON(mqtt.Topics{}.UnitStatus(unit), ev, true); err != nil {
		n.logger.Warn("publishing status failed", "unit", unit, "error", err)
	}
}

// LogAppended publishes e on the unit log topic.
func (n *MQTTNotifier) LogAppended(unit string, e state.Entry) {
	if err := n.pub.PublishJSON(mqtt.Topics{}.UnitLog(unit), NewLogEvent(unit, e), false); err != nil {
		n.logger.Warn("publishing log entry failed", "unit", unit, "error", err)
	}
}
