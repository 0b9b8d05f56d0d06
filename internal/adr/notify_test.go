package adr

import (
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/adr-core/internal/state"
)

type publishedMessage struct {
	topic    string
	payload  any
	retained bool
}

type fakePublisher struct {
	msgs []publishedMessage
	err  error
}

func (p *fakePublisher) PublishJSON(topic string, v any, retained bool) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, publishedMessage{topic, v, retained})
	return nil
}

func TestMQTTNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := NewMQTTNotifier(pub, nil)
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	n.StatusChanged("adr1", state.Ready, at)
	n.LogAppended("adr1", state.Entry{Time: at, Message: "hello"})

	if len(pub.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.msgs))
	}

	status := pub.msgs[0]
	if status.topic != "adr/core/adr1/status" || !status.retained {
		t.Errorf("status published to %q retained=%v", status.topic, status.retained)
	}
	if ev, ok := status.payload.(StatusEvent); !ok || ev.Status != state.Ready {
		t.Errorf("status payload = %#v", status.payload)
	}

	logMsg := pub.msgs[1]
	if logMsg.topic != "adr/core/adr1/log" || logMsg.retained {
		t.Errorf("log published to %q retained=%v", logMsg.topic, logMsg.retained)
	}
	ev, ok := logMsg.payload.(LogEvent)
	if !ok || ev.Message != "hello" || ev.Stamp != "2026-03-01 09:30:00" {
		t.Errorf("log payload = %#v", logMsg.payload)
	}
}

func TestMQTTNotifier_PublishErrorIsSwallowed(t *testing.T) {
	n := NewMQTTNotifier(&fakePublisher{err: errors.New("not connected")}, nil)
	n.StatusChanged("adr1", state.Ready, time.Now())
	n.LogAppended("adr1", state.Entry{Time: time.Now(), Message: "x"})
}
