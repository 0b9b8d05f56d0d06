package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Request", topics.Request("lakeshore_218", "req-1"), "adr/request/lakeshore_218/req-1"},
		{"Response", topics.Response("lakeshore_218", "req-1"), "adr/response/lakeshore_218/req-1"},
		{"AllResponses", topics.AllResponses(), "adr/response/+/+"},
		{"Discovery", topics.Discovery("power_supply"), "adr/discovery/power_supply"},
		{"AllDiscovery", topics.AllDiscovery(), "adr/discovery/+"},
		{"CoreStatus", topics.CoreStatus(), "adr/core/status"},
		{"UnitStatus", topics.UnitStatus("adr1"), "adr/core/adr1/status"},
		{"UnitLog", topics.UnitLog("adr1"), "adr/core/adr1/log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestServiceFromTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"adr/request/heat_switch/req-1", "heat_switch"},
		{"adr/response/heat_switch/req-1", "heat_switch"},
		{"adr/discovery/heat_switch", "heat_switch"},
		{"adr/discovery/heat_switch/extra", ""},
		{"adr/core/adr1/status", ""},
		{"other/discovery/heat_switch", ""},
		{"adr", ""},
	}

	for _, tt := range tests {
		if got := ServiceFromTopic(tt.topic); got != tt.want {
			t.Errorf("ServiceFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestRequestIDFromTopic(t *testing.T) {
	if got := RequestIDFromTopic("adr/response/svc/abc"); got != "abc" {
		t.Errorf("RequestIDFromTopic() = %q, want abc", got)
	}
	if got := RequestIDFromTopic("adr/discovery/svc"); got != "" {
		t.Errorf("RequestIDFromTopic(discovery) = %q, want empty", got)
	}
}

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"adr/response/+/+", "adr/response/svc/id", true},
		{"adr/response/+/+", "adr/response/svc", false},
		{"adr/response/+/+", "adr/response/svc/id/extra", false},
		{"adr/#", "adr/core/adr1/status", true},
		{"adr/discovery/+", "adr/discovery/svc", true},
		{"adr/discovery/svc", "adr/discovery/other", false},
		{"adr/core/status", "adr/core/status", true},
	}

	for _, tt := range tests {
		if got := MatchTopic(tt.filter, tt.topic); got != tt.want {
			t.Errorf("MatchTopic(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestMemoryBus_RetainedReplay(t *testing.T) {
	bus := NewMemoryBus()

	if err := bus.Publish("adr/discovery/svc", []byte(`{"online":true}`), 1, true); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := bus.Publish("adr/request/svc/1", []byte(`{}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	var got []string
	err := bus.Subscribe("adr/#", 1, func(topic string, _ []byte) error {
		got = append(got, topic)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if len(got) != 1 || got[0] != "adr/discovery/svc" {
		t.Errorf("replayed = %v, want only the retained discovery message", got)
	}
}
