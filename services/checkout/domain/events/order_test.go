package events

import (
	"encoding/json"
	"testing"
)

func TestTopicOrderPlaced(t *testing.T) {
	if TopicOrderPlaced != "order.placed" {
		t.Fatalf("topic renamed to %q; update subscribers and consumers", TopicOrderPlaced)
	}
}

func TestOrderPlacedEvent_WireNames(t *testing.T) {
	b, err := json.Marshal(OrderPlacedEvent{Items: []OrderPlacedItem{{}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"event_id", "version", "order_id", "user_id", "charge_id", "currency", "total", "items", "occurred_at"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("payload missing %q", key)
		}
	}
	item := raw["items"].([]any)[0].(map[string]any)
	if _, ok := item["image_url"]; !ok {
		t.Error("item payload missing image_url")
	}
}
