package events

import (
	"testing"
	"time"
)

func TestBroadcasterSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	if b.Count() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Count())
	}

	b.Unsubscribe(ch1)
	if b.Count() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", b.Count())
	}

	b.Unsubscribe(ch2)
	b.Unsubscribe(ch2)
	if b.Count() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Count())
	}
}

func TestBroadcasterPublish(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventLoaded, Location: "xenium_cache.json", Files: 2})

	select {
	case received := <-ch:
		if received.Type != EventLoaded {
			t.Errorf("expected type %s, got %s", EventLoaded, received.Type)
		}
		if received.Files != 2 {
			t.Errorf("expected 2 files, got %d", received.Files)
		}
		if received.Timestamp == 0 {
			t.Error("expected non-zero timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcasterDropsForSlowConsumer(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < 40; i++ {
		b.Publish(Event{Type: EventReloaded})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			goto done
		}
	}
done:
	if count != 16 {
		t.Errorf("expected 16 buffered events, got %d", count)
	}
}

func TestMarshalEvent(t *testing.T) {
	data, err := MarshalEvent(Event{Type: EventFailed, Error: "boom", Timestamp: 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"failed","location":"","error":"boom","timestamp":1}` {
		t.Errorf("unexpected json: %s", data)
	}
}

func TestBroadcasterReplaysLatestToNewSubscriber(t *testing.T) {
	b := NewBroadcaster()
	if _, ok := b.Latest(); ok {
		t.Fatal("expected no latest event before publish")
	}
	b.Publish(Event{Type: EventLoaded, Files: 1})
	b.Publish(Event{Type: EventFailed, Error: "boom"})

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	select {
	case e := <-ch:
		if e.Type != EventFailed || e.Error != "boom" {
			t.Errorf("expected latest failed event, got %+v", e)
		}
	default:
		t.Fatal("new subscriber did not receive the latest event")
	}
	select {
	case e := <-ch:
		t.Errorf("unexpected extra event %+v", e)
	default:
	}
}

func TestBroadcasterClose(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()

	b.Close()
	if _, ok := <-ch; ok {
		t.Fatal("expected subscriber channel closed")
	}
	if b.Count() != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", b.Count())
	}
	b.Unsubscribe(ch)
	b.Close()

	late := b.Subscribe()
	if _, ok := <-late; ok {
		t.Error("expected subscribe after close to return a closed channel")
	}
	b.Publish(Event{Type: EventReloaded})
}
