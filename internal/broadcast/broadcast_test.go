package broadcast

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
)

type fakeSink struct {
	mu       sync.Mutex
	received []models.Event
	failNext bool
	closed   bool
}

func (f *fakeSink) SendJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return errors.New("send failed")
	}
	f.received = append(f.received, v.(models.Event))
	return nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

func (f *fakeSink) events() []models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Event(nil), f.received...)
}

func priceAlertEvent(addr string) models.Event {
	return models.Event{
		Kind:      models.EventPriceAlert,
		Timestamp: time.Now(),
		PriceAlert: &models.PriceAlertPayload{
			Address: addr,
		},
	}
}

func TestBroadcaster_GlobalDeliveryToEveryConnection(t *testing.T) {
	b := New()
	s1, s2 := &fakeSink{}, &fakeSink{}
	b.OnConnect("c1", s1)
	b.OnConnect("c2", s2)

	b.Broadcast([]models.Event{priceAlertEvent("0xaaa")})

	if len(s1.events()) != 1 || len(s2.events()) != 1 {
		t.Fatalf("expected both connections to receive the global event, got %d and %d", len(s1.events()), len(s2.events()))
	}
}

func TestBroadcaster_SubscribedTokenUpdateOnlyToSubscribers(t *testing.T) {
	b := New()
	subscribed, unsubscribed := &fakeSink{}, &fakeSink{}
	b.OnConnect("sub", subscribed)
	b.OnConnect("unsub", unsubscribed)
	b.Subscribe("sub", []string{"0xAAA"})

	b.Broadcast([]models.Event{priceAlertEvent("0xaaa")})

	subEvents := subscribed.events()
	if len(subEvents) != 2 {
		t.Fatalf("expected subscriber to receive global + per-token event, got %d", len(subEvents))
	}
	foundTokenUpdate := false
	for _, e := range subEvents {
		if e.Kind == models.EventSubscribedTokenUpdate {
			foundTokenUpdate = true
		}
	}
	if !foundTokenUpdate {
		t.Error("expected a subscribed_token_update among the subscriber's events")
	}

	unsubEvents := unsubscribed.events()
	if len(unsubEvents) != 1 {
		t.Fatalf("expected the non-subscriber to receive only the global event, got %d", len(unsubEvents))
	}
}

func TestBroadcaster_UnsubscribeStopsPerTokenDelivery(t *testing.T) {
	b := New()
	sink := &fakeSink{}
	b.OnConnect("c1", sink)
	b.Subscribe("c1", []string{"0xaaa"})
	b.Unsubscribe("c1", []string{"0xaaa"})

	b.Broadcast([]models.Event{priceAlertEvent("0xaaa")})

	events := sink.events()
	if len(events) != 1 {
		t.Fatalf("expected only the global event after unsubscribe, got %d", len(events))
	}
}

func TestBroadcaster_FailingSinkIsDroppedNotBlocking(t *testing.T) {
	b := New()
	failing, ok := &fakeSink{failNext: true}, &fakeSink{}
	b.OnConnect("failing", failing)
	b.OnConnect("ok", ok)

	b.Broadcast([]models.Event{priceAlertEvent("0xaaa")})

	if len(ok.events()) != 1 {
		t.Fatalf("expected the healthy connection to still receive the event, got %d", len(ok.events()))
	}

	b.mu.RLock()
	_, stillRegistered := b.conns["failing"]
	b.mu.RUnlock()
	if stillRegistered {
		t.Error("expected a failing sink to be dropped from the registry")
	}
}

func TestBroadcaster_SubscriptionsReflectsCurrentState(t *testing.T) {
	b := New()
	sink := &fakeSink{}
	b.OnConnect("c1", sink)
	b.Subscribe("c1", []string{"0xAAA", "0xbbb"})

	subs := b.Subscriptions()
	if len(subs) != 1 {
		t.Fatalf("expected 1 connection's subscriptions, got %d", len(subs))
	}
	if subs[0].ConnectionID != "c1" {
		t.Errorf("expected c1, got %s", subs[0].ConnectionID)
	}
	if !subs[0].Contains("0xaaa") || !subs[0].Contains("0xbbb") {
		t.Errorf("expected both lowercased addresses present, got %v", subs[0].Addresses)
	}
}

func TestBroadcaster_CloseAllClosesEverySinkAndEmptiesRegistry(t *testing.T) {
	b := New()
	s1, s2 := &fakeSink{}, &fakeSink{}
	b.OnConnect("c1", s1)
	b.OnConnect("c2", s2)

	b.CloseAll()

	if !s1.closed || !s2.closed {
		t.Error("expected CloseAll to close every registered sink")
	}

	b.mu.RLock()
	remaining := len(b.conns)
	b.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("expected the registry to be empty after CloseAll, got %d entries", remaining)
	}
}

func TestBroadcaster_OnDisconnectRemovesEntry(t *testing.T) {
	b := New()
	sink := &fakeSink{}
	b.OnConnect("c1", sink)
	b.OnDisconnect("c1")

	b.Broadcast([]models.Event{priceAlertEvent("0xaaa")})

	if len(sink.events()) != 0 {
		t.Fatalf("expected no delivery after disconnect, got %d", len(sink.events()))
	}
}
