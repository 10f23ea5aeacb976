// Package broadcast maintains the subscriber registry and fans events
// out to connected clients. It is transport-agnostic: delivery goes
// through the Sink interface so this package never imports a websocket
// library directly — only internal/transport binds a concrete Sink.
package broadcast

import (
	"strings"
	"sync"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
)

// Sink is one connected client's outbound channel. SendJSON mirrors the
// teacher's WebSocketClient.SendJSON lifecycle (connected check, single
// write call, caller handles the error) but server-side and generic
// over event payloads instead of arbitrary interface{} writes.
type Sink interface {
	SendJSON(v interface{}) error
	Close() error
}

type connection struct {
	sink Sink
	mu   sync.RWMutex
	subs map[string]struct{}
}

// Broadcaster owns the connection registry and does fire-and-forget,
// best-effort, at-most-once delivery per spec.md §4.8. A slow or failing
// Sink never blocks or affects delivery to the others.
type Broadcaster struct {
	mu    sync.RWMutex
	conns map[string]*connection
}

// New returns an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{conns: make(map[string]*connection)}
}

// OnConnect registers id with an empty subscription set. Never fails.
func (b *Broadcaster) OnConnect(id string, sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[id] = &connection{sink: sink, subs: make(map[string]struct{})}
}

// OnDisconnect removes id's entry. The caller is responsible for closing
// the underlying Sink; OnDisconnect only forgets the registry entry.
func (b *Broadcaster) OnDisconnect(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, id)
}

// CloseAll closes every connected Sink and empties the registry, for
// process shutdown once the HTTP/WS listener has stopped accepting new
// connections.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, c := range b.conns {
		c.sink.Close()
		delete(b.conns, id)
	}
}

// Subscribe adds lowercased addresses to id's subscription set.
func (b *Broadcaster) Subscribe(id string, addresses []string) {
	b.withConn(id, func(c *connection) {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, a := range addresses {
			c.subs[strings.ToLower(a)] = struct{}{}
		}
	})
}

// Unsubscribe removes lowercased addresses from id's subscription set.
func (b *Broadcaster) Unsubscribe(id string, addresses []string) {
	b.withConn(id, func(c *connection) {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, a := range addresses {
			delete(c.subs, strings.ToLower(a))
		}
	})
}

// Subscriptions returns a snapshot of every connection's subscription
// set, keyed by connection id.
func (b *Broadcaster) Subscriptions() []models.Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.Subscription, 0, len(b.conns))
	for id, c := range b.conns {
		c.mu.RLock()
		addrs := make(map[string]struct{}, len(c.subs))
		for a := range c.subs {
			addrs[a] = struct{}{}
		}
		c.mu.RUnlock()
		out = append(out, models.Subscription{ConnectionID: id, Addresses: addrs})
	}
	return out
}

func (b *Broadcaster) withConn(id string, f func(*connection)) {
	b.mu.RLock()
	c, ok := b.conns[id]
	b.mu.RUnlock()
	if ok {
		f(c)
	}
}

// Broadcast delivers events to every connected subscriber over the
// global channel, then, for each alert event, additionally delivers a
// subscribed_token_update to connections subscribed to that event's
// address. Delivery to each connection runs independently and
// concurrently; a failing Sink is dropped from the registry but never
// blocks delivery to the others.
func (b *Broadcaster) Broadcast(events []models.Event) {
	b.mu.RLock()
	snapshot := make(map[string]*connection, len(b.conns))
	for id, c := range b.conns {
		snapshot[id] = c
	}
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for id, c := range snapshot {
		for _, ev := range events {
			wg.Add(1)
			go func(id string, c *connection, ev models.Event) {
				defer wg.Done()
				b.deliverGlobal(id, c, ev)
			}(id, c, ev)
		}
	}
	wg.Wait()
}

func (b *Broadcaster) deliverGlobal(id string, c *connection, ev models.Event) {
	if err := c.sink.SendJSON(ev); err != nil {
		b.OnDisconnect(id)
		return
	}

	addr := ev.Address()
	if addr == "" {
		return
	}
	c.mu.RLock()
	_, subscribed := c.subs[addr]
	c.mu.RUnlock()
	if !subscribed {
		return
	}

	tokenUpdate := models.Event{
		Kind:      models.EventSubscribedTokenUpdate,
		Timestamp: ev.Timestamp,
	}
	switch ev.Kind {
	case models.EventPriceAlert:
		tokenUpdate.PriceAlert = ev.PriceAlert
	case models.EventVolumeAlert:
		tokenUpdate.VolumeAlert = ev.VolumeAlert
	case models.EventMarketCapAlert:
		tokenUpdate.MarketCapAlert = ev.MarketCapAlert
	case models.EventLiquidityAlert:
		tokenUpdate.LiquidityAlert = ev.LiquidityAlert
	default:
		return
	}

	_ = c.sink.SendJSON(tokenUpdate)
}
