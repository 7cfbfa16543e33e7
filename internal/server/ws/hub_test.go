package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

type chanBus struct {
	chans map[string]chan []byte
}

func newChanBus(channels ...string) *chanBus {
	b := &chanBus{chans: make(map[string]chan []byte)}
	for _, ch := range channels {
		b.chans[ch] = make(chan []byte, 8)
	}
	return b
}

func (b *chanBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.chans[channel] <- payload
	return nil
}

func (b *chanBus) Subscribe(_ context.Context, channel string) (<-chan []byte, error) {
	ch, ok := b.chans[channel]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return ch, nil
}

func (b *chanBus) StreamAppend(context.Context, string, []byte) error { return nil }

func (b *chanBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return env
}

func TestHubRelaysBusMessages(t *testing.T) {
	bus := newChanBus(DefaultChannels...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(bus, logger, Config{Mode: "Full"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	status := readEnvelope(t, conn)
	if status.Type != "status" {
		t.Fatalf("first frame type = %q, want status", status.Type)
	}
	var meta map[string]any
	json.Unmarshal(status.Payload, &meta)
	if meta["mode"] != "full" {
		t.Errorf("mode = %v", meta["mode"])
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bus.Publish(ctx, domain.ChannelOpportunities, []byte(`{"event_key":"nba-final","edge":0.1}`))
	env := readEnvelope(t, conn)
	if env.Type != domain.ChannelOpportunities {
		t.Errorf("type = %q", env.Type)
	}
	var payload map[string]any
	json.Unmarshal(env.Payload, &payload)
	if payload["event_key"] != "nba-final" {
		t.Errorf("payload = %v", payload)
	}
}

func TestClientSubscriptions(t *testing.T) {
	c := &client{subs: map[string]bool{"arb": true, "scans": true}}

	c.handleSubscription(subscribeMsg{Action: "unsubscribe", Channels: []string{"arb"}})
	if c.isSubscribed("arb") {
		t.Error("still subscribed to arb")
	}
	if !c.isSubscribed("scans") {
		t.Error("lost scans subscription")
	}

	c.handleSubscription(subscribeMsg{Action: "subscribe", Channels: []string{"arb"}})
	if !c.isSubscribed("arb") {
		t.Error("resubscribe failed")
	}

	c.handleSubscription(subscribeMsg{Action: "bogus", Channels: []string{"x"}})
	if c.isSubscribed("x") {
		t.Error("unknown action changed subscriptions")
	}
}

func TestNewHubDefaults(t *testing.T) {
	hub := NewHub(newChanBus(), slog.New(slog.NewTextHandler(io.Discard, nil)), Config{})
	if hub.mode != "unknown" {
		t.Errorf("mode = %q", hub.mode)
	}
	if len(hub.channels) != len(DefaultChannels) {
		t.Errorf("channels = %v", hub.channels)
	}
	if hub.startedAt.IsZero() {
		t.Error("startedAt not set")
	}
}
