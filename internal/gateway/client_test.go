package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"flipfield.gg/internal/pipeline"
	"flipfield.gg/internal/protocol"
)

// fakeGateway upgrades one connection, checks the SUB handshake, streams a
// few events and answers flips.
type fakeGateway struct {
	t        *testing.T
	upgrader websocket.Upgrader
	reject   bool
}

func (g *fakeGateway) handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := g.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub protocol.SubMsg
		if err := json.Unmarshal(msg, &sub); err != nil || sub.Type != protocol.TypeSub {
			g.t.Errorf("expected SUB, got %s", msg)
			return
		}
		if sub.Grid != "main" {
			g.t.Errorf("grid = %q", sub.Grid)
			return
		}

		x, y := 3, 4
		events := []protocol.EventMsg{
			{Type: protocol.TypeEvent, Grid: sub.Grid, Key: "k1", Value: "0x0"},
			{Type: protocol.TypeEvent, Grid: sub.Grid, Key: "k2", Value: "0xdeadbeef10a3", X: &x, Y: &y},
		}
		for _, ev := range events {
			b, _ := json.Marshal(ev)
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var flip protocol.FlipMsg
			if err := json.Unmarshal(msg, &flip); err != nil || flip.Type != protocol.TypeFlip {
				continue
			}
			res := protocol.ResultMsg{Type: protocol.TypeResult, ID: flip.ID, OK: true, Ref: "0xfeed01"}
			if g.reject {
				res = protocol.ResultMsg{Type: protocol.TypeResult, ID: flip.ID, OK: false, Err: protocol.ErrRateLimit}
			}
			b, _ := json.Marshal(res)
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

func dialFake(t *testing.T, g *fakeGateway) *Client {
	t.Helper()
	srv := httptest.NewServer(g.handler())
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	c, err := Dial(context.Background(), url, "main", log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_SubscribeDeliversEvents(t *testing.T) {
	c := dialFake(t, &fakeGateway{t: t})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	events, err := c.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ev1 := <-events
	if ev1.Key != "k1" || ev1.Value != "0x0" || ev1.X != nil {
		t.Fatalf("event 1 = %+v", ev1)
	}
	ev2 := <-events
	if ev2.Key != "k2" || ev2.X == nil || *ev2.X != 3 || *ev2.Y != 4 {
		t.Fatalf("event 2 = %+v", ev2)
	}
}

func TestClient_SubscribeCancellation(t *testing.T) {
	c := dialFake(t, &fakeGateway{t: t})

	ctx, cancel := context.WithCancel(context.Background())
	events, err := c.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("event channel not closed after cancel")
		}
	}
}

func TestClient_ExecuteSuccess(t *testing.T) {
	c := dialFake(t, &fakeGateway{t: t})

	ref, err := c.Execute(context.Background(), []pipeline.Claim{{X: 1, Y: 2, Team: 3}})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if ref != "0xfeed01" {
		t.Fatalf("ref = %q", ref)
	}
}

func TestClient_ExecuteRejected(t *testing.T) {
	c := dialFake(t, &fakeGateway{t: t, reject: true})

	_, err := c.Execute(context.Background(), []pipeline.Claim{{X: 1, Y: 2, Team: 3}})
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if !strings.Contains(err.Error(), protocol.ErrRateLimit) {
		t.Fatalf("error %q does not carry the gateway code", err)
	}
}

func TestClient_ExecuteEmptyChunk(t *testing.T) {
	c := dialFake(t, &fakeGateway{t: t})
	if _, err := c.Execute(context.Background(), nil); err == nil {
		t.Fatalf("empty chunk accepted")
	}
}

func TestClient_ExecuteAfterClose(t *testing.T) {
	c := dialFake(t, &fakeGateway{t: t})
	_ = c.Close()

	_, err := c.Execute(context.Background(), []pipeline.Claim{{X: 0, Y: 0, Team: 1}})
	if err == nil {
		t.Fatalf("execute on closed client accepted")
	}
}
