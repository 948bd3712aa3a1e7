package marketplace_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vouchify/deals-engine/internal/limits"
	"github.com/vouchify/deals-engine/internal/marketplace"
	"github.com/vouchify/deals-engine/internal/store"
)

func TestWSHub_BroadcastsBookings(t *testing.T) {
	ms := store.NewMemoryStore()
	seedDeal(t, ms, "d1", 2500, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := marketplace.NewWSHub()
	go hub.Run(ctx)

	svc := marketplace.NewService(ms, limits.NewPurchaseLimiter(0, 0), hub)
	r := chi.NewRouter()
	r.Route("/api/v1", svc.RegisterRoutes)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	body := `{"deal_id":"d1","customer_name":"Ada","customer_email":"ada@example.com","quantity":3}`
	resp, err := http.Post(srv.URL+"/api/v1/checkout", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg marketplace.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode message %s: %v", data, err)
	}
	if msg.Type != marketplace.EventBookingCreated || msg.DealID != "d1" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.SoldCount != 3 || msg.Quantity != 3 {
		t.Errorf("expected sold count 3 and quantity 3, got %d and %d", msg.SoldCount, msg.Quantity)
	}
}

func TestWSHub_BroadcastWithoutClients(t *testing.T) {
	hub := marketplace.NewWSHub()
	// No Run loop: Broadcast must not block once the buffer fills.
	done := make(chan struct{})
	go func() {
		for range 1000 {
			hub.Broadcast(marketplace.WSMessage{Type: marketplace.EventDealUpdated, DealID: "d1", IsActive: true})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected no clients, got %d", hub.ClientCount())
	}
}

func TestWSHub_RunStopsOnCancel(t *testing.T) {
	hub := marketplace.NewWSHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// hubGoroutines counts goroutines still running inside WSHub.HandleWS.
func hubGoroutines() int {
	buf := make([]byte, 1<<20)
	buf = buf[:runtime.Stack(buf, true)]
	return strings.Count(string(buf), "(*WSHub).HandleWS.func")
}

func TestWSHub_NoGoroutinesLeftAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := marketplace.NewWSHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	r := chi.NewRouter()
	r.Get("/ws", hub.HandleWS)
	srv := httptest.NewServer(r)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-stopped
	conn.Close()

	// A client arriving after shutdown is closed instead of hanging.
	late, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial after shutdown: %v", err)
	}
	defer late.Close()
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = late.ReadMessage()
	var ne net.Error
	if err == nil || (errors.As(err, &ne) && ne.Timeout()) {
		t.Fatalf("expected server to close late connection, got %v", err)
	}

	deadline = time.Now().Add(2 * time.Second)
	for hubGoroutines() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("%d hub goroutines still running after shutdown", hubGoroutines())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
