package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, topic string) *Client {
	return &Client{
		hub:   hub,
		topic: topic,
		send:  make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	topic := TopicOrder(uuid.New())
	client := mockClient(hub, topic)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[topic] == nil {
		t.Fatal("topic room not created")
	}
	if !hub.rooms[topic][client] {
		t.Fatal("client not registered in topic room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	topic := TopicOrder(uuid.New())
	client := mockClient(hub, topic)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[topic] != nil {
		t.Fatal("topic room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	topic1 := TopicOrder(uuid.New())
	topic2 := TopicOrder(uuid.New())

	client1 := mockClient(hub, topic1)
	client2 := mockClient(hub, topic2)

	// Register both clients
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	// Broadcast to topic1 only
	testPayload := json.RawMessage(`{"order_id":"test-123"}`)
	event := Event{
		Type:    "order.created",
		Payload: testPayload,
	}
	hub.Broadcast(topic1, event)

	// Check client1 receives the message
	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "order.created" {
			t.Errorf("expected type 'order.created', got '%s'", received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	// Check client2 does NOT receive the message
	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for different topic")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsOnSameTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, TopicOrders)
	client2 := mockClient(hub, TopicOrders)
	client3 := mockClient(hub, TopicOrders)

	// Register all clients to the shared staff topic
	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	// Broadcast event
	testPayload := json.RawMessage(`[{"status":"ready"}]`)
	event := Event{
		Type:    "orders.snapshot",
		Payload: testPayload,
	}
	hub.Broadcast(TopicOrders, event)

	// All three clients should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "orders.snapshot" {
				t.Errorf("client%d: expected type 'orders.snapshot', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestEventSerialization(t *testing.T) {
	testCases := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{
			name: "order created event",
			event: Event{
				Type:    "order.created",
				Payload: json.RawMessage(`{"id":"abc","total":"25000.00"}`),
			},
			wantErr: false,
		},
		{
			name: "order updated event",
			event: Event{
				Type:    "order.updated",
				Payload: json.RawMessage(`{"id":"def","status":"delivered"}`),
			},
			wantErr: false,
		},
		{
			name: "orders snapshot event",
			event: Event{
				Type:    "orders.snapshot",
				Payload: json.RawMessage(`[{"id":"ghi","status":"preparing"}]`),
			},
			wantErr: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.event)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Marshal error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}

			// Verify we can unmarshal back
			var decoded Event
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}

			if decoded.Type != tc.event.Type {
				t.Errorf("Type mismatch: got %s, want %s", decoded.Type, tc.event.Type)
			}
			if string(decoded.Payload) != string(tc.event.Payload) {
				t.Errorf("Payload mismatch: got %s, want %s", decoded.Payload, tc.event.Payload)
			}
		})
	}
}

func TestHubMultipleTopicsIsolation(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	order1 := uuid.New()
	order2 := uuid.New()

	topics := []string{TopicOrders, TopicOrder(order1), TopicOrder(order2)}

	// Create 2 clients per topic
	clients := map[string][]*Client{}
	for _, topic := range topics {
		clients[topic] = []*Client{mockClient(hub, topic), mockClient(hub, topic)}
	}

	// Register all clients
	for _, clientList := range clients {
		for _, client := range clientList {
			hub.register <- client
		}
	}
	time.Sleep(10 * time.Millisecond)

	// Broadcast to order1's topic only
	target := TopicOrder(order1)
	event := Event{
		Type:    "order.updated",
		Payload: json.RawMessage(`{"id":"` + order1.String() + `"}`),
	}
	hub.Broadcast(target, event)

	// Only order1's clients should receive
	for topic, clientList := range clients {
		for i, client := range clientList {
			select {
			case msg := <-client.send:
				if topic != target {
					t.Fatalf("topic %s client %d should not receive message", topic, i)
				}
				var received Event
				if err := json.Unmarshal(msg, &received); err != nil {
					t.Fatalf("unmarshal error: %v", err)
				}
				if received.Type != "order.updated" {
					t.Errorf("wrong event type: %s", received.Type)
				}
			case <-time.After(50 * time.Millisecond):
				if topic == target {
					t.Fatalf("target topic client %d should have received message", i)
				}
				// Expected for other topics
			}
		}
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	topic := TopicOrder(uuid.New())
	client1 := mockClient(hub, topic)
	client2 := mockClient(hub, topic)

	// Register both clients
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[topic]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[topic]))
	}
	hub.mu.RUnlock()

	// Unregister first client
	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[topic]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[topic]))
	}
	hub.mu.RUnlock()

	// Unregister second client
	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms[topic] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToNonExistentTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Create a client subscribed to one order
	client1 := mockClient(hub, TopicOrder(uuid.New()))
	hub.register <- client1
	time.Sleep(10 * time.Millisecond)

	// Broadcast to a different order's topic (no subscribers)
	event := Event{
		Type:    "order.created",
		Payload: json.RawMessage(`{"test":"data"}`),
	}
	hub.Broadcast(TopicOrder(uuid.New()), event)

	// client1 should NOT receive anything
	select {
	case <-client1.send:
		t.Fatal("client should not receive message for different topic")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}
