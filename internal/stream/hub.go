package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// LiveUpdate is the payload pushed to watchers after every accepted sample.
type LiveUpdate struct {
	TripID      string   `json:"trip_id"`
	VehicleID   string   `json:"vehicle_id"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	SpeedKmh    *float64 `json:"speed_kmh,omitempty"`
	DistanceKm  float64  `json:"distance_km"`
	MaxSpeedKmh float64  `json:"max_speed_kmh"`
	Alerting    bool     `json:"alerting"`
}

// Hub fans live vehicle telemetry out to websocket watchers. With a Redis
// client it also bridges updates across instances over pub/sub.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	VehicleID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(vehicleID string) *Client {
	client := &Client{
		VehicleID: vehicleID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[vehicleID] == nil {
		h.clients[vehicleID] = map[*Client]struct{}{}
	}
	h.clients[vehicleID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if vehicleClients, ok := h.clients[client.VehicleID]; ok {
		delete(vehicleClients, client)
		if len(vehicleClients) == 0 {
			delete(h.clients, client.VehicleID)
		}
	}
	close(client.Send)
}

// Publish serializes a live update and broadcasts it to the vehicle's
// watchers. Slow watchers are skipped, never waited on.
func (h *Hub) Publish(update LiveUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}
	h.Broadcast(update.VehicleID, payload)
}

func (h *Hub) Broadcast(vehicleID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[vehicleID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(vehicleID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, "telemetry:*:live")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		vehicleID := vehicleIDFromChannel(msg.Channel)
		h.mu.RLock()
		clients := h.clients[vehicleID]
		h.mu.RUnlock()
		for client := range clients {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
	}
}

func redisChannel(vehicleID string) string {
	return "telemetry:" + vehicleID + ":live"
}

func vehicleIDFromChannel(ch string) string {
	// telemetry:{vehicle}:live
	const prefix = "telemetry:"
	const suffix = ":live"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
