package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans job transition events out to websocket listeners. Events are also
// published through redis so listeners connected to another instance see
// transitions from the worker that owns the job.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	JobID string
	Send  chan []byte
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

func (h *Hub) Register(jobID string) *Client {
	client := &Client{
		JobID: jobID,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[jobID] == nil {
		h.clients[jobID] = map[*Client]struct{}{}
	}
	h.clients[jobID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if jobClients, ok := h.clients[client.JobID]; ok {
		delete(jobClients, client)
		if len(jobClients) == 0 {
			delete(h.clients, client.JobID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(jobID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[jobID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(jobID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "routejob:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		jobID := jobIDFromChannel(msg.Channel)
		h.mu.RLock()
		clients := h.clients[jobID]
		h.mu.RUnlock()
		for client := range clients {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
	}
}

func redisChannel(jobID string) string {
	return "routejob:" + jobID + ":events"
}

func jobIDFromChannel(ch string) string {
	// routejob:{job}:events
	const prefix = "routejob:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
