package realtime

import (
	"encoding/json"
	"sync"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/metrics"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
)

const clientBuffer = 32

// Client -> satu koneksi websocket (dashboard admin, layar POS, atau customer)
type Client struct {
	ID     string
	Role   string
	UserID uint
	Send   chan []byte

	rooms map[string]bool
}

func NewClient(id, role string, userID uint) *Client {
	return &Client{
		ID:     id,
		Role:   role,
		UserID: userID,
		Send:   make(chan []byte, clientBuffer),
		rooms:  make(map[string]bool),
	}
}

// Hub menampung semua client dan keanggotaan room mereka
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register -> menambahkan client beserta room awalnya
func (h *Hub) Register(client *Client, rooms ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range rooms {
		client.rooms[room] = true
	}
	h.clients[client.ID] = client
	metrics.RealtimeClients.Set(float64(len(h.clients)))
}

// Unregister -> melepaskan client dan menutup channel Send
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
	metrics.RealtimeClients.Set(float64(len(h.clients)))
}

func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.rooms[room] = true
}

func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(client.rooms, room)
}

func (h *Hub) InRoom(client *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return client.rooms[room]
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish mengirim event ke semua client di room. Client yang lambat
// (buffer penuh) kehilangan pesan dan harus refetch.
func (h *Hub) Publish(room, event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Room: room, Data: data})
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("event", event).Error("Error marshaling realtime message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.clients {
		if !client.rooms[room] {
			continue
		}
		select {
		case client.Send <- payload:
			sent++
		default:
			metrics.RealtimeDropped.Inc()
			utils.ErrorLogger.WithField("client_id", client.ID).Warn("Dropping realtime message for slow client")
		}
	}

	utils.InfoLogger.WithFields(map[string]interface{}{
		"room":    room,
		"event":   event,
		"clients": sent,
	}).Debug("Broadcast realtime message")
}

// ControlMessage -> pesan dari client untuk join/leave room
type ControlMessage struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

func ParseControl(data []byte) (ControlMessage, bool) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ControlMessage{}, false
	}
	if msg.Action != "join" && msg.Action != "leave" {
		return ControlMessage{}, false
	}
	if msg.Room == "" {
		return ControlMessage{}, false
	}
	return msg, true
}
