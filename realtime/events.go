package realtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Room
const (
	RoomAdmin = "admin"
	RoomPOS   = "pos"

	customerRoomPrefix = "customer-"
)

// Event types
const (
	EventRefillCreated      = "refill-request-created"
	EventRefillUpdated      = "refill-request-updated"
	EventRefillDeleted      = "refill-request-deleted"
	EventRefillTimerExpired = "refill-timer-expired"
	EventReservationCreated = "reservation-created"
	EventReservationUpdated = "reservation-updated"
	EventReservationDeleted = "reservation-deleted"
	EventTableCreated       = "table-created"
	EventTableUpdated       = "table-updated"
)

type Message struct {
	Event string      `json:"event"`
	Room  string      `json:"room"`
	Data  interface{} `json:"data"`
}

// Publisher -> tujuan fan-out event (hub websocket, NATS, dsb)
type Publisher interface {
	Publish(room, event string, data interface{})
}

// MultiPublisher meneruskan setiap event ke semua publisher
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(room, event string, data interface{}) {
	for _, p := range m {
		if p != nil {
			p.Publish(room, event, data)
		}
	}
}

func CustomerRoom(customerID uint) string {
	return fmt.Sprintf("%s%d", customerRoomPrefix, customerID)
}

// ParseCustomerRoom -> customer id dari nama room "customer-<id>"
func ParseCustomerRoom(room string) (uint, bool) {
	if !strings.HasPrefix(room, customerRoomPrefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(room, customerRoomPrefix), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// CanJoin -> aturan akses room berdasarkan role token
func CanJoin(role string, userID uint, room string) bool {
	switch room {
	case RoomAdmin:
		return role == "admin" || role == "staff"
	case RoomPOS:
		return role == "admin" || role == "staff" || role == "pos"
	}
	if id, ok := ParseCustomerRoom(room); ok {
		if role == "admin" || role == "staff" {
			return true
		}
		return role == "customer" && userID == id
	}
	return false
}
