package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/nats-io/nats.go"
)

// NATSPublisher mencerminkan setiap event ke subject <prefix>.<room>.<event>
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("restaurant-backend"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if prefix == "" {
		prefix = "restaurant"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

func (p *NATSPublisher) Subject(room, event string) string {
	return p.prefix + "." + room + "." + event
}

func (p *NATSPublisher) Publish(room, event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Room: room, Data: data})
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("event", event).Error("Error marshaling NATS message")
		return
	}
	if err := p.conn.Publish(p.Subject(room, event), payload); err != nil {
		utils.ErrorLogger.WithError(err).WithField("event", event).Warn("NATS publish failed")
	}
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
