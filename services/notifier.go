package services

import "github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/realtime"

// Publisher -> port notifikasi realtime yang dipanggil setelah commit berhasil
type Publisher interface {
	Publish(room, event string, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, interface{}) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// emit mengirim event ke room yang diminta dan ke room pribadi customer (jika ada)
func emit(p Publisher, event string, data interface{}, customerID *uint, rooms ...string) {
	for _, room := range rooms {
		p.Publish(room, event, data)
	}
	if customerID != nil && *customerID > 0 {
		p.Publish(realtime.CustomerRoom(*customerID), event, data)
	}
}
