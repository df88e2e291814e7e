package feedhub

import (
	"log"

	"civicpulse/backend/internal/models"
	"civicpulse/backend/internal/storage"
)

// ManagerService is the hub for live feed subscribers. Every event published
// to the feed channel is fanned out to all registered clients. A client that
// cannot keep up is dropped; it can catch up over the cursor API after
// reconnecting.
type ManagerService struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan models.FeedEvent

	Storage *storage.Service

	pubSubCh chan models.FeedEvent
}

func NewManagerService(s *storage.Service) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan models.FeedEvent),
		Storage:      s,
		pubSubCh:     make(chan models.FeedEvent),
	}
}

// Run processes registration and broadcast commands. Call in its own
// goroutine.
func (m *ManagerService) Run() {
	m.StartPubSubListener()

	for {
		select {
		case client := <-m.RegisterCh:
			if old, ok := m.Clients[client.GetUserID()]; ok {
				old.Close()
			}
			m.Clients[client.GetUserID()] = client
			client.Run()
			log.Printf("Feed client registered: %s (%d online)", client.GetUserID(), len(m.Clients))

		case client := <-m.UnregisterCh:
			if current, ok := m.Clients[client.GetUserID()]; ok && current == client {
				delete(m.Clients, client.GetUserID())
				client.Close()
				log.Printf("Feed client unregistered: %s (%d online)", client.GetUserID(), len(m.Clients))
			}

		case ev := <-m.BroadcastCh:
			m.fanOut(ev)

		case ev := <-m.pubSubCh:
			// Event arrived from another server instance via Redis.
			m.fanOut(ev)
		}
	}
}

// BroadcastLocal hands a locally published event to this instance's
// subscribers when no Redis bridge is running. With Redis present it is a
// no-op: the pub/sub listener delivers the event instead, to every instance.
func (m *ManagerService) BroadcastLocal(ev models.FeedEvent) {
	if m.Storage != nil && m.Storage.Redis != nil {
		return
	}
	m.BroadcastCh <- ev
}

func (m *ManagerService) fanOut(ev models.FeedEvent) {
	for uid, client := range m.Clients {
		select {
		case client.GetSendChannel() <- ev:
		default:
			// Slow consumer. Drop it rather than stall the hub.
			delete(m.Clients, uid)
			client.Close()
			log.Printf("Feed client %s too slow, dropped", uid)
		}
	}
}
