package feedhub

import (
	"encoding/json"
	"log"

	"civicpulse/backend/internal/models"
)

// StartPubSubListener starts a goroutine relaying feed events from Redis
// pub/sub into the hub. Events published on this instance still reach local
// clients through BroadcastCh when Redis is unavailable.
func (m *ManagerService) StartPubSubListener() {
	if m.Storage == nil || m.Storage.Redis == nil {
		return
	}

	go func() {
		pubsub := m.Storage.SubscribeFeed()
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var ev models.FeedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("Error unmarshalling feed event from Redis: %v", err)
				continue
			}
			m.pubSubCh <- ev
		}
	}()
}
