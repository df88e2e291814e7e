package feedhub

import "civicpulse/backend/internal/models"

// Client is the interface for any live feed subscriber. It abstracts the
// underlying connection so the hub can manage WebSocket and future transports
// uniformly.
type Client interface {
	// GetUserID returns the unique identifier for the user associated with
	// the connection.
	GetUserID() string

	// GetSendChannel returns the channel the hub delivers feed events on.
	// It is a send-only channel.
	GetSendChannel() chan<- models.FeedEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's connection and associated channels.
	Close()
}
