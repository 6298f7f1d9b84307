package sse

// Event type constants used on the wire.
const (
	// EventTypeConnected is sent once when a client's stream opens.
	EventTypeConnected = "connected"

	// EventTypeProgress carries job progress updates.
	EventTypeProgress = "progress"
)
