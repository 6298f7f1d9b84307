package sse

// Broadcaster is the event-publishing side of the hub. The service's
// progress sink depends on this rather than on a concrete Hub.
type Broadcaster interface {
	// BroadcastToPattern sends data to all clients whose IDs match the
	// glob pattern, e.g. "job:abc123:*".
	BroadcastToPattern(pattern string, data []byte)
}
