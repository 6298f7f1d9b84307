package service

import (
	"encoding/json"
	"fmt"

	"github.com/skillsenselab/vbdiar/batch"
	"github.com/skillsenselab/vbdiar/logger"
	"github.com/skillsenselab/vbdiar/sse"
)

// progressEvent is the wire form of a job progress event on the SSE
// stream.
type progressEvent struct {
	Type string `json:"type"`
	batch.Event
}

// hubSink adapts batch progress events onto the SSE hub. Events for a
// run are broadcast to every client subscribed to that job, matching
// the "job:<jobID>:*" client ID pattern. Publish never blocks: slow
// clients drop events at their channel.
type hubSink struct {
	hub *sse.Hub
	log *logger.Logger
}

func newHubSink(hub *sse.Hub, log *logger.Logger) *hubSink {
	return &hubSink{hub: hub, log: log.WithComponent("job-events")}
}

// Publish broadcasts the event to the job's SSE clients.
func (s *hubSink) Publish(ev batch.Event) {
	data, err := json.Marshal(progressEvent{Type: sse.EventTypeProgress, Event: ev})
	if err != nil {
		s.log.Warn("progress event not serializable", logger.ErrorFields("marshal", err))
		return
	}
	s.hub.BroadcastToPattern(fmt.Sprintf("job:%s:*", ev.RunID), data)
}

var _ batch.EventSink = (*hubSink)(nil)
