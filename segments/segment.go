package segments

// Segment is a single speaker turn, in seconds from the start of the
// recording. End is exclusive. Channel is the RTTM channel the turn was
// read from; zero means unset and is written as channel 1.
type Segment struct {
	Speaker string  `json:"speaker"`
	Channel int     `json:"channel,omitempty"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Duration returns the turn length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// TotalSpeech sums the durations of all turns.
func TotalSpeech(segs []Segment) float64 {
	total := 0.0
	for _, s := range segs {
		total += s.Duration()
	}
	return total
}

// Speakers returns the distinct speaker names in first-appearance order.
func Speakers(segs []Segment) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range segs {
		if _, ok := seen[s.Speaker]; ok {
			continue
		}
		seen[s.Speaker] = struct{}{}
		names = append(names, s.Speaker)
	}
	return names
}
