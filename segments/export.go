package segments

import (
	"fmt"

	"github.com/skillsenselab/vbdiar/errors"
)

// Exporter reconstructs speaker turns from the engine's downsampled
// tick labels. Ticks are expanded back to the frame rate, truncated to
// the masked frame count, scattered through the speech mask onto the
// raw timeline, and merged into turns. Frames outside the mask stay
// unlabeled and become gaps; any negative tick label is also a gap.
type Exporter struct {
	// FrameShift is the frame step in seconds.
	FrameShift float64
	// Downsample is the tick width in frames.
	Downsample int
	// Names maps speaker slots to output names. Slots beyond the table
	// (or with empty entries) get synthetic "speaker<slot>" names.
	Names []string
}

// FromTicks converts per-tick hard labels into ordered turns. mask
// holds the raw-frame indices that were processed (strictly
// increasing); total is the raw frame count.
func (e Exporter) FromTicks(ticks []int, mask []int, total int) ([]Segment, error) {
	if e.FrameShift <= 0 {
		return nil, errors.InvalidInput("frame_shift", "must be positive")
	}
	if e.Downsample < 1 {
		return nil, errors.InvalidInput("downsample", "must be at least 1")
	}
	if len(mask) > total {
		return nil, errors.InputShape("mask", total, len(mask))
	}
	wantTicks := (len(mask) + e.Downsample - 1) / e.Downsample
	if len(ticks) != wantTicks {
		return nil, errors.InputShape("ticks", wantTicks, len(ticks))
	}

	// Raw timeline, gaps everywhere a speech frame was not processed.
	raw := make([]int, total)
	for i := range raw {
		raw[i] = -1
	}
	prev := -1
	for i, idx := range mask {
		if idx < 0 || idx >= total || idx <= prev {
			return nil, errors.InvalidInput("mask", fmt.Sprintf("indices must be strictly increasing within [0,%d)", total))
		}
		prev = idx
		raw[idx] = ticks[i/e.Downsample]
	}

	// Merge runs of equal labels into turns.
	var segs []Segment
	runStart, runLabel := 0, -1
	flush := func(end int) {
		if runLabel >= 0 {
			segs = append(segs, Segment{
				Speaker: e.name(runLabel),
				Start:   float64(runStart) * e.FrameShift,
				End:     float64(end) * e.FrameShift,
			})
		}
	}
	for t := 0; t < total; t++ {
		if raw[t] != runLabel {
			flush(t)
			runStart, runLabel = t, raw[t]
		}
	}
	flush(total)
	return segs, nil
}

func (e Exporter) name(slot int) string {
	if slot < len(e.Names) && e.Names[slot] != "" {
		return e.Names[slot]
	}
	return fmt.Sprintf("speaker%d", slot)
}
