package frames

import (
	"fmt"

	"github.com/skillsenselab/vbdiar/errors"
	"github.com/skillsenselab/vbdiar/segments"
)

// Frame labels outside the speaker slot range.
const (
	LabelSilence = -1
	LabelOverlap = -2
)

// boundaryEps snaps turn times sitting a hair below a frame boundary
// onto it before truncating to a frame index.
const boundaryEps = 1e-6

// Rasterized is a frame-level labeling derived from a turn list.
type Rasterized struct {
	// Labels holds one entry per frame: a speaker slot, LabelSilence,
	// or LabelOverlap.
	Labels []int
	// Speakers maps slots to names in first-appearance order.
	Speakers []string
	// Clamped counts turns whose ends ran past the recording and were
	// truncated. Sloppy edges are expected from upstream clustering.
	Clamped int
}

// Rasterize converts speaker turns into per-frame labels. A frame
// covered by no turn is silence, by exactly one speaker that speaker's
// slot, by more than one distinct speaker overlap. Turn ends are
// inclusive at frame resolution.
func Rasterize(segs []segments.Segment, total int, shift float64) (*Rasterized, error) {
	if total < 1 {
		return nil, errors.InputShape("frames", 1, total)
	}
	if shift <= 0 {
		return nil, errors.InvalidInput("frame_shift", "must be positive")
	}

	slots := make(map[string]int)
	var names []string

	labels := make([]int, total)
	for i := range labels {
		labels[i] = LabelSilence
	}

	clamped := 0
	for _, seg := range segs {
		slot, ok := slots[seg.Speaker]
		if !ok {
			slot = len(names)
			slots[seg.Speaker] = slot
			names = append(names, seg.Speaker)
		}

		onset := int(seg.Start/shift + boundaryEps)
		offset := int(seg.End/shift + boundaryEps)
		if offset >= total {
			offset = total - 1
			clamped++
		}
		if onset < 0 || onset > offset {
			return nil, errors.InvalidInput("labeling",
				fmt.Sprintf("turn (%s %g %g) has impossible frame bounds", seg.Speaker, seg.Start, seg.End))
		}

		for t := onset; t <= offset; t++ {
			switch labels[t] {
			case slot:
				// Same speaker twice; keep the label.
			case LabelSilence:
				labels[t] = slot
			default:
				labels[t] = LabelOverlap
			}
		}
	}

	return &Rasterized{Labels: labels, Speakers: names, Clamped: clamped}, nil
}

// SpeechMask returns the raw indices of frames carrying a single
// speaker label, in increasing order. Silence and overlap frames are
// excluded from engine processing.
func SpeechMask(labels []int) []int {
	var mask []int
	for i, l := range labels {
		if l >= 0 {
			mask = append(mask, i)
		}
	}
	return mask
}

// MaskedLabels compresses labels onto the masked timeline.
func MaskedLabels(labels, mask []int) []int {
	out := make([]int, len(mask))
	for i, idx := range mask {
		out[i] = labels[idx]
	}
	return out
}

// NumTicks returns how many downsampled ticks cover n frames.
func NumTicks(n, downsample int) int {
	if n <= 0 {
		return 0
	}
	return (n + downsample - 1) / downsample
}

// LabelStats summarizes a frame labeling.
type LabelStats struct {
	Total      int
	Silence    int
	Overlap    int
	PerSpeaker []int
}

// Stats counts silence, overlap, and per-slot speech frames.
func Stats(labels []int) LabelStats {
	st := LabelStats{Total: len(labels)}
	for _, l := range labels {
		switch {
		case l == LabelSilence:
			st.Silence++
		case l == LabelOverlap:
			st.Overlap++
		case l >= 0:
			for len(st.PerSpeaker) <= l {
				st.PerSpeaker = append(st.PerSpeaker, 0)
			}
			st.PerSpeaker[l]++
		}
	}
	return st
}
