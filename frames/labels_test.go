package frames

import (
	"testing"

	"github.com/skillsenselab/vbdiar/segments"
)

// --- rasterize tests ---

func TestRasterize(t *testing.T) {
	segs := []segments.Segment{
		{Speaker: "bob", Start: 0.00, End: 0.03},
		{Speaker: "alice", Start: 0.05, End: 0.08},
	}
	r, err := Rasterize(segs, 10, 0.01)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}

	// First-appearance numbering: bob is slot 0, alice slot 1.
	if len(r.Speakers) != 2 || r.Speakers[0] != "bob" || r.Speakers[1] != "alice" {
		t.Fatalf("Speakers = %v", r.Speakers)
	}
	// Turn ends are inclusive at frame resolution.
	want := []int{0, 0, 0, 0, LabelSilence, 1, 1, 1, 1, LabelSilence}
	for i := range want {
		if r.Labels[i] != want[i] {
			t.Errorf("label[%d] = %d, want %d", i, r.Labels[i], want[i])
		}
	}
	if r.Clamped != 0 {
		t.Errorf("clamped = %d, want 0", r.Clamped)
	}
}

func TestRasterizeOverlap(t *testing.T) {
	segs := []segments.Segment{
		{Speaker: "a", Start: 0.00, End: 0.05},
		{Speaker: "b", Start: 0.03, End: 0.08},
	}
	r, err := Rasterize(segs, 10, 0.01)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}

	if r.Labels[2] != 0 {
		t.Errorf("frame 2 = %d, want slot 0", r.Labels[2])
	}
	for i := 3; i <= 5; i++ {
		if r.Labels[i] != LabelOverlap {
			t.Errorf("frame %d = %d, want overlap", i, r.Labels[i])
		}
	}
	if r.Labels[6] != 1 {
		t.Errorf("frame 6 = %d, want slot 1", r.Labels[6])
	}
}

func TestRasterizeSameSpeakerTwice(t *testing.T) {
	// Overlapping turns by the same speaker never count as overlap.
	segs := []segments.Segment{
		{Speaker: "a", Start: 0.00, End: 0.05},
		{Speaker: "a", Start: 0.02, End: 0.07},
	}
	r, err := Rasterize(segs, 10, 0.01)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	for i := 0; i <= 7; i++ {
		if r.Labels[i] != 0 {
			t.Errorf("frame %d = %d, want slot 0", i, r.Labels[i])
		}
	}
}

func TestRasterizeClampsPastEnd(t *testing.T) {
	segs := []segments.Segment{
		{Speaker: "a", Start: 0.08, End: 0.50},
	}
	r, err := Rasterize(segs, 10, 0.01)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if r.Clamped != 1 {
		t.Errorf("clamped = %d, want 1", r.Clamped)
	}
	if r.Labels[8] != 0 || r.Labels[9] != 0 {
		t.Errorf("tail labels = %v", r.Labels[8:])
	}
}

func TestRasterizeImpossibleBounds(t *testing.T) {
	segs := []segments.Segment{
		{Speaker: "a", Start: 0.50, End: 0.60},
	}
	// Recording is only 10 frames; after clamping the turn starts past
	// its own end.
	if _, err := Rasterize(segs, 10, 0.01); err == nil {
		t.Fatal("expected rejection")
	}
}

func TestRasterizeBoundarySnap(t *testing.T) {
	// 0.3/0.01 lands a hair under 30 in floating point; the rasterizer
	// must still put the onset at frame 30.
	segs := []segments.Segment{
		{Speaker: "a", Start: 0.3, End: 0.31},
	}
	r, err := Rasterize(segs, 40, 0.01)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if r.Labels[29] != LabelSilence {
		t.Errorf("frame 29 = %d, want silence", r.Labels[29])
	}
	if r.Labels[30] != 0 {
		t.Errorf("frame 30 = %d, want slot 0", r.Labels[30])
	}
}

// --- mask and tick tests ---

func TestSpeechMask(t *testing.T) {
	labels := []int{LabelSilence, 0, 1, LabelOverlap, 2, LabelSilence}
	mask := SpeechMask(labels)
	want := []int{1, 2, 4}
	if len(mask) != len(want) {
		t.Fatalf("mask = %v, want %v", mask, want)
	}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("mask[%d] = %d, want %d", i, mask[i], want[i])
		}
	}

	ml := MaskedLabels(labels, mask)
	wantML := []int{0, 1, 2}
	for i := range wantML {
		if ml[i] != wantML[i] {
			t.Errorf("masked label[%d] = %d, want %d", i, ml[i], wantML[i])
		}
	}
}

func TestNumTicks(t *testing.T) {
	cases := []struct {
		n, ds, want int
	}{
		{0, 25, 0},
		{1, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{100, 25, 4},
		{101, 25, 5},
		{5, 1, 5},
	}
	for _, tc := range cases {
		if got := NumTicks(tc.n, tc.ds); got != tc.want {
			t.Errorf("NumTicks(%d,%d) = %d, want %d", tc.n, tc.ds, got, tc.want)
		}
	}
}

func TestStats(t *testing.T) {
	labels := []int{LabelSilence, 0, 0, 1, LabelOverlap, LabelOverlap, 1, 1}
	st := Stats(labels)
	if st.Total != 8 || st.Silence != 1 || st.Overlap != 2 {
		t.Errorf("stats = %+v", st)
	}
	if len(st.PerSpeaker) != 2 || st.PerSpeaker[0] != 2 || st.PerSpeaker[1] != 3 {
		t.Errorf("per-speaker = %v", st.PerSpeaker)
	}
}
