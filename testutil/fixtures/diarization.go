package fixtures

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillsenselab/vbdiar/frames"
	"github.com/skillsenselab/vbdiar/model"
	"github.com/skillsenselab/vbdiar/segments"
)

// FrameShift is the frame step used by all fixture features, in seconds.
const FrameShift = 0.01

// Pair builds a tiny one-dimensional model: two UBM components at -1
// and +1, and a rank-1 subspace that shifts both component means
// together. Speaker identity then reduces to a scalar offset, which
// keeps synthetic recordings easy to reason about.
func Pair(tb testing.TB) *model.Pair {
	tb.Helper()
	u, err := model.NewUBM(
		[]float64{0.5, 0.5},
		[]float64{-1, 1},
		[]float64{1, 1},
		2, 1,
	)
	if err != nil {
		tb.Fatalf("NewUBM failed: %v", err)
	}
	e, err := model.NewExtractor(1, 2, []float64{0.6, 0.6})
	if err != nil {
		tb.Fatalf("NewExtractor failed: %v", err)
	}
	pair, err := model.NewPair(u, e)
	if err != nil {
		tb.Fatalf("NewPair failed: %v", err)
	}
	return pair
}

// Features emits n frames for a speaker sitting at the given subspace
// offset, alternating between the two shifted component modes with a
// little noise. The same seed always yields the same recording.
func Features(tb testing.TB, seed int64, n int, offset float64) *frames.Features {
	tb.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, n)
	for i := range data {
		center := -1 + offset
		if i%2 == 1 {
			center = 1 + offset
		}
		data[i] = center + 0.2*rng.NormFloat64()
	}
	feats, err := frames.NewFeatures(data, 1, FrameShift)
	if err != nil {
		tb.Fatalf("NewFeatures failed: %v", err)
	}
	return feats
}

// FullTurn returns a single turn covering all n frames under one
// speaker name.
func FullTurn(speaker string, n int) []segments.Segment {
	return []segments.Segment{{Speaker: speaker, Start: 0, End: float64(n-1) * FrameShift}}
}

// WriteBundleFile writes the fixture model pair as a msgpack bundle
// under dir and returns its path.
func WriteBundleFile(tb testing.TB, dir, name string) string {
	tb.Helper()
	pair := Pair(tb)
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create bundle file: %v", err)
	}
	defer f.Close()
	if err := model.WriteBundle(f, "fixture", pair.UBM, pair.Extractor); err != nil {
		tb.Fatalf("write bundle: %v", err)
	}
	return path
}

// WriteFeaturesFile writes fixture features under dir and returns the
// path.
func WriteFeaturesFile(tb testing.TB, dir, name string, feats *frames.Features) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := frames.SaveFeatures(path, feats); err != nil {
		tb.Fatalf("write features: %v", err)
	}
	return path
}
