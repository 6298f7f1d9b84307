package model

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/skillsenselab/vbdiar/errors"
)

func testUBM(t *testing.T) *UBM {
	t.Helper()
	u, err := NewUBM(
		[]float64{0.3, 0.7},
		[]float64{0.5, -1.25, 2, 3.75},
		[]float64{1.5, 2, 0.25, 4},
		2, 2,
	)
	if err != nil {
		t.Fatalf("test ubm: %v", err)
	}
	return u
}

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(3, 4, []float64{
		1, 0.5, -0.25, 2,
		0, 1.25, 3, -0.5,
		2, -2, 0.75, 1,
	})
	if err != nil {
		t.Fatalf("test extractor: %v", err)
	}
	return e
}

// --- text codec tests ---

func TestUBMTextRoundTrip(t *testing.T) {
	u := testUBM(t)

	var buf bytes.Buffer
	if err := WriteUBM(&buf, u); err != nil {
		t.Fatalf("WriteUBM failed: %v", err)
	}
	got, err := ReadUBM(&buf)
	if err != nil {
		t.Fatalf("ReadUBM failed: %v", err)
	}

	if got.K != u.K || got.D != u.D {
		t.Fatalf("layout %dx%d, want %dx%d", got.K, got.D, u.K, u.D)
	}
	for c := range u.Weights {
		if got.Weights[c] != u.Weights[c] {
			t.Errorf("weight[%d] = %g, want %g", c, got.Weights[c], u.Weights[c])
		}
	}
	for i := range u.InvVars {
		if got.InvVars[i] != u.InvVars[i] {
			t.Errorf("invVar[%d] = %g, want %g", i, got.InvVars[i], u.InvVars[i])
		}
		// Means travel as means*invVars; recovery divides back out.
		if math.Abs(got.Means[i]-u.Means[i]) > 1e-12*math.Abs(u.Means[i])+1e-15 {
			t.Errorf("mean[%d] = %g, want %g", i, got.Means[i], u.Means[i])
		}
	}
}

func TestExtractorTextRoundTrip(t *testing.T) {
	e := testExtractor(t)

	var buf bytes.Buffer
	if err := WriteExtractor(&buf, e); err != nil {
		t.Fatalf("WriteExtractor failed: %v", err)
	}
	got, err := ReadExtractor(&buf)
	if err != nil {
		t.Fatalf("ReadExtractor failed: %v", err)
	}

	if got.Rank != e.Rank || got.Width != e.Width {
		t.Fatalf("shape %dx%d, want %dx%d", got.Rank, got.Width, e.Rank, e.Width)
	}
	for i := range e.Basis {
		if got.Basis[i] != e.Basis[i] {
			t.Errorf("basis[%d] = %g, want %g", i, got.Basis[i], e.Basis[i])
		}
	}
}

func TestReadUBM_Rejections(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"missing weights", "<MeansInvVars> [\n0\n] <InvVars> [\n1\n]"},
		{"missing invvars", "<Weights> [ 1 ] <MeansInvVars> [\n0\n]"},
		{"unterminated", "<Weights> [ 1 <MeansInvVars>"},
		{"non-numeric weight", "<Weights> [ abc ] <MeansInvVars> [\n0\n] <InvVars> [\n1\n]"},
		{"ragged rows", "<Weights> [ 0.5 0.5 ] <MeansInvVars> [\n0 0\n0\n] <InvVars> [\n1 1\n1 1\n]"},
		{"row count mismatch", "<Weights> [ 0.5 0.5 ] <MeansInvVars> [\n0 0\n] <InvVars> [\n1 1\n1 1\n]"},
		{"column mismatch", "<Weights> [ 1 ] <MeansInvVars> [\n0 0\n] <InvVars> [\n1\n]"},
		{"zero invvar", "<Weights> [ 1 ] <MeansInvVars> [\n0\n] <InvVars> [\n0\n]"},
		{"stray tokens", "<Weights> junk [ 1 ] <MeansInvVars> [\n0\n] <InvVars> [\n1\n]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadUBM(strings.NewReader(tc.doc))
			if err == nil {
				t.Fatal("expected rejection")
			}
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeModelFormat {
				t.Errorf("expected MODEL_FORMAT, got %v", err)
			}
		})
	}
}

func TestReadExtractor_Rejections(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing rank", "<Basis> [\n1 2\n]"},
		{"non-integer rank", "<Rank> x <Basis> [\n1 2\n]"},
		{"missing basis", "<Rank> 1"},
		{"rank row mismatch", "<Rank> 2 <Basis> [\n1 2\n]"},
		{"non-numeric basis", "<Rank> 1 <Basis> [\n1 oops\n]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadExtractor(strings.NewReader(tc.doc))
			if err == nil {
				t.Fatal("expected rejection")
			}
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeModelFormat {
				t.Errorf("expected MODEL_FORMAT, got %v", err)
			}
		})
	}
}

func TestReadUBM_BracketOnTagLine(t *testing.T) {
	// Rows may start on the bracket line and the closer may trail a row.
	doc := "<Weights> [ 1 ]\n<MeansInvVars> [ 0 0 ]\n<InvVars> [ 1 1 ]\n"
	u, err := ReadUBM(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadUBM failed: %v", err)
	}
	if u.K != 1 || u.D != 2 {
		t.Errorf("layout %dx%d, want 1x2", u.K, u.D)
	}
}

// --- bundle tests ---

func TestBundleRoundTrip(t *testing.T) {
	u := testUBM(t)
	e := testExtractor(t)

	var buf bytes.Buffer
	if err := WriteBundle(&buf, "dihard-ubm1024", u, e); err != nil {
		t.Fatalf("WriteBundle failed: %v", err)
	}
	b, err := ReadBundle(&buf)
	if err != nil {
		t.Fatalf("ReadBundle failed: %v", err)
	}

	if b.Name != "dihard-ubm1024" {
		t.Errorf("name = %q", b.Name)
	}
	if b.UBM.K != u.K || b.UBM.D != u.D {
		t.Errorf("ubm layout %dx%d, want %dx%d", b.UBM.K, b.UBM.D, u.K, u.D)
	}
	if b.Extractor.Rank != e.Rank {
		t.Errorf("rank = %d, want %d", b.Extractor.Rank, e.Rank)
	}
	for i := range u.Means {
		if b.UBM.Means[i] != u.Means[i] {
			t.Errorf("mean[%d] = %g, want %g", i, b.UBM.Means[i], u.Means[i])
		}
	}
	for i := range e.Basis {
		if b.Extractor.Basis[i] != e.Basis[i] {
			t.Errorf("basis[%d] = %g, want %g", i, b.Extractor.Basis[i], e.Basis[i])
		}
	}
}

func TestWriteBundle_MismatchedPair(t *testing.T) {
	u := testUBM(t) // 2x2, width 4
	e, err := NewExtractor(1, 3, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteBundle(&buf, "bad", u, e); err == nil {
		t.Fatal("expected mismatched pair rejection")
	}
}

func TestReadBundle_Garbage(t *testing.T) {
	_, err := ReadBundle(bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef}))
	if err == nil {
		t.Fatal("expected rejection")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeModelFormat {
		t.Errorf("expected MODEL_FORMAT, got %v", err)
	}
}

func TestReadBundle_UnsupportedVersion(t *testing.T) {
	data, err := msgpack.Marshal(&bundleFile{
		Version: 99,
		K:       1, D: 1, Rank: 1,
		Weights: []float64{1},
		Means:   []float64{0},
		InvVars: []float64{1},
		Basis:   []float64{1},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = ReadBundle(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected version rejection")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeModelFormat {
		t.Errorf("expected MODEL_FORMAT, got %v", err)
	}
}

func TestLoadUBM_NotFound(t *testing.T) {
	_, err := LoadUBM("/does/not/exist.txt")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
