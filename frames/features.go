package frames

import (
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/skillsenselab/vbdiar/errors"
)

// featuresVersion is the current on-disk feature file format version.
const featuresVersion = 1

// Features is a T x D acoustic feature matrix, immutable after load.
type Features struct {
	dim        int
	frameShift float64
	data       []float64 // T x D row-major
}

// NewFeatures wraps a flat row-major matrix. The slice is retained, not
// copied; callers hand over ownership.
func NewFeatures(data []float64, dim int, frameShift float64) (*Features, error) {
	if dim < 1 {
		return nil, errors.InputShape("feature dimension", 1, dim)
	}
	if frameShift <= 0 {
		return nil, errors.InvalidInput("frame_shift", "must be positive")
	}
	if len(data)%dim != 0 {
		return nil, errors.InputShape("feature values", (len(data)/dim+1)*dim, len(data))
	}
	return &Features{dim: dim, frameShift: frameShift, data: data}, nil
}

// Len returns the frame count T.
func (f *Features) Len() int { return len(f.data) / f.dim }

// Dim returns the feature dimension D.
func (f *Features) Dim() int { return f.dim }

// FrameShift returns the frame step in seconds.
func (f *Features) FrameShift() float64 { return f.frameShift }

// Row returns frame t's feature vector. Read-only.
func (f *Features) Row(t int) []float64 {
	return f.data[t*f.dim : (t+1)*f.dim]
}

type featuresFile struct {
	Version    int       `msgpack:"version"`
	Dim        int       `msgpack:"dim"`
	FrameShift float64   `msgpack:"frame_shift"`
	Data       []float64 `msgpack:"data"`
}

// ReadFeatures decodes a msgpack feature file.
func ReadFeatures(r io.Reader) (*Features, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.InvalidFormat("features", "readable msgpack input").WithCause(err)
	}
	var ff featuresFile
	if err := msgpack.Unmarshal(data, &ff); err != nil {
		return nil, errors.InvalidFormat("features", "msgpack {dim, frame_shift, data}").WithCause(err)
	}
	if ff.Version != featuresVersion {
		return nil, errors.InvalidFormat("features", "supported format version")
	}
	return NewFeatures(ff.Data, ff.Dim, ff.FrameShift)
}

// WriteFeatures encodes features as a msgpack feature file.
func WriteFeatures(w io.Writer, f *Features) error {
	data, err := msgpack.Marshal(&featuresFile{
		Version:    featuresVersion,
		Dim:        f.dim,
		FrameShift: f.frameShift,
		Data:       f.data,
	})
	if err != nil {
		return errors.Internal(err)
	}
	_, err = w.Write(data)
	return err
}

// LoadFeatures reads a feature file from disk.
func LoadFeatures(path string) (*Features, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("feature file", path)
		}
		return nil, errors.Storage("open", path, err)
	}
	defer f.Close()
	return ReadFeatures(f)
}

// SaveFeatures writes a feature file to disk.
func SaveFeatures(path string, f *Features) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Storage("create", path, err)
	}
	defer out.Close()
	if err := WriteFeatures(out, f); err != nil {
		return errors.Storage("write", path, err)
	}
	return nil
}
