package model

import (
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/skillsenselab/vbdiar/errors"
)

// bundleVersion is the current on-disk bundle format version.
const bundleVersion = 1

// Bundle couples a UBM and extractor loaded from a single artifact.
type Bundle struct {
	Name      string
	UBM       *UBM
	Extractor *Extractor
}

type bundleFile struct {
	Version int       `msgpack:"version"`
	Name    string    `msgpack:"name,omitempty"`
	K       int       `msgpack:"num_components"`
	D       int       `msgpack:"feature_dim"`
	Rank    int       `msgpack:"rank"`
	Weights []float64 `msgpack:"weights"`
	Means   []float64 `msgpack:"means"`
	InvVars []float64 `msgpack:"inv_vars"`
	Basis   []float64 `msgpack:"basis"`
}

// WriteBundle packs a UBM and a matching extractor into one msgpack
// artifact. Mismatched pairs are rejected up front so a written bundle
// always loads.
func WriteBundle(w io.Writer, name string, u *UBM, e *Extractor) error {
	if e.Width != u.K*u.D {
		return errors.ModelFormatf("extractor basis width %d does not match ubm layout %d x %d", e.Width, u.K, u.D)
	}
	data, err := msgpack.Marshal(&bundleFile{
		Version: bundleVersion,
		Name:    name,
		K:       u.K,
		D:       u.D,
		Rank:    e.Rank,
		Weights: u.Weights,
		Means:   u.Means,
		InvVars: u.InvVars,
		Basis:   e.Basis,
	})
	if err != nil {
		return errors.Internal(err)
	}
	_, err = w.Write(data)
	return err
}

// ReadBundle unpacks a bundle, running the same validation as the text
// loaders.
func ReadBundle(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.ModelFormat("unable to read model bundle").WithCause(err)
	}
	var bf bundleFile
	if err := msgpack.Unmarshal(data, &bf); err != nil {
		return nil, errors.ModelFormat("model bundle is not valid msgpack").WithCause(err)
	}
	if bf.Version != bundleVersion {
		return nil, errors.ModelFormatf("unsupported model bundle version %d", bf.Version)
	}
	u, err := NewUBM(bf.Weights, bf.Means, bf.InvVars, bf.K, bf.D)
	if err != nil {
		return nil, err
	}
	e, err := NewExtractor(bf.Rank, bf.K*bf.D, bf.Basis)
	if err != nil {
		return nil, err
	}
	return &Bundle{Name: bf.Name, UBM: u, Extractor: e}, nil
}

// LoadBundle reads a bundle file from disk.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("model bundle", path)
		}
		return nil, errors.Storage("open", path, err)
	}
	defer f.Close()
	return ReadBundle(f)
}
