package service

import (
	"bytes"
	"context"

	"github.com/skillsenselab/vbdiar/model"
	"github.com/skillsenselab/vbdiar/storage"
)

// LoadPair resolves the configured model artifacts through storage and
// builds the shared model pair. A bundle path wins over a UBM and
// extractor text pair.
func LoadPair(ctx context.Context, artifacts storage.ByteClient, cfg ModelConfig) (*model.Pair, error) {
	if cfg.BundlePath != "" {
		data, err := artifacts.Download(ctx, cfg.BundlePath)
		if err != nil {
			return nil, err
		}
		bundle, err := model.ReadBundle(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return model.NewPair(bundle.UBM, bundle.Extractor)
	}

	ubmData, err := artifacts.Download(ctx, cfg.UBMPath)
	if err != nil {
		return nil, err
	}
	u, err := model.ReadUBM(bytes.NewReader(ubmData))
	if err != nil {
		return nil, err
	}
	extData, err := artifacts.Download(ctx, cfg.ExtractorPath)
	if err != nil {
		return nil, err
	}
	e, err := model.ReadExtractor(bytes.NewReader(extData))
	if err != nil {
		return nil, err
	}
	return model.NewPair(u, e)
}
