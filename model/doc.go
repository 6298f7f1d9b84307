// Package model loads and validates the pretrained models that drive
// resegmentation: a diagonal-covariance UBM and a low-rank speaker
// subspace extractor.
//
// Models arrive either as two text artifacts (the layout produced by
// exporting a Kaldi diagonal GMM and an eigenvoice matrix) or as a
// single msgpack bundle. Loaded models are immutable and safe to share
// across concurrently processed recordings; all per-component
// quantities the engine needs every frame (log normalizers, projected
// precisions) are computed once at load time.
//
// # Usage
//
//	ubm, err := model.LoadUBM("ubm.txt")
//	ext, err := model.LoadExtractor("extractor.txt")
//	pair, err := model.NewPair(ubm, ext)
package model
