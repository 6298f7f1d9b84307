// Package storage holds the artifact store: model bundles (the GMM
// pair the engine loads at startup), feature archives referenced by
// batch jobs, and exported RTTM files.
//
// The streaming Storage interface has two backends, selected by
// Config.Provider:
//
//   - storage/s3: Amazon S3 and S3-compatible services such as MinIO
//   - storage/local: a directory tree, for development and tests
//
// Backends register themselves through RegisterFactory, so the backend
// package must be imported for its provider name to resolve:
//
//	import _ "github.com/skillsenselab/vbdiar/storage/local"
//
// Callers that work with whole artifacts in memory, like the model
// loader, wrap a Storage in a ByteClient.
package storage
