// Package testutil provides an in-memory artifact store for tests. It
// satisfies storage.Storage, so service tests can stage model bundles
// and read back RTTM exports without touching disk or S3, and
// testutil.TestComponent, so fixtures can snapshot and reset it
// between cases.
package testutil
