// Package fixtures provides shared synthetic test data for
// resegmentation tests: a tiny model pair, feature generators, and
// on-disk artifact helpers. Fixtures accept testing.TB and fail the
// calling test on construction errors.
package fixtures
