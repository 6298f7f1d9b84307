// Package segments defines speaker turn lists and their wire forms.
//
// A labeling is an ordered list of (speaker, start, end) turns in
// seconds. Turns round-trip through RTTM lines, the interchange format
// the rest of the diarization pipeline speaks, and are reconstructed
// from the engine's downsampled tick labels by the Exporter.
package segments
