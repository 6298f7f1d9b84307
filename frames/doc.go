// Package frames handles the frame-rate side of resegmentation:
// acoustic feature matrices and the frame-level speaker labelings
// derived from an initial segmentation.
//
// A labeling assigns every frame either a speaker slot (0-based, in
// first-appearance order), LabelSilence when no turn covers it, or
// LabelOverlap when two or more turns do. Only single-speaker frames
// enter the engine; the speech mask records where they sat on the raw
// timeline so results can be placed back.
package frames
