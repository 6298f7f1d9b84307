// Package pipeline provides composable, pull-based pipeline operators
// for fanning batches of independent work across a worker pool.
//
// Pipelines are lazy — no work happens until values are pulled via
// Collect. Each stage pulls from the previous stage on demand,
// providing natural backpressure without explicit flow control.
//
//   - Map: transform each value, in order
//   - Tap: side-effect without altering the value (logging, counters)
//   - Parallel: concurrent Map with a worker pool (order NOT preserved)
//
// Fanning a batch of recordings across workers:
//
//	src := pipeline.FromSlice(tasks)
//	done := pipeline.Parallel(src, workers, func(ctx context.Context, t Task) (Outcome, error) {
//	    return resegment(ctx, t), nil
//	})
//	outcomes, _ := pipeline.Collect(ctx, done)
package pipeline
