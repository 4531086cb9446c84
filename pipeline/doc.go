// Package pipeline provides composable, pull-based data pipeline operators.
//
// Pipelines are lazy: no work happens until values are pulled via Collect or
// ForEach. Each stage pulls from the previous stage on demand, and every pull
// observes the context, so cancelling stops the pipeline between items.
//
//	spans := pipeline.FromSlice(result.Spans)
//	segs := pipeline.Map(spans, extract)
//	paced := pipeline.Pace(segs, 100*time.Millisecond)
//	err := pipeline.ForEach(ctx, paced, emit)
package pipeline
