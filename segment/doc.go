// Package segment turns an audio file into timed, text-labelled segments and
// drives per-segment practice sessions.
//
// A Pipeline decodes the file, asks a transcription.Adapter for spans and
// slices the decoded waveform into Segments, reporting progress through an
// Observer. A Session pairs one Segment with an audio.Sink and an
// audio.Source so the reference can be replayed and the learner recorded and
// played back, one action at a time.
//
//	p := segment.NewPipeline(decoder, adapter, segment.DefaultPipelineConfig())
//	run := p.Start(ctx, segment.Request{Path: "/tmp/lesson.mp3"}, segment.ObserverFunc(func(e segment.Event) {
//		if e.Type == segment.EventSegmentReady {
//			fmt.Println(e.Segment.Text)
//		}
//	}))
//	<-run.Done()
package segment
