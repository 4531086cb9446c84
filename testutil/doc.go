// Package testutil provides fakes and helpers for shadowkit tests: scripted
// audio devices that stand in for PortAudio, and an event recorder for
// asserting the order of asynchronous callbacks.
//
//	out := testutil.NewOutputDevice()
//	sink := audio.NewSink(out)
//	rec := testutil.NewRecorder()
//	sink.Play(buf, audio.PlaybackHandler{OnFinished: func(audio.FinishReason) { rec.Add("finished") }})
//	rec.WaitFor(t, 1, time.Second)
package testutil
