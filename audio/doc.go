// Package audio moves mono float32 samples between SampleBuffers and sound
// devices.
//
// A Sink plays one buffer at a time and a Source records one capture at a
// time. Every session runs on its own goroutine, opens the device fresh and
// closes it on every exit path. Play, Start and Stop never block: starting a
// new session asks the active one to stop, and the new goroutine waits
// (bounded) for the old session's terminal event before it opens the device.
// Stop is cooperative and observed once per chunk.
//
// Each session reports through a handler struct. OnStarted fires once the
// device is open; then exactly one of OnFinished or OnError fires. Handlers
// run on the session goroutine and may call Play, Start or Stop.
package audio
