package audio_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/testutil"
)

func newSource(dev audio.InputDevice) *audio.Source {
	return audio.NewSource(dev, audio.WithConfig(testConfig()), audio.WithLogger(logger.NewNop()))
}

type captured struct {
	mu  sync.Mutex
	buf *audio.SampleBuffer
	err error
}

func recordingHandler(rec *testutil.Recorder, c *captured, prefix string) audio.RecordingHandler {
	return audio.RecordingHandler{
		OnStarted: func() { rec.Add(prefix + "started") },
		OnFinished: func(b *audio.SampleBuffer) {
			c.mu.Lock()
			c.buf = b
			c.mu.Unlock()
			rec.Add(prefix + "finished")
		},
		OnError: func(err error) {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			rec.Add(prefix + "error:" + string(mustCode(err)))
		},
	}
}

func TestSource_RecordsUntilStopped(t *testing.T) {
	dev := testutil.NewInputDevice(0.25)
	src := newSource(dev)
	rec := testutil.NewRecorder()
	var c captured

	_ = src.Start(recordingHandler(rec, &c, ""))
	rec.WaitFor(t, 1, wait)
	testutil.Eventually(t, wait, func() bool { return dev.Reads() >= 3 }, "some chunks read")
	if !src.IsRecording() {
		t.Error("expected IsRecording while capturing")
	}
	src.Stop()

	events := rec.WaitFor(t, 2, wait)
	if events[1] != "finished" {
		t.Fatalf("events = %v", events)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buf.Len() == 0 || c.buf.Len()%256 != 0 {
		t.Fatalf("captured %d samples, want a positive multiple of 256", c.buf.Len())
	}
	if c.buf.Rate() != 16000 {
		t.Errorf("rate = %d", c.buf.Rate())
	}
	for _, s := range c.buf.Samples() {
		if s != 0.25 {
			t.Fatalf("unexpected sample %v", s)
		}
	}
	testutil.Eventually(t, wait, func() bool { return dev.Closes() == 1 }, "stream closed")
}

func TestSource_StopBeforeAnyChunkIsEmptyRecording(t *testing.T) {
	dev := testutil.NewInputDevice(0.25)
	dev.Gate = make(chan struct{})
	dev.FailReads = map[int]bool{1: true}
	src := newSource(dev)
	rec := testutil.NewRecorder()
	var c captured

	_ = src.Start(recordingHandler(rec, &c, ""))
	rec.WaitFor(t, 1, wait)
	src.Stop()
	close(dev.Gate)

	events := rec.WaitFor(t, 2, wait)
	if events[1] != "error:"+string(errors.ErrCodeEmptyRecording) {
		t.Fatalf("events = %v", events)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if errors.Message(c.err) != "empty recording" {
		t.Errorf("message = %q", errors.Message(c.err))
	}
}

func TestSource_OpenFailure(t *testing.T) {
	dev := testutil.NewInputDevice(0)
	dev.OpenErr = testutil.ErrDevice
	src := newSource(dev)
	rec := testutil.NewRecorder()
	var c captured

	_ = src.Start(recordingHandler(rec, &c, ""))
	events := rec.WaitFor(t, 1, wait)
	time.Sleep(20 * time.Millisecond)
	if len(rec.Events()) != 1 || events[0] != "error:"+string(errors.ErrCodeDeviceOpenFailed) {
		t.Fatalf("events = %v", rec.Events())
	}
}

func TestSource_PersistentReadFailureEndsLoop(t *testing.T) {
	dev := testutil.NewInputDevice(0.25)
	dev.FailAllReads = true
	src := newSource(dev)
	rec := testutil.NewRecorder()
	var c captured

	_ = src.Start(recordingHandler(rec, &c, ""))
	events := rec.WaitFor(t, 2, wait)
	if events[1] != "error:"+string(errors.ErrCodeEmptyRecording) {
		t.Fatalf("events = %v", events)
	}
	if dev.Reads() != 3 {
		t.Errorf("reads = %d, want MaxReadFailures", dev.Reads())
	}
}

func TestSource_PartialCaptureDeliveredAfterFailures(t *testing.T) {
	dev := testutil.NewInputDevice(0.5)
	dev.FailReads = map[int]bool{3: true, 4: true, 5: true}
	src := newSource(dev)
	rec := testutil.NewRecorder()
	var c captured

	_ = src.Start(recordingHandler(rec, &c, ""))
	events := rec.WaitFor(t, 2, wait)
	if events[1] != "finished" {
		t.Fatalf("events = %v", events)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buf.Len() != 2*256 {
		t.Errorf("captured %d samples, want 512", c.buf.Len())
	}
}

func TestSource_SingleReadFailureIsSkipped(t *testing.T) {
	dev := testutil.NewInputDevice(0.5)
	dev.FailReads = map[int]bool{2: true}
	src := newSource(dev)
	rec := testutil.NewRecorder()
	var c captured

	_ = src.Start(recordingHandler(rec, &c, ""))
	rec.WaitFor(t, 1, wait)
	testutil.Eventually(t, wait, func() bool { return dev.Reads() >= 5 }, "loop continued past failure")
	src.Stop()
	events := rec.WaitFor(t, 2, wait)
	if events[1] != "finished" {
		t.Fatalf("events = %v", events)
	}
}

func TestSource_StartSupersedesActiveRecording(t *testing.T) {
	dev := testutil.NewInputDevice(0.5)
	src := newSource(dev)
	rec := testutil.NewRecorder()
	var a, b captured

	_ = src.Start(recordingHandler(rec, &a, "A:"))
	rec.WaitFor(t, 1, wait)
	testutil.Eventually(t, wait, func() bool { return dev.Reads() >= 2 }, "A captured")
	_ = src.Start(recordingHandler(rec, &b, "B:"))

	testutil.Eventually(t, wait, func() bool { return rec.Count("B:started") == 1 }, "B started")
	events := rec.Events()
	if indexOf(events, "A:finished") == -1 || indexOf(events, "A:finished") > indexOf(events, "B:started") {
		t.Fatalf("A must deliver its capture before B starts: %v", events)
	}

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if err := src.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if rec.Count("B:finished") != 1 {
		t.Errorf("B terminal missing: %v", rec.Events())
	}
}

func TestSource_StartFromFinishedHandlerWaitsForRelease(t *testing.T) {
	dev := testutil.NewInputDevice(0.2)
	src := newSource(dev)
	rec := testutil.NewRecorder()

	var closesAtStart int
	second := audio.RecordingHandler{
		OnStarted: func() {
			closesAtStart = dev.Closes()
			rec.Add("B:started")
		},
		OnFinished: func(*audio.SampleBuffer) { rec.Add("B:finished") },
		OnError:    func(err error) { rec.Add("B:error:" + string(mustCode(err))) },
	}
	first := audio.RecordingHandler{
		OnStarted: func() { rec.Add("A:started") },
		OnFinished: func(*audio.SampleBuffer) {
			if err := src.Start(second); err != nil {
				t.Errorf("Start from handler: %v", err)
			}
			time.Sleep(50 * time.Millisecond)
			rec.Add("A:finished")
		},
		OnError: func(err error) { rec.Add("A:error:" + string(mustCode(err))) },
	}

	_ = src.Start(first)
	rec.WaitFor(t, 1, wait)
	testutil.Eventually(t, wait, func() bool { return dev.Reads() > 0 }, "first chunk captured")
	src.Stop()

	rec.WaitFor(t, 3, wait)
	readsAtStart := dev.Reads()
	testutil.Eventually(t, wait, func() bool { return dev.Reads() > readsAtStart }, "second recording capturing")
	src.Stop()
	events := rec.WaitFor(t, 4, wait)

	want := []string{"A:started", "A:finished", "B:started", "B:finished"}
	for i, e := range want {
		if events[i] != e {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	if closesAtStart != 1 {
		t.Errorf("streams closed when B started = %d, want 1", closesAtStart)
	}
}
