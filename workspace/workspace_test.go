package workspace_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/shadowkit/audio"
	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
	"github.com/kbukum/shadowkit/segment"
	"github.com/kbukum/shadowkit/sse"
	"github.com/kbukum/shadowkit/testutil"
	"github.com/kbukum/shadowkit/transcription"
	"github.com/kbukum/shadowkit/workspace"
)

const wait = 2 * time.Second

type decoder struct{ block bool }

func (d decoder) Decode(ctx context.Context, _ string, rate int) (*audio.SampleBuffer, error) {
	if d.block {
		<-ctx.Done()
		return nil, errors.Cancelled("decode")
	}
	return audio.NewSampleBuffer(make([]float32, 2*rate), rate)
}

type adapter struct{}

func (adapter) Name() string                     { return "stub" }
func (adapter) IsAvailable(context.Context) bool { return true }
func (adapter) Transcribe(context.Context, transcription.Request) (*transcription.Result, error) {
	return &transcription.Result{Language: "en", Spans: []transcription.Span{
		{Start: 0, End: 1, Text: "one"},
		{Start: 1, End: 2, Text: "two"},
	}}, nil
}

type publisher struct {
	mu     sync.Mutex
	topics []string
	seqs   []int64
}

func (p *publisher) Publish(topic string, e sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.seqs = append(p.seqs, e.Seq)
}

func newWorkspace(block bool, opts ...workspace.Option) (*workspace.Workspace, *publisher) {
	p := segment.NewPipeline(decoder{block: block}, adapter{}, segment.DefaultPipelineConfig(), segment.WithLogger(logger.NewNop()))
	pub := &publisher{}
	opts = append([]workspace.Option{
		workspace.WithLogger(logger.NewNop()),
		workspace.WithPublisher(pub),
		workspace.WithAudioConfig(audio.Config{ChunkSize: 256}),
	}, opts...)
	return workspace.New(p, opts...), pub
}

func finishedRun(t *testing.T, ws *workspace.Workspace) *segment.Run {
	t.Helper()
	run, err := ws.StartRun(segment.Request{Path: "/tmp/a.wav"})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-run.Done():
	case <-time.After(wait):
		t.Fatal("run did not finish")
	}
	return run
}

func entryTypes(entries []workspace.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Type
	}
	return out
}

func TestWorkspace_LogsAndPublishesRunEvents(t *testing.T) {
	ws, pub := newWorkspace(false)
	run := finishedRun(t, ws)

	entries, err := ws.Entries(run.ID())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"language_detected", "segment_ready", "progress", "segment_ready", "progress", "finished"}
	got := entryTypes(entries)
	if len(got) != len(want) {
		t.Fatalf("entries = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v", got)
		}
		if entries[i].Seq != int64(i+1) || entries[i].RunID != run.ID() {
			t.Errorf("entry %d = %+v", i, entries[i])
		}
	}
	if s := entries[3].Segment; s == nil || s.Index != 1 || s.Samples != 16000 || s.Text != "two" {
		t.Errorf("segment entry = %+v", entries[3].Segment)
	}
	if p := entries[4].Percent; p == nil || *p != 100 {
		t.Errorf("progress entry = %+v", entries[4])
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.seqs) != len(want) || pub.topics[0] != workspace.Topic(run.ID()) {
		t.Fatalf("published %v to %v", pub.seqs, pub.topics)
	}
	for i, s := range pub.seqs {
		if s != int64(i+1) {
			t.Errorf("published seqs = %v", pub.seqs)
		}
	}

	replay, err := ws.Replay(run.ID())
	if err != nil || len(replay) != len(want) || replay[5].Type != "finished" {
		t.Errorf("replay = %v, %v", replay, err)
	}
	if runs := ws.Runs(); len(runs) != 1 || runs[0] != run {
		t.Errorf("runs = %v", runs)
	}
}

func TestWorkspace_Errors(t *testing.T) {
	ws, _ := newWorkspace(false)
	if _, err := ws.StartRun(segment.Request{Path: "  "}); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty path: %v", err)
	}
	if _, err := ws.Run("nope"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown run: %v", err)
	}
	if err := ws.CancelRun("nope"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("cancel unknown: %v", err)
	}

	run := finishedRun(t, ws)
	if err := ws.CancelRun(run.ID()); err != nil {
		t.Errorf("cancel finished run: %v", err)
	}
	if run.State() != segment.RunFinished {
		t.Errorf("state = %s", run.State())
	}
	if _, err := ws.Session(run.ID(), 9); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("missing segment: %v", err)
	}
	if _, err := ws.Session(run.ID(), 0); !errors.HasCode(err, errors.ErrCodeDeviceOpenFailed) {
		t.Errorf("no devices: %v", err)
	}
}

func TestWorkspace_SessionEventsJoinTheRunLog(t *testing.T) {
	out := testutil.NewOutputDevice()
	ws, _ := newWorkspace(false, workspace.WithDevices(out, testutil.NewInputDevice(0.2)))
	run := finishedRun(t, ws)

	s, err := ws.SessionAction(run.ID(), 1, workspace.ActionPlayReference)
	if err != nil {
		t.Fatal(err)
	}
	again, err := ws.Session(run.ID(), 1)
	if err != nil || again != s {
		t.Fatalf("session not reused: %v", err)
	}
	if _, err := ws.SessionAction(run.ID(), 1, "dance"); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown action: %v", err)
	}

	testutil.Eventually(t, wait, func() bool {
		entries, _ := ws.Entries(run.ID())
		return len(entries) == 8
	}, "session events logged")
	entries, _ := ws.Entries(run.ID())
	started, finished := entries[6], entries[7]
	if started.Type != "session.started" || finished.Type != "session.finished" {
		t.Fatalf("entries = %v", entryTypes(entries))
	}
	if finished.SegmentIndex == nil || *finished.SegmentIndex != 1 || finished.SessionID != s.ID() ||
		finished.Action != "play-reference" || finished.Reason != "completed" || finished.Seq != 8 {
		t.Errorf("finished entry = %+v", finished)
	}
	if len(out.Written()) != 16128 {
		t.Errorf("written = %d samples", len(out.Written()))
	}

	if _, err := ws.SessionAction(run.ID(), 1, workspace.ActionPlayRecording); !errors.HasCode(err, errors.ErrCodeNoRecording) {
		t.Errorf("play recording: %v", err)
	}
}

func TestWorkspace_CloseCancelsRuns(t *testing.T) {
	ws, _ := newWorkspace(true)
	run, err := ws.StartRun(segment.Request{Path: "/tmp/a.wav"})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if err := ws.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if run.State() != segment.RunCancelled {
		t.Errorf("state = %s", run.State())
	}
	entries, _ := ws.Entries(run.ID())
	if len(entries) != 1 || entries[0].Type != "cancelled" || entries[0].Code != "CANCELLED" {
		t.Errorf("entries = %+v", entries)
	}
	if _, err := ws.StartRun(segment.Request{Path: "/tmp/b.wav"}); err == nil {
		t.Error("closed workspace should refuse new runs")
	}
}

func TestWorkspace_CloseStopsEverySessionWhenOneIsStuck(t *testing.T) {
	out := testutil.NewOutputDevice()
	out.Gate = make(chan struct{})
	in := testutil.NewInputDevice(0.2)
	ws, _ := newWorkspace(false, workspace.WithDevices(out, in))
	run := finishedRun(t, ws)

	if _, err := ws.SessionAction(run.ID(), 0, workspace.ActionPlayReference); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.SessionAction(run.ID(), 1, workspace.ActionRecord); err != nil {
		t.Fatal(err)
	}
	testutil.Eventually(t, wait, func() bool { return out.Opens() == 1 && in.Reads() >= 1 }, "both sessions active")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := ws.Close(ctx)
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	testutil.Eventually(t, wait, func() bool { return in.Closes() == 1 }, "recording stopped despite stuck playback")

	close(out.Gate)
	testutil.Eventually(t, wait, func() bool { return out.Closes() == 1 }, "playback drained")
}

func TestComponent_HealthAndStop(t *testing.T) {
	ws, _ := newWorkspace(true)
	c := workspace.NewComponent(ws)
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	run, err := ws.StartRun(segment.Request{Path: "/tmp/a.wav"})
	if err != nil {
		t.Fatal(err)
	}
	if h := c.Health(context.Background()); h.Status != observability.HealthStatusUp || h.Details["runs"] != "1" || h.Details["active"] != "1" {
		t.Errorf("health = %+v", h)
	}

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if run.State() != segment.RunCancelled {
		t.Errorf("state = %s", run.State())
	}
	if h := c.Health(context.Background()); h.Status != observability.HealthStatusDown {
		t.Errorf("health after stop = %+v", h)
	}
}
