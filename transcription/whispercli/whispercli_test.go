package whispercli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/transcription"
)

func script(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "helper.sh")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func audio(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(p, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTranscribe_ParsesHelperJSON(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	helper := script(t, `echo "$@" > `+argsFile+`
cat <<'JSON'
{"language":"de","duration":3.0,"text":"hallo welt","segments":[{"start":0,"end":1,"text":" hallo"},{"start":1,"end":2.5,"text":" welt"}]}
JSON`)

	a := New(Config{Script: helper, ModelSize: transcription.ModelTiny})
	res, err := a.Transcribe(context.Background(), transcription.Request{AudioPath: audio(t), WordTimestamps: true})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Language != "de" || len(res.Spans) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Confidence() != transcription.DefaultLanguageConfidence {
		t.Errorf("missing probability should fall back to default, got %v", res.Confidence())
	}

	args, _ := os.ReadFile(argsFile)
	for _, want := range []string{"--model tiny", "--word-timestamps", "--device auto"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestTranscribe_HelperFailure(t *testing.T) {
	helper := script(t, `echo "CUDA out of memory" >&2; exit 2`)
	_, err := New(Config{Script: helper}).Transcribe(context.Background(), transcription.Request{AudioPath: audio(t)})
	if !errors.HasCode(err, errors.ErrCodeAdapterFailed) {
		t.Fatalf("expected ADAPTER_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Errorf("stderr not surfaced: %v", err)
	}
}

func TestTranscribe_BadJSON(t *testing.T) {
	helper := script(t, `echo "not json"`)
	_, err := New(Config{Script: helper}).Transcribe(context.Background(), transcription.Request{AudioPath: audio(t)})
	if !errors.HasCode(err, errors.ErrCodeAdapterFailed) {
		t.Fatalf("expected ADAPTER_FAILED, got %v", err)
	}
}

func TestTranscribe_Cancelled(t *testing.T) {
	helper := script(t, `sleep 10`)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(Config{Script: helper, GracePeriod: 100 * time.Millisecond}).Transcribe(ctx, transcription.Request{AudioPath: audio(t)})
	if !errors.HasCode(err, errors.ErrCodeCancelled) {
		t.Fatalf("expected CANCELLED, got %v", err)
	}
}

func TestCommand_EmbeddedHelper(t *testing.T) {
	a := New(Config{Python: "python3", Language: "fr"})
	cmd, cleanup, err := a.command(transcription.Request{AudioPath: "/x.wav", ModelSize: transcription.ModelLarge})
	if err != nil {
		t.Fatal(err)
	}
	script := cmd.Args[0]
	if _, err := os.Stat(script); err != nil {
		t.Fatalf("helper not extracted: %v", err)
	}
	cleanup()
	if _, err := os.Stat(script); !os.IsNotExist(err) {
		t.Error("helper not removed by cleanup")
	}
	joined := strings.Join(cmd.Args, " ")
	if cmd.Binary != "python3" || !strings.Contains(joined, "--model large") || !strings.Contains(joined, "--language fr") {
		t.Errorf("command = %s %s", cmd.Binary, joined)
	}
	if strings.Contains(joined, "--word-timestamps") {
		t.Error("word timestamps not requested")
	}
}
