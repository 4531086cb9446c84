package transcription

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
)

type stubAdapter struct {
	name      string
	available bool
	res       *Result
	err       error
	calls     *[]string
}

func (s *stubAdapter) Name() string                     { return s.name }
func (s *stubAdapter) IsAvailable(context.Context) bool { return s.available }
func (s *stubAdapter) Transcribe(_ context.Context, _ Request) (*Result, error) {
	if s.calls != nil {
		*s.calls = append(*s.calls, "inner")
	}
	return s.res, s.err
}

func TestParseModelSize(t *testing.T) {
	tests := []struct {
		in      string
		want    ModelSize
		wantErr bool
	}{
		{"", ModelSmall, false},
		{"tiny", ModelTiny, false},
		{" Medium ", ModelMedium, false},
		{"LARGE", ModelLarge, false},
		{"huge", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseModelSize(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResultConfidence(t *testing.T) {
	for _, c := range []float64{0, -1, 1.5, math.NaN()} {
		if got := (&Result{LanguageConfidence: c}).Confidence(); got != DefaultLanguageConfidence {
			t.Errorf("Confidence(%v) = %v, want default", c, got)
		}
	}
	if got := (&Result{LanguageConfidence: 0.42}).Confidence(); got != 0.42 {
		t.Errorf("Confidence = %v", got)
	}
}

func TestSpanValid(t *testing.T) {
	tests := []struct {
		span Span
		want bool
	}{
		{Span{0, 1, "a"}, true},
		{Span{1, 1, "a"}, false},
		{Span{2, 1, "a"}, false},
		{Span{-0.5, 1, "a"}, false},
		{Span{0, math.Inf(1), "a"}, false},
		{Span{math.NaN(), 1, "a"}, false},
	}
	for _, tc := range tests {
		if got := tc.span.Valid(); got != tc.want {
			t.Errorf("%+v.Valid() = %v", tc.span, got)
		}
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterFactory("stub", func(cfg map[string]any) (Adapter, error) {
		return &stubAdapter{name: "stub", available: cfg["up"] == true}, nil
	})
	reg.RegisterFactory("broken", func(map[string]any) (Adapter, error) {
		return nil, errors.New("no model")
	})

	if got := reg.List(); len(got) != 2 || got[0] != "broken" || got[1] != "stub" {
		t.Errorf("List = %v", got)
	}

	a, err := reg.Create("stub", map[string]any{"up": true})
	if err != nil {
		t.Fatal(err)
	}
	if !a.IsAvailable(context.Background()) {
		t.Error("config not passed to factory")
	}
	if cached, ok := reg.Get("stub"); !ok || cached != a {
		t.Error("instance not cached")
	}

	if _, err := reg.Create("broken", nil); err == nil {
		t.Error("expected factory error")
	}
	if _, err := reg.Create("missing", nil); err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Errorf("expected not registered error, got %v", err)
	}
}

func TestChainOrder(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return func(inner Adapter) Adapter {
			return &orderAdapter{wrapped{inner}, name, &calls}
		}
	}
	a := Chain(mw("outer"), mw("inner-mw"))(&stubAdapter{name: "s", res: &Result{}, calls: &calls})
	if _, err := a.Transcribe(context.Background(), Request{}); err != nil {
		t.Fatal(err)
	}
	want := "outer,inner-mw,inner"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
	if a.Name() != "s" {
		t.Errorf("Name not forwarded: %s", a.Name())
	}
}

type orderAdapter struct {
	wrapped
	label string
	calls *[]string
}

func (o *orderAdapter) Transcribe(ctx context.Context, req Request) (*Result, error) {
	*o.calls = append(*o.calls, o.label)
	return o.inner.Transcribe(ctx, req)
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", &buf)

	ok := WithLogging(log)(&stubAdapter{name: "s", res: &Result{Language: "en", Spans: []Span{{0, 1, "x"}}}})
	if _, err := ok.Transcribe(context.Background(), Request{AudioPath: "/a.wav"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "transcription done") || !strings.Contains(buf.String(), `"spans":1`) {
		t.Errorf("log = %s", buf.String())
	}

	buf.Reset()
	failing := WithLogging(log)(&stubAdapter{name: "s", err: errors.New("boom")})
	if _, err := failing.Transcribe(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "transcription failed") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("log = %s", buf.String())
	}
}

func TestWithMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	m, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	a := WithMetrics(m)(&stubAdapter{name: "s", res: &Result{}})
	_, _ = a.Transcribe(context.Background(), Request{})
	_, _ = a.Transcribe(context.Background(), Request{})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name == "transcription.calls" {
				for _, dp := range md.Data.(metricdata.Sum[int64]).DataPoints {
					total += dp.Value
				}
			}
		}
	}
	if total != 2 {
		t.Errorf("transcription.calls = %d, want 2", total)
	}
}

func TestWithTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	}()

	a := WithTracing()(&stubAdapter{name: "s", res: &Result{Language: "en"}})
	if _, err := a.Transcribe(context.Background(), Request{ModelSize: ModelBase}); err != nil {
		t.Fatal(err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != observability.SpanTranscribe {
		t.Fatalf("spans = %v", spans)
	}
}

func TestHealth(t *testing.T) {
	up := Health(&stubAdapter{name: "s", available: true}).CheckHealth(context.Background())
	if up.Status != observability.HealthStatusUp || up.Name != "transcription:s" {
		t.Errorf("health = %+v", up)
	}
	down := Health(&stubAdapter{name: "s"}).CheckHealth(context.Background())
	if down.Status != observability.HealthStatusDegraded {
		t.Errorf("health = %+v", down)
	}
}

func TestDecodeConfig(t *testing.T) {
	var cfg struct {
		URL     string `mapstructure:"url"`
		Retries int    `mapstructure:"retries"`
	}
	if err := DecodeConfig(map[string]any{"url": "http://x", "retries": "3"}, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "http://x" || cfg.Retries != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
}
