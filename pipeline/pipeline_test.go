package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFromSlice_Collect(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{1, 2, 3}; !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromSlice_Empty(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{}))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestFromSlice_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, FromSlice([]int{1, 2, 3}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMap(t *testing.T) {
	doubled := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := Collect(context.Background(), doubled)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{2, 4, 6}; !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMap_Error(t *testing.T) {
	fail := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errors.New("bad value")
		}
		return n, nil
	})
	got, err := Collect(context.Background(), fail)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("expected [1] before error, got %v", got)
	}
}

func TestMap_TypeConversion(t *testing.T) {
	strs := Map(FromSlice([]int{1, 2}), func(_ context.Context, n int) (string, error) {
		return fmt.Sprintf("#%d", n), nil
	})
	got, err := Collect(context.Background(), strs)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "#1" || got[1] != "#2" {
		t.Errorf("got %v", got)
	}
}

func TestTap(t *testing.T) {
	var seen []int
	tapped := Tap(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		seen = append(seen, n)
		return nil
	})
	got, err := Collect(context.Background(), tapped)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) || !intSliceEqual(seen, []int{1, 2, 3}) {
		t.Errorf("got %v, seen %v", got, seen)
	}
}

func TestTap_ErrorStops(t *testing.T) {
	tapped := Tap(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		if n == 2 {
			return errors.New("stop")
		}
		return nil
	})
	got, err := Collect(context.Background(), tapped)
	if err == nil || len(got) != 1 {
		t.Errorf("got %v, err %v", got, err)
	}
}

func TestPace_DelaysBetweenValues(t *testing.T) {
	start := time.Now()
	got, err := Collect(context.Background(), Pace(FromSlice([]int{1, 2, 3}), 20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %v", got)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected at least two pauses, elapsed %v", elapsed)
	}
}

func TestPace_ZeroIntervalIsPassthrough(t *testing.T) {
	src := FromSlice([]int{1})
	if Pace(src, 0) != src {
		t.Error("expected the same pipeline for zero interval")
	}
}

func TestPace_CancelInterruptsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	paced := Pace(FromSlice([]int{1, 2}), time.Hour)

	var got []int
	done := make(chan error, 1)
	go func() {
		done <- ForEach(ctx, paced, func(_ context.Context, n int) error {
			got = append(got, n)
			cancel()
			return nil
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pace did not observe cancellation")
	}
	if len(got) != 1 {
		t.Errorf("expected one value before cancel, got %v", got)
	}
}

func TestForEach_CallbackError(t *testing.T) {
	wantErr := errors.New("sink failed")
	err := ForEach(context.Background(), FromSlice([]int{1}), func(context.Context, int) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v", err)
	}
}
