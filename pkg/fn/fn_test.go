package fn

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("expected ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatalf("unexpected %d %v", v, err)
	}

	e := Err[int](errors.New("boom"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("expected err")
	}
	if _, err := e.Unwrap(); err == nil || err.Error() != "boom" {
		t.Fatalf("unexpected err %v", err)
	}
}

func TestFromPair(t *testing.T) {
	if !FromPair("x", nil).IsOk() {
		t.Fatal("expected ok")
	}
	if FromPair("x", errors.New("no")).IsOk() {
		t.Fatal("expected err")
	}
}

func TestMapFilter(t *testing.T) {
	doubled := Map([]int{1, 2, 3}, func(n int) int { return n * 2 })
	if doubled[2] != 6 {
		t.Fatalf("got %v", doubled)
	}
	even := Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	if len(even) != 2 || even[0] != 2 || even[1] != 4 {
		t.Fatalf("got %v", even)
	}
	none := Filter([]int{1}, func(int) bool { return false })
	if none == nil {
		t.Fatal("Filter must return a non-nil slice")
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"3", "1", "3", "2", "1"})
	want := []string{"3", "1", "2"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v", got)
		}
	}
}

func TestRetrySuccess(t *testing.T) {
	calls := 0
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond}, func(context.Context) Result[int] {
		calls++
		if calls < 2 {
			return Err[int](errors.New("transient"))
		}
		return Ok(1)
	})
	if !r.IsOk() || calls != 2 {
		t.Fatalf("expected success on second call, calls=%d", calls)
	}
}

func TestRetrySingleAttempt(t *testing.T) {
	calls := 0
	r := Retry(context.Background(), RetryOpts{}, func(context.Context) Result[int] {
		calls++
		return Err[int](errors.New("fail"))
	})
	if r.IsOk() || calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestRetryNotRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	opts := RetryOpts{
		MaxAttempts: 5,
		InitialWait: time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
	}
	Retry(context.Background(), opts, func(context.Context) Result[int] {
		calls++
		return Err[int](permanent)
	})
	if calls != 1 {
		t.Fatalf("expected no retries, got %d calls", calls)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := Retry(ctx, RetryOpts{MaxAttempts: 3, InitialWait: time.Hour}, func(context.Context) Result[int] {
		return Err[int](errors.New("fail"))
	})
	if _, err := r.Unwrap(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
