package dash

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAwaitCondition_ImmediateSuccess(t *testing.T) {
	calls := 0
	ok, err := awaitCondition(context.Background(), 50*time.Millisecond, time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return true, nil
	})

	if err != nil || !ok {
		t.Fatalf("Expected immediate success, got ok=%v err=%v", ok, err)
	}
	if calls != 1 {
		t.Errorf("Expected a single poll, got %d", calls)
	}
}

func TestAwaitCondition_EventualSuccess(t *testing.T) {
	calls := 0
	ok, err := awaitCondition(context.Background(), time.Second, time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	})

	if err != nil || !ok {
		t.Fatalf("Expected success after polling, got ok=%v err=%v", ok, err)
	}
	if calls < 3 {
		t.Errorf("Expected at least 3 polls, got %d", calls)
	}
}

func TestAwaitCondition_Timeout(t *testing.T) {
	ok, err := awaitCondition(context.Background(), 10*time.Millisecond, time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})

	if err != nil {
		t.Fatalf("Timeout must not be an error, got %v", err)
	}
	if ok {
		t.Error("Expected ok=false on timeout")
	}
}

func TestAwaitCondition_TransportError(t *testing.T) {
	transportErr := errors.New("channel broke")
	ok, err := awaitCondition(context.Background(), time.Second, time.Millisecond, func(context.Context) (bool, error) {
		return false, transportErr
	})

	if ok {
		t.Error("Expected ok=false on error")
	}
	if !errors.Is(err, transportErr) {
		t.Errorf("Expected transport error to propagate, got %v", err)
	}
}

func TestAwaitCondition_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := awaitCondition(ctx, time.Second, time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})

	if ok {
		t.Error("Expected ok=false after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
