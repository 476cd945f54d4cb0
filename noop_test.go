package tempo

import (
	"context"
	"errors"
	"testing"
)

func TestNoopLimiterRunsInline(t *testing.T) {
	n := NewNoopLimiter[int]()

	var ran bool
	got, err := n.Submit(context.Background(), 99, func(context.Context) (int, error) {
		ran = true
		return 7, nil
	})
	if !ran {
		t.Fatal("job was not run")
	}
	if err != nil || got != 7 {
		t.Fatalf("Submit = (%d, %v), want (7, nil)", got, err)
	}
	if n.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0", n.Pending())
	}
}

func TestNoopLimiterPropagatesError(t *testing.T) {
	n := NewNoopLimiter[int]()
	wantErr := errors.New("boom")
	_, err := n.Submit(context.Background(), 0, func(context.Context) (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Submit err = %v, want %v", err, wantErr)
	}
}
