package tempo

import (
	"testing"
	"time"
)

func TestEvery(t *testing.T) {
	cases := []struct {
		n    int
		d    time.Duration
		want time.Duration
	}{
		{n: 10, d: time.Second, want: 100 * time.Millisecond},
		{n: 1, d: time.Minute, want: time.Minute},
		{n: 60, d: time.Minute, want: time.Second},
	}
	for _, c := range cases {
		if got := Every(c.n, c.d); got != c.want {
			t.Errorf("Every(%d, %s) = %s, want %s", c.n, c.d, got, c.want)
		}
	}
}

func TestEveryPanicsOnNonPositiveN(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for n <= 0")
		}
	}()
	Every(0, time.Second)
}
