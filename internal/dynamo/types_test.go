package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norms(t *testing.T) {
	s := State{3, -4}
	if got := s.Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm() = %v, want 5", got)
	}
	if got := s.MaxAbs(); got != 4 {
		t.Errorf("MaxAbs() = %v, want 4", got)
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	c := a.Clone()
	c[0] = 99
	if a[0] == 99 {
		t.Error("Clone did not create independent copy")
	}
}

func TestSimulationError(t *testing.T) {
	pe := &PreconditionError{Op: "interpolate", Time: 0.5, Err: ErrInsufficientHistory}
	err := &SimulationError{Step: 150, Time: 1.5, Wrapped: pe}

	want := "step 150 (t=1.5000): interpolate at t=0.5: dynamo: not enough samples to interpolate"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Error("errors.Is should see through both wrappers")
	}
	var got *PreconditionError
	if !errors.As(err, &got) || got.Op != "interpolate" {
		t.Errorf("errors.As did not find the precondition error: %v", got)
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		var covered int64
		seen := make([]int32, n)
		ParallelFor(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
				atomic.AddInt64(&covered, 1)
			}
		})
		if int(covered) != n {
			t.Errorf("n=%d: covered %d indices", n, covered)
		}
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}
