package history

import (
	"testing"
)

func TestCriticalPointSet_Add(t *testing.T) {
	var c CriticalPointSet
	c.Add(0, 1, 3)
	c.Add(1, 1, 2)
	c.Add(-0.5, 0, 4)

	want := []float64{-0.5, 0, 1, 2}
	got := c.Points()
	if len(got) != len(want) {
		t.Fatalf("Points() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Points()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestCriticalPointSet_Bracket(t *testing.T) {
	var c CriticalPointSet
	c.Add(0, 1, 3) // 0, 1, 2

	tests := []struct {
		name      string
		t         float64
		backward  bool
		past      float64
		hasPast   bool
		future    float64
		hasFuture bool
	}{
		{"forward between", 0.5, false, 0, true, 1, true},
		{"forward on point", 1, false, 0, true, 1, true},
		{"forward beyond", 3, false, 2, true, 0, false},
		{"forward before all", -1, false, 0, false, 0, true},
		{"backward between", 1.5, true, 2, true, 1, true},
		{"backward on point", 1, true, 2, true, 1, true},
		{"backward beyond", -1, true, 0, true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			past, hasPast, future, hasFuture := c.Bracket(tt.t, tt.backward)
			if hasPast != tt.hasPast || (hasPast && past != tt.past) {
				t.Errorf("past = (%v, %v), want (%v, %v)", past, hasPast, tt.past, tt.hasPast)
			}
			if hasFuture != tt.hasFuture || (hasFuture && future != tt.future) {
				t.Errorf("future = (%v, %v), want (%v, %v)", future, hasFuture, tt.future, tt.hasFuture)
			}
		})
	}
}
