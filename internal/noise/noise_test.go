package noise

import (
	"math"
	"testing"

	"github.com/onsi/gomega"
)

func TestGaussian_Reproducible(t *testing.T) {
	a := NewGaussian(42)
	b := NewGaussian(42)
	c := NewGaussian(43)

	same := true
	for i := 0; i < 100; i++ {
		va, vb, vc := a.Sample(0.01), b.Sample(0.01), c.Sample(0.01)
		if va != vb {
			t.Fatalf("draw %d: %v != %v for equal seeds", i, va, vb)
		}
		if va != vc {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced the same sequence")
	}

	a.Seed(7)
	b.Seed(7)
	if a.Sample(1) != b.Sample(1) {
		t.Error("reseeding should restart the stream")
	}
}

func TestGaussian_Variance(t *testing.T) {
	tests := []struct {
		name string
		dt   float64
	}{
		{"small step", 0.01},
		{"unit step", 1},
		{"backward step", -0.04},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gomega.NewWithT(t)
			n := NewGaussian(1)
			n.Record(true)
			buf := make([]float64, 20000)
			n.Fill(tt.dt, buf)

			g.Expect(n.Sigma()).To(gomega.Equal(math.Sqrt(math.Abs(tt.dt))))
			g.Expect(n.Drawn()).To(gomega.Equal(len(buf)))
			std := math.Sqrt(math.Abs(tt.dt))
			g.Expect(n.Mean()).To(gomega.BeNumerically("~", 0, 4*std/math.Sqrt(20000)))
			g.Expect(n.Std()).To(gomega.BeNumerically("~", std, 0.03*std))
		})
	}
}

func TestGaussian_Flush(t *testing.T) {
	n := NewGaussian(3)
	n.Sample(0.1)
	if n.Drawn() != 0 {
		t.Errorf("draws recorded while recording is off: %d", n.Drawn())
	}
	n.Record(true)
	n.Sample(0.1)
	n.Sample(0.1)
	if n.Drawn() != 2 {
		t.Errorf("Drawn() = %d, want 2", n.Drawn())
	}
	n.Flush()
	if n.Drawn() != 0 || n.Mean() != 0 || n.Std() != 0 {
		t.Error("Flush should forget recorded draws")
	}
}
