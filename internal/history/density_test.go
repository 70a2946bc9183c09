package history_test

import (
	"bytes"
	"math"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/history"
)

var _ = Describe("Density", func() {
	var (
		rng     history.TimeRange
		density *history.Density
	)

	unit := func(float64, int) (float64, float64) { return -1, 1 }

	BeforeEach(func() {
		var err error
		rng, err = history.NewRangeStep(0, 1, 0.25)
		Expect(err).NotTo(HaveOccurred())
		density, err = history.NewDensity(rng, 1, 4, 2, unit)
		Expect(err).NotTo(HaveOccurred())
	})

	It("takes a snapshot every other step and at the end", func() {
		Expect(density.Times()).To(Equal([]float64{0, 0.5, 1}))
	})

	It("bins values and tallies the ones outside the limits", func() {
		for _, v := range []float64{-0.9, -0.1, 0.2, 0.3, 0.99, 1, -2} {
			density.Add(0.5, dynamo.State{v})
		}
		density.Add(0.25, dynamo.State{0})

		counts, under, over := density.Histogram(1, 0)
		Expect(counts).To(Equal([]int{1, 1, 2, 1}))
		Expect(under).To(Equal(1))
		Expect(over).To(Equal(1))
		Expect(density.Runs(1)).To(Equal(7))
		Expect(density.Runs(0)).To(BeZero())

		p := density.Probability(1, 0)
		Expect(p[2]).To(BeNumerically("~", 2.0/(7*0.5), 1e-12))
		Expect(density.Edges(1, 0)).To(Equal([]float64{-1, -0.5, 0, 0.5, 1}))
	})

	It("counts NaN components in the total but in no bin", func() {
		Expect(func() { density.Add(0.5, dynamo.State{math.NaN()}) }).NotTo(Panic())
		density.Add(0.5, dynamo.State{0.2})

		counts, under, over := density.Histogram(1, 0)
		Expect(counts).To(Equal([]int{0, 0, 1, 0}))
		Expect(under).To(BeZero())
		Expect(over).To(BeZero())
		Expect(density.Runs(1)).To(Equal(2))
	})

	It("is fed by every history it is attached to and survives history resets", func() {
		var wg sync.WaitGroup
		for run := 0; run < 8; run++ {
			wg.Add(1)
			go func(v float64) {
				defer wg.Done()
				defer GinkgoRecover()
				h := history.New(1, 1)
				h.SetRange(rng)
				h.AttachDensity(density)
				Expect(h.SetInitialState(func(float64) dynamo.State { return dynamo.State{v} })).To(Succeed())
				for i := 1; i <= rng.Steps; i++ {
					Expect(h.Append(rng.TimeAt(i), dynamo.State{v})).To(Succeed())
				}
				Expect(h.Reset()).To(Succeed())
			}(0.1)
		}
		wg.Wait()

		// eight runs plus the t0 sample re-seeded by each Reset
		Expect(density.Runs(0)).To(Equal(16))
		Expect(density.Runs(2)).To(Equal(8))
		counts, _, _ := density.Histogram(2, 0)
		Expect(counts[2]).To(Equal(8))

		density.Reset()
		Expect(density.Runs(0)).To(BeZero())
	})

	It("writes one csv row per bin", func() {
		density.Add(0, dynamo.State{0.1})
		var buf bytes.Buffer
		Expect(density.WriteCSV(&buf)).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(1 + 3*4))
		Expect(lines[0]).To(Equal("t,component,lo,hi,count"))
		Expect(lines[3]).To(Equal("0.000000,0,0.000000,0.500000,1"))
	})

	It("rejects an unset range", func() {
		_, err := history.NewDensity(history.TimeRange{}, 1, 4, 1, unit)
		Expect(err).To(MatchError(dynamo.ErrNotInitialized))
	})
})

var _ = Describe("History interpolation cache", func() {
	var h *history.History

	BeforeEach(func() {
		h = history.New(2, 3)
		Expect(h.SetRangeStep(0, 4, 0.1)).To(Succeed())
		Expect(h.SetInitialState(func(t float64) dynamo.State { return dynamo.State{t * t, 1 - t} })).To(Succeed())
	})

	It("stays exact while samples are appended between queries", func() {
		r := h.Range()
		for i := 1; i <= r.Steps; i++ {
			t := r.TimeAt(i)
			Expect(h.Append(t, dynamo.State{t * t, 1 - t})).To(Succeed())
			if i < 4 {
				continue
			}
			q := t - 0.25
			x := h.At(q)
			Expect(x[0]).To(BeNumerically("~", q*q, 1e-10))
			Expect(x[1]).To(BeNumerically("~", 1-q, 1e-10))
		}
	})

	It("drops cached coefficients when a critical point is added", func() {
		r := h.Range()
		for i := 1; i <= r.Steps; i++ {
			t := r.TimeAt(i)
			v := t
			if t > 2 {
				v = 2 + 3*(t-2)
			}
			Expect(h.Append(t, dynamo.State{v, 0})).To(Succeed())
		}
		blended := h.At(2.05)[0]
		h.AddCriticalPoint(2, 0, 1)
		Expect(h.At(2.05)[0]).To(BeNumerically("~", 2.15, 1e-9))
		Expect(blended).NotTo(BeNumerically("~", 2.15, 1e-3))
	})
})
