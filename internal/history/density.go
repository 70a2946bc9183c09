package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// BinLimits gives the histogram bounds for component c at time t.
type BinLimits func(t float64, c int) (lo, hi float64)

// Density accumulates, for every snapshot time of a range, a histogram of
// each state component over many runs. It is safe for concurrent use so one
// Density can be shared by the histories of an ensemble. Counts persist
// across runs until Reset.
type Density struct {
	mu sync.Mutex

	rng    TimeRange
	dim    int
	bins   int
	every  int
	limits BinLimits

	times  []float64
	counts []int // snapshot*dim*bins
	under  []int // snapshot*dim
	over   []int
	total  []int
}

// NewDensity builds a density over r with bins bins per histogram, taking a
// snapshot every `every` steps of the range.
func NewDensity(r TimeRange, dim, bins, every int, limits BinLimits) (*Density, error) {
	if !r.Initialized() {
		return nil, fmt.Errorf("history: density range %s: %w", r, dynamo.ErrNotInitialized)
	}
	if dim < 1 || bins < 1 {
		return nil, fmt.Errorf("history: density needs positive dimension and bins, got %d and %d", dim, bins)
	}
	if limits == nil {
		return nil, fmt.Errorf("history: density needs bin limits")
	}
	if every < 1 {
		every = 1
	}

	d := &Density{rng: r, dim: dim, bins: bins, every: every, limits: limits}
	for i := 0; i <= r.Steps; i += every {
		d.times = append(d.times, r.TimeAt(i))
	}
	if r.Steps%every != 0 {
		d.times = append(d.times, r.End)
	}
	n := len(d.times)
	d.counts = make([]int, n*dim*bins)
	d.under = make([]int, n*dim)
	d.over = make([]int, n*dim)
	d.total = make([]int, n)
	return d, nil
}

// snapshot maps t to a snapshot index, or -1 when t is not a snapshot time.
func (d *Density) snapshot(t float64) int {
	if d.rng.Steps == 0 {
		if t == d.rng.Start {
			return 0
		}
		return -1
	}
	f := (t - d.rng.Start) / d.rng.Step
	i := int(math.Round(f))
	if math.Abs(f-float64(i)) > 1e-6 || i < 0 || i > d.rng.Steps {
		return -1
	}
	if i == d.rng.Steps {
		return len(d.times) - 1
	}
	if i%d.every != 0 {
		return -1
	}
	return i / d.every
}

// Add counts x if t is a snapshot time of the density. NaN components count
// towards the total but fall in no bin.
func (d *Density) Add(t float64, x dynamo.State) {
	s := d.snapshot(t)
	if s < 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.total[s]++
	for c := 0; c < d.dim && c < len(x); c++ {
		lo, hi := d.limits(t, c)
		v := x[c]
		switch {
		case math.IsNaN(v):
		case v < lo:
			d.under[s*d.dim+c]++
		case v >= hi:
			d.over[s*d.dim+c]++
		default:
			b := int((v - lo) / (hi - lo) * float64(d.bins))
			if b >= d.bins {
				b = d.bins - 1
			}
			d.counts[(s*d.dim+c)*d.bins+b]++
		}
	}
}

func (d *Density) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.counts)
	clear(d.under)
	clear(d.over)
	clear(d.total)
}

// Times returns the snapshot times.
func (d *Density) Times() []float64 {
	out := make([]float64, len(d.times))
	copy(out, d.times)
	return out
}

func (d *Density) Bins() int { return d.bins }

// Edges returns the bins+1 bin edges of snapshot s, component c.
func (d *Density) Edges(s, c int) []float64 {
	lo, hi := d.limits(d.times[s], c)
	return floats.Span(make([]float64, d.bins+1), lo, hi)
}

// Histogram returns a copy of the counts of snapshot s, component c, with the
// out-of-range tallies.
func (d *Density) Histogram(s, c int) (counts []int, under, over int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	counts = make([]int, d.bins)
	copy(counts, d.counts[(s*d.dim+c)*d.bins:])
	return counts, d.under[s*d.dim+c], d.over[s*d.dim+c]
}

// Runs is the number of samples counted at snapshot s.
func (d *Density) Runs(s int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total[s]
}

// Probability normalises a histogram to a probability density, counting
// out-of-range samples in the total.
func (d *Density) Probability(s, c int) []float64 {
	counts, _, _ := d.Histogram(s, c)
	total := d.Runs(s)
	p := make([]float64, d.bins)
	if total == 0 {
		return p
	}
	lo, hi := d.limits(d.times[s], c)
	width := (hi - lo) / float64(d.bins)
	for i, n := range counts {
		p[i] = float64(n)
	}
	floats.Scale(1/(float64(total)*width), p)
	return p
}

// WriteCSV dumps every histogram as rows of t, component, bin lower edge,
// bin upper edge, count.
func (d *Density) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"t", "component", "lo", "hi", "count"}); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for s, t := range d.times {
		for c := 0; c < d.dim; c++ {
			edges := d.Edges(s, c)
			counts, _, _ := d.Histogram(s, c)
			for b, n := range counts {
				rec := []string{format(t), strconv.Itoa(c), format(edges[b]), format(edges[b+1]), strconv.Itoa(n)}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
