package history

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// History is an append-only trajectory with interpolated lookups into the
// past. Times at or before the range start are answered by the initial
// history function; later ones by a local Newton polynomial over a window of
// stored samples that never straddles a critical point.
//
// A History is not safe for concurrent use.
type History struct {
	dim    int
	order  int
	window int

	rng  TimeRange
	phi  dynamo.HistoryFunc
	crit CriticalPointSet

	times []float64
	data  []float64

	cache   interpCache
	density *Density
}

// DefaultWindow returns the window size used by New for an interpolation order.
func DefaultWindow(order int) int {
	if order+1 > 4 {
		return order + 1
	}
	return 4
}

// New creates a history of dim-component states for a scheme of the given
// interpolation order. It panics on non-positive arguments.
func New(dim, order int) *History {
	h, err := NewWithWindow(dim, order, DefaultWindow(order))
	if err != nil {
		panic(err)
	}
	return h
}

// NewWithWindow creates a history that interpolates over window samples.
// window must be at least order+1.
func NewWithWindow(dim, order, window int) (*History, error) {
	if dim < 1 {
		return nil, fmt.Errorf("history: dimension must be positive, got %d", dim)
	}
	if order < 1 {
		return nil, fmt.Errorf("history: order must be positive, got %d", order)
	}
	if window < order+1 {
		return nil, fmt.Errorf("history: window %d too small for order %d", window, order)
	}
	return &History{
		dim:    dim,
		order:  order,
		window: window,
		cache: interpCache{
			coeff: make([]float64, window*dim),
			diff:  make([]float64, window),
		},
	}, nil
}

func (h *History) Dim() int         { return h.dim }
func (h *History) Order() int       { return h.order }
func (h *History) Window() int      { return h.window }
func (h *History) Range() TimeRange { return h.rng }

// SetRange installs r. Stored samples are kept; call Reset or
// SetInitialState to start over.
func (h *History) SetRange(r TimeRange) {
	h.rng = r
	h.cache.invalidate()
}

func (h *History) SetRangeStep(begin, end, step float64) error {
	r, err := NewRangeStep(begin, end, step)
	if err != nil {
		return err
	}
	h.SetRange(r)
	return nil
}

func (h *History) SetRangeCount(begin, end float64, n int) error {
	r, err := NewRangeCount(begin, end, n)
	if err != nil {
		return err
	}
	h.SetRange(r)
	return nil
}

// SetInitialState installs the initial history, drops any stored samples and
// appends phi(t0) as the first sample.
func (h *History) SetInitialState(phi dynamo.HistoryFunc) error {
	if !h.rng.Configured() {
		return fmt.Errorf("history: set initial state: %w", dynamo.ErrNotInitialized)
	}
	if phi == nil {
		return fmt.Errorf("history: set initial state: nil function")
	}
	h.phi = phi
	h.truncate()
	return h.seed()
}

func (h *History) seed() error {
	x0 := h.phi(h.rng.Start)
	if len(x0) != h.dim {
		return fmt.Errorf("history: initial state has %d components, want %d: %w", len(x0), h.dim, dynamo.ErrDimensionMismatch)
	}
	return h.Append(h.rng.Start, x0)
}

func (h *History) truncate() {
	h.times = h.times[:0]
	h.data = h.data[:0]
	h.cache.invalidate()
}

// Append stores x at time t. t must be strictly past the last stored sample
// in the direction of the range.
func (h *History) Append(t float64, x dynamo.State) error {
	if len(x) != h.dim {
		return fmt.Errorf("history: append %d components, want %d: %w", len(x), h.dim, dynamo.ErrDimensionMismatch)
	}
	if n := len(h.times); n > 0 && h.key(t) <= h.key(h.times[n-1]) {
		return fmt.Errorf("history: append t=%g after t=%g: %w", t, h.times[n-1], dynamo.ErrNonMonotonic)
	}
	h.times = append(h.times, t)
	h.data = append(h.data, x...)
	if h.density != nil {
		h.density.Add(t, x)
	}
	return nil
}

// At returns the state at t, from the initial history when t is at or
// before the range start and by interpolation otherwise.
func (h *History) At(t float64) dynamo.State {
	x := make(dynamo.State, h.dim)
	h.AtInto(t, x)
	return x
}

// AtInto is At writing into dst.
func (h *History) AtInto(t float64, dst dynamo.State) {
	if h.rng.Configured() && h.rng.BeforeStart(t) {
		if h.phi == nil {
			preconditionPanic("lookup", t, dynamo.ErrNotInitialized)
		}
		copy(dst, h.phi(t))
		return
	}
	h.interpolateInto(t, dst)
}

// Interpolate evaluates the stored samples at t, ignoring the initial
// history. It panics with a *dynamo.PreconditionError if t is outside the
// stored samples or the window cannot be filled.
func (h *History) Interpolate(t float64) dynamo.State {
	x := make(dynamo.State, h.dim)
	h.interpolateInto(t, x)
	return x
}

func (h *History) InterpolateInto(t float64, dst dynamo.State) {
	h.interpolateInto(t, dst)
}

// AddCriticalPoint marks count points point, point+delay, ... as critical.
func (h *History) AddCriticalPoint(point, delay float64, count int) {
	h.crit.Add(point, delay, count)
	h.cache.invalidate()
}

// AddPrimaryCriticalPoint marks the derivative discontinuities a delay feeds
// into a scheme of this history's order.
func (h *History) AddPrimaryCriticalPoint(point, delay float64) {
	h.AddCriticalPoint(point, delay, h.order)
}

func (h *History) AddSecondaryCriticalPoint(point, delay float64) {
	h.AddCriticalPoint(point, delay, h.order-1)
}

func (h *History) CriticalPoints() []float64 { return h.crit.Points() }

func (h *History) ClearCriticalPoints() {
	h.crit.Clear()
	h.cache.invalidate()
}

// Reset drops stored samples while keeping range, critical points and the
// initial history, then re-seeds the sample at t0 when an initial history is
// installed.
func (h *History) Reset() error {
	h.truncate()
	if h.phi == nil || !h.rng.Configured() {
		return nil
	}
	return h.seed()
}

// Clear returns the history to its freshly constructed state. An attached
// density stays attached.
func (h *History) Clear() {
	h.truncate()
	h.rng = TimeRange{}
	h.phi = nil
	h.crit.Clear()
}

// CheckInitialized reports whether the history is ready to be integrated.
func (h *History) CheckInitialized() error {
	if !h.rng.Initialized() {
		return fmt.Errorf("history: range %s: %w", h.rng, dynamo.ErrNotInitialized)
	}
	if h.phi == nil || len(h.times) == 0 {
		return fmt.Errorf("history: no initial state: %w", dynamo.ErrNotInitialized)
	}
	return nil
}

// AttachDensity feeds every appended sample into d. Pass nil to detach.
func (h *History) AttachDensity(d *Density) { h.density = d }

func (h *History) Density() *Density { return h.density }

func (h *History) Len() int { return len(h.times) }

func (h *History) Time(i int) float64 { return h.times[i] }

func (h *History) sample(i int) []float64 {
	return h.data[i*h.dim : (i+1)*h.dim]
}

// State returns a copy of sample i.
func (h *History) State(i int) dynamo.State {
	return dynamo.State(h.sample(i)).Clone()
}

// Last writes the newest sample into dst and returns its time.
func (h *History) Last(dst dynamo.State) float64 {
	n := len(h.times)
	copy(dst, h.sample(n-1))
	return h.times[n-1]
}

func (h *History) Times() []float64 {
	out := make([]float64, len(h.times))
	copy(out, h.times)
	return out
}

// Columns names the fields of Row: t, x0, x1, ...
func (h *History) Columns() []string {
	cols := make([]string, h.dim+1)
	cols[0] = "t"
	for c := 0; c < h.dim; c++ {
		cols[c+1] = "x" + strconv.Itoa(c)
	}
	return cols
}

// Row returns sample i as t followed by the state components.
func (h *History) Row(i int) []float64 {
	row := make([]float64, h.dim+1)
	row[0] = h.times[i]
	copy(row[1:], h.sample(i))
	return row
}

// Column returns component c of every sample.
func (h *History) Column(c int) []float64 {
	out := make([]float64, len(h.times))
	for i := range h.times {
		out[i] = h.data[i*h.dim+c]
	}
	return out
}

// Points returns (t, x_c) pairs for plotting.
func (h *History) Points(c int) [][2]float64 {
	out := make([][2]float64, len(h.times))
	for i, t := range h.times {
		out[i] = [2]float64{t, h.data[i*h.dim+c]}
	}
	return out
}

// Stats summarises a trajectory per component.
type Stats struct {
	Steps int
	Mean  []float64
	Max   []float64
	Min   []float64
}

func (h *History) Stats() Stats {
	s := Stats{
		Mean: make([]float64, h.dim),
		Max:  make([]float64, h.dim),
		Min:  make([]float64, h.dim),
	}
	if len(h.times) == 0 {
		return s
	}
	s.Steps = len(h.times) - 1
	for c := 0; c < h.dim; c++ {
		col := h.Column(c)
		s.Mean[c] = stat.Mean(col, nil)
		s.Max[c] = floats.Max(col)
		s.Min[c] = floats.Min(col)
	}
	return s
}
