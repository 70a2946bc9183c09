package history

import (
	"math"
	"sort"

	"github.com/san-kum/delaysim/internal/dynamo"
)

// scanLimit bounds the forward walk from the cached index before falling back
// to binary search.
const scanLimit = 4

// interpCache remembers the last interpolation window and its Newton
// coefficients. Sequential queries (a delay walked in lock-step with the
// integrator) then cost O(window) instead of O(log n + window^2).
//
// Invalidated by Reset, SetInitialState and any change to the critical
// points. Appending does not invalidate it: stored samples never change.
type interpCache struct {
	valid bool
	start int
	size  int
	coeff []float64 // window*dim, coeff[n*dim+c]
	diff  []float64 // window
	hint  int

	bracketValid bool
	hasPast      bool
	hasFuture    bool
	past         float64
	future       float64
	lo, hi       int
	hiFinal      bool
}

func (c *interpCache) invalidate() {
	c.valid = false
	c.bracketValid = false
	c.hint = 0
}

func (h *History) key(t float64) float64 {
	if h.rng.configured && !h.rng.Forward() {
		return -t
	}
	return t
}

func preconditionPanic(op string, t float64, err error) {
	panic(&dynamo.PreconditionError{Op: op, Time: t, Err: err})
}

// interpolateInto evaluates the interpolant at t into dst. The window never
// crosses a critical point; when fewer than window samples lie between the
// critical points around t, the interpolant drops to the order those samples
// support.
func (h *History) interpolateInto(t float64, dst dynamo.State) {
	if math.IsNaN(t) {
		preconditionPanic("interpolate", t, dynamo.ErrOutOfHistory)
	}
	n := len(h.times)
	if n == 0 {
		preconditionPanic("interpolate", t, dynamo.ErrInsufficientHistory)
	}
	kt := h.key(t)
	if kt < h.key(h.times[0]) || kt > h.key(h.times[n-1]) {
		preconditionPanic("interpolate", t, dynamo.ErrOutOfHistory)
	}

	j := h.locate(kt)
	if h.times[j] == t {
		copy(dst, h.sample(j))
		return
	}

	lo, hi := h.bounds(t)
	if hi < lo {
		preconditionPanic("interpolate", t, dynamo.ErrInsufficientHistory)
	}
	k := min(h.window, hi-lo+1)
	s := j - (k-1)/2
	if s > hi-k+1 {
		s = hi - k + 1
	}
	if s < lo {
		s = lo
	}
	h.coefficients(s, k)

	coeff := h.cache.coeff
	dim := h.dim
	for c := 0; c < dim; c++ {
		b := coeff[(k-1)*dim+c]
		for m := k - 2; m >= 0; m-- {
			b = b*(t-h.times[s+k-1-m]) + coeff[m*dim+c]
		}
		dst[c] = b
	}
}

// locate returns the last sample index whose key is <= kt.
func (h *History) locate(kt float64) int {
	n := len(h.times)
	j := h.cache.hint
	if j >= 0 && j < n && h.key(h.times[j]) <= kt {
		for i := 0; i < scanLimit && j+1 < n && h.key(h.times[j+1]) <= kt; i++ {
			j++
		}
		if j+1 >= n || h.key(h.times[j+1]) > kt {
			h.cache.hint = j
			return j
		}
	}
	j = sort.Search(n, func(i int) bool { return h.key(h.times[i]) > kt }) - 1
	h.cache.hint = j
	return j
}

// bounds returns the range of sample indices usable for a window around t:
// everything between the critical point behind t and the one at or ahead of it.
func (h *History) bounds(t float64) (lo, hi int) {
	c := &h.cache
	n := len(h.times)
	past, hasPast, future, hasFuture := h.crit.Bracket(t, !h.rng.Forward())

	if !c.bracketValid || hasPast != c.hasPast || hasFuture != c.hasFuture ||
		(hasPast && past != c.past) || (hasFuture && future != c.future) {
		c.bracketValid = true
		c.hasPast, c.past = hasPast, past
		c.hasFuture, c.future = hasFuture, future
		c.lo = 0
		if hasPast {
			kp := h.key(past)
			c.lo = sort.Search(n, func(i int) bool { return h.key(h.times[i]) >= kp })
		}
		c.hi = n - 1
		c.hiFinal = false
		if hasFuture {
			kf := h.key(future)
			c.hi = sort.Search(n, func(i int) bool { return h.key(h.times[i]) > kf }) - 1
			c.hiFinal = c.hi < n-1
		}
		return c.lo, c.hi
	}

	if !c.hiFinal {
		if !hasFuture {
			c.hi = n - 1
		} else {
			kf := h.key(future)
			for c.hi+1 < n && h.key(h.times[c.hi+1]) <= kf {
				c.hi++
			}
			c.hiFinal = c.hi < n-1
		}
	}
	return c.lo, c.hi
}

// coefficients brings the cached Newton coefficients to the window of k
// samples starting at s. Nodes are ordered newest first:
// x_m = times[s+k-1-m].
func (h *History) coefficients(s, k int) {
	c := &h.cache
	dim := h.dim
	if c.valid && c.size == k && c.start == s {
		return
	}
	if c.valid && c.size == k && c.start+1 == s {
		x0 := h.times[s+k-1]
		f0 := h.sample(s + k - 1)
		for comp := 0; comp < dim; comp++ {
			old := c.coeff[comp]
			c.coeff[comp] = f0[comp]
			for m := 1; m < k; m++ {
				tmp := c.coeff[m*dim+comp]
				c.coeff[m*dim+comp] = (c.coeff[(m-1)*dim+comp] - old) / (x0 - h.times[s+k-1-m])
				old = tmp
			}
		}
		c.start = s
		return
	}

	d := c.diff
	for comp := 0; comp < dim; comp++ {
		for m := 0; m < k; m++ {
			d[m] = h.data[(s+k-1-m)*dim+comp]
		}
		for m := 1; m < k; m++ {
			for i := k - 1; i >= m; i-- {
				d[i] = (d[i] - d[i-1]) / (h.times[s+k-1-i] - h.times[s+k-1-i+m])
			}
		}
		for m := 0; m < k; m++ {
			c.coeff[m*dim+comp] = d[m]
		}
	}
	c.start = s
	c.size = k
	c.valid = true
}
