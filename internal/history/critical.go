package history

import (
	"math"
	"sort"
)

// CriticalPointSet is an ordered set of times where the solution is known to
// be non-smooth. Interpolation never blends samples across one.
type CriticalPointSet struct {
	points []float64
}

// Add inserts point, point+delay, ..., count entries in total. Duplicates
// are discarded.
func (c *CriticalPointSet) Add(point, delay float64, count int) {
	for i := 0; i < count; i++ {
		c.Insert(point + float64(i)*delay)
		if delay == 0 {
			return
		}
	}
}

func (c *CriticalPointSet) Insert(p float64) {
	if math.IsNaN(p) {
		return
	}
	i := sort.SearchFloat64s(c.points, p)
	if i < len(c.points) && c.points[i] == p {
		return
	}
	c.points = append(c.points, 0)
	copy(c.points[i+1:], c.points[i:])
	c.points[i] = p
}

func (c *CriticalPointSet) Len() int { return len(c.points) }

func (c *CriticalPointSet) Clear() { c.points = c.points[:0] }

// Points returns a copy of the set in ascending order.
func (c *CriticalPointSet) Points() []float64 {
	out := make([]float64, len(c.points))
	copy(out, c.points)
	return out
}

// Neighbours returns the nearest points strictly below and at-or-above t.
func (c *CriticalPointSet) Neighbours(t float64) (below float64, hasBelow bool, above float64, hasAbove bool) {
	i := sort.SearchFloat64s(c.points, t)
	if i > 0 {
		below, hasBelow = c.points[i-1], true
	}
	if i < len(c.points) {
		above, hasAbove = c.points[i], true
	}
	return
}

// Bracket returns the critical points that bound an interpolation at t in the
// direction of integration. past is strictly behind t, future is at or ahead
// of it.
func (c *CriticalPointSet) Bracket(t float64, backward bool) (past float64, hasPast bool, future float64, hasFuture bool) {
	if !backward {
		return c.Neighbours(t)
	}
	// first index with point > t
	i := sort.Search(len(c.points), func(i int) bool { return c.points[i] > t })
	if i < len(c.points) {
		past, hasPast = c.points[i], true
	}
	if i > 0 {
		future, hasFuture = c.points[i-1], true
	}
	return
}
