package sim

import (
	"sync"

	"github.com/san-kum/delaysim/internal/history"
)

// HistoryPool recycles histories between runs that do not keep their
// trajectory, so an ensemble allocates sample buffers once per worker.
type HistoryPool struct {
	pool   sync.Pool
	dim    int
	order  int
	window int
}

func NewHistoryPool(dim, order, window int) *HistoryPool {
	p := &HistoryPool{dim: dim, order: order, window: window}
	p.pool.New = func() interface{} {
		h, err := history.NewWithWindow(dim, order, window)
		if err != nil {
			return err
		}
		return h
	}
	return p
}

// Get returns a cleared history.
func (p *HistoryPool) Get() (*history.History, error) {
	switch v := p.pool.Get().(type) {
	case *history.History:
		return v, nil
	case error:
		return nil, v
	}
	panic("sim: unexpected pool value")
}

func (p *HistoryPool) Put(h *history.History) {
	if h.Dim() != p.dim || h.Order() != p.order || h.Window() != p.window {
		return
	}
	h.Clear()
	h.AttachDensity(nil)
	p.pool.Put(h)
}
