package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/history"
)

// Portrait is a set of phase-plane points.
type Portrait struct {
	Points [][2]float64
}

// DelayPortrait pairs every stored x_c(t) with x_c(t - tau), looking into the
// initial history where t - tau precedes the range start. For a backward
// range the lag points the other way, towards the start.
func DelayPortrait(h *history.History, c int, tau float64) (p *Portrait, err error) {
	if c < 0 || c >= h.Dim() {
		return nil, fmt.Errorf("analysis: component %d out of range [0, %d)", c, h.Dim())
	}
	if tau <= 0 {
		return nil, fmt.Errorf("analysis: lag must be positive, got %g", tau)
	}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*dynamo.PreconditionError)
			if !ok {
				panic(r)
			}
			p, err = nil, fmt.Errorf("analysis: delay portrait: %w", pe)
		}
	}()

	lag := tau
	if !h.Range().Forward() {
		lag = -tau
	}
	p = &Portrait{Points: make([][2]float64, 0, h.Len())}
	x := make(dynamo.State, h.Dim())
	for i := 0; i < h.Len(); i++ {
		t := h.Time(i)
		h.AtInto(t-lag, x)
		p.Points = append(p.Points, [2]float64{h.State(i)[c], x[c]})
	}
	return p, nil
}

// ToASCII renders the portrait with axes through the origin.
func (p *Portrait) ToASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 {
		return ""
	}
	return scatter(p.Points, width, height, true)
}

func scatter(points [][2]float64, width, height int, axes bool) string {
	if len(points) == 0 || width <= 1 || height <= 1 {
		return ""
	}

	minX, maxX := points[0][0], points[0][0]
	minY, maxY := points[0][1], points[0][1]
	for _, p := range points {
		minX, maxX = min(minX, p[0]), max(maxX, p[0])
		minY, maxY = min(minY, p[1]), max(maxY, p[1])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range points {
		col := int((p[0] - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p[1]-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if axes {
		if minX <= 0 && maxX >= 0 {
			col := int((0 - minX) / rangeX * float64(width-1))
			for row := 0; row < height; row++ {
				if canvas[row][col] == ' ' {
					canvas[row][col] = '│'
				}
			}
		}
		if minY <= 0 && maxY >= 0 {
			row := height - 1 - int((0-minY)/rangeY*float64(height-1))
			for col := 0; col < width; col++ {
				if canvas[row][col] == ' ' {
					canvas[row][col] = '─'
				}
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
