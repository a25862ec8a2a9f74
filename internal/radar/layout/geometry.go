package layout

import (
	"math"

	"github.com/yungbote/project-radar/internal/radar/vocab"
)

type Point struct {
	X float64
	Y float64
}

// Cell is the polar region of one (quadrant, ring) pair. Angles are radians
// counter-clockwise from the positive x axis.
type Cell struct {
	Inner      float64
	Outer      float64
	StartAngle float64
	EndAngle   float64
	FullCircle bool
}

func CellOf(cfg *vocab.Config, quadrant, ring int) Cell {
	n := len(cfg.Dimensions)
	width := 2 * math.Pi / float64(n)
	return Cell{
		Inner:      RingRadius(cfg, ring-1),
		Outer:      RingRadius(cfg, ring),
		StartAngle: float64(quadrant) * width,
		EndAngle:   float64(quadrant+1) * width,
		FullCircle: n == 1,
	}
}

// RingRadius is the outer radius of ring i; -1 yields 0.
func RingRadius(cfg *vocab.Config, i int) float64 {
	if i < 0 {
		return 0
	}
	return float64(i+1) / float64(len(cfg.Bands))
}

// SectorStart is the starting angle of sector i.
func SectorStart(cfg *vocab.Config, i int) float64 {
	return float64(i) * 2 * math.Pi / float64(len(cfg.Dimensions))
}

// Centroid is the polar midpoint of the cell.
func (c Cell) Centroid() Point {
	rho := (c.Inner + c.Outer) / 2
	phi := (c.StartAngle + c.EndAngle) / 2
	return Point{X: rho * math.Cos(phi), Y: rho * math.Sin(phi)}
}

// Contains reports whether p lies inside the cell at least pad away from
// every boundary.
func (c Cell) Contains(p Point, pad float64) bool {
	rho := math.Hypot(p.X, p.Y)
	if rho < c.Inner+pad || rho > c.Outer-pad {
		return false
	}
	if c.FullCircle {
		return true
	}
	phi := math.Atan2(p.Y, p.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	if phi < c.StartAngle || phi >= c.EndAngle {
		return false
	}
	return rho*(phi-c.StartAngle) >= pad && rho*(c.EndAngle-phi) >= pad
}

// extent bounds the distance from the centroid to any point of the cell.
func (c Cell) extent() float64 {
	ctr := c.Centroid()
	far := 0.0
	for _, rho := range []float64{c.Inner, c.Outer} {
		for _, phi := range []float64{c.StartAngle, c.EndAngle, (c.StartAngle + c.EndAngle) / 2} {
			d := math.Hypot(rho*math.Cos(phi)-ctr.X, rho*math.Sin(phi)-ctr.Y)
			if d > far {
				far = d
			}
		}
	}
	if c.FullCircle {
		far = math.Max(far, c.Outer+math.Hypot(ctr.X, ctr.Y))
	}
	return far + c.Outer - c.Inner
}
