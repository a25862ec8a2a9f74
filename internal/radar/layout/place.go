package layout

import "math"

// place returns n distinct slots inside c. Slots follow an Archimedean spiral
// out of the centroid with arc spacing step; when the spiral leaves the cell
// before n slots are found, step is halved and the spiral restarts. After
// maxDensify halvings a polar grid with exactly n slots is used.
func place(c Cell, n int, step float64, maxDensify int) []Point {
	if n <= 0 {
		return nil
	}
	for pass := 0; pass <= maxDensify; pass++ {
		if pts, ok := spiral(c, n, step); ok {
			return pts
		}
		step /= 2
	}
	return grid(c, n)
}

func spiral(c Cell, n int, step float64) ([]Point, bool) {
	if step <= 0 {
		return nil, false
	}
	ctr := c.Centroid()
	pad := step / 2
	limit := c.extent()
	b := step / (2 * math.Pi) // successive turns are step apart
	out := make([]Point, 0, n)
	theta := 0.0
	for i := 0; i < maxSpiralPoints; i++ {
		r := b * theta
		if r > limit {
			return nil, false
		}
		p := Point{X: ctr.X + r*math.Cos(theta), Y: ctr.Y + r*math.Sin(theta)}
		if c.Contains(p, pad) {
			out = append(out, p)
			if len(out) == n {
				return out, true
			}
		}
		if theta == 0 {
			theta = 2 * math.Pi // second slot sits one full turn out
		} else {
			theta += step / r
		}
	}
	return nil, false
}

// grid lays n slots on rows of constant radius and columns of constant angle.
func grid(c Cell, n int) []Point {
	rows := int(math.Ceil(math.Sqrt(float64(n))))
	cols := (n + rows - 1) / rows
	start, span := c.StartAngle, c.EndAngle-c.StartAngle
	if c.FullCircle {
		start, span = 0, 2*math.Pi
	}
	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		row, col := i/cols, i%cols
		rho := c.Inner + (float64(row)+0.5)*(c.Outer-c.Inner)/float64(rows)
		phi := start + (float64(col)+0.5)*span/float64(cols)
		out = append(out, Point{X: rho * math.Cos(phi), Y: rho * math.Sin(phi)})
	}
	return out
}
