package erosion

import "math"

type brushTap struct {
	dx, dy int
	weight float32
}

// newBrush returns the taps of a circular brush. Weights fall off linearly
// with distance from the centre and sum to 1.
func newBrush(radius int) []brushTap {
	var taps []brushTap
	var sum float64
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			sq := dx*dx + dy*dy
			if sq >= radius*radius {
				continue
			}
			w := 1 - math.Sqrt(float64(sq))/float64(radius)
			sum += w
			taps = append(taps, brushTap{dx: dx, dy: dy, weight: float32(w)})
		}
	}
	for i := range taps {
		taps[i].weight = float32(float64(taps[i].weight) / sum)
	}
	return taps
}
