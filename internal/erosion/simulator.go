package erosion

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Stats summarizes one erosion run.
type Stats struct {
	Droplets  int
	Discarded int
}

// Simulator runs hydraulic erosion over square heightfields.
type Simulator struct {
	params Params
	brush  []brushTap
}

// New validates params and precomputes the erosion brush.
func New(params Params) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params.BorderSize = max(params.BorderSize, params.BrushRadius)
	params.BatchSize = max(params.BatchSize, 1)
	if params.Workers == 0 {
		params.Workers = runtime.GOMAXPROCS(0)
	}
	return &Simulator{params: params, brush: newBrush(params.BrushRadius)}, nil
}

// Params returns the effective parameters.
func (s *Simulator) Params() Params { return s.params }

// Run erodes heights (size x size, row-major) in place using the configured
// droplet seed.
func (s *Simulator) Run(ctx context.Context, heights []float32, size int) (Stats, error) {
	return s.RunSeeded(ctx, heights, size, s.params.Seed)
}

// RunSeeded is Run with an explicit droplet seed, so neighbouring chunks do
// not share droplet start positions.
func (s *Simulator) RunSeeded(ctx context.Context, heights []float32, size int, seed int64) (Stats, error) {
	if len(heights) != size*size {
		return Stats{}, fmt.Errorf("%w: heightfield has %d samples, want %d", ErrInvalidParams, len(heights), size*size)
	}
	p := s.params
	span := float64(size - 2*p.BorderSize - 1)
	if p.Iterations == 0 || span <= 0 {
		return Stats{}, nil
	}

	rng := rand.New(rand.NewSource(seed))
	starts := make([][2]float64, p.Iterations)
	for i := range starts {
		starts[i] = [2]float64{
			float64(p.BorderSize) + rng.Float64()*span,
			float64(p.BorderSize) + rng.Float64()*span,
		}
	}

	var stats Stats
	results := make([]dropletResult, p.BatchSize)
	for first := 0; first < len(starts); first += p.BatchSize {
		batch := starts[first:min(first+p.BatchSize, len(starts))]

		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(p.Workers)
		for i, start := range batch {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				results[i] = s.simulate(heights, size, start[0], start[1])
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return stats, err
		}

		for i := range batch {
			r := &results[i]
			stats.Droplets++
			if r.discarded {
				stats.Discarded++
				continue
			}
			for idx, d := range r.deltas {
				heights[idx] += d
			}
		}
	}
	return stats, nil
}

type dropletResult struct {
	deltas    map[int]float32
	discarded bool
}

// droplet reads the shared snapshot plus its own pending changes.
type droplet struct {
	base   []float32
	size   int
	deltas map[int]float32
}

func (d *droplet) height(i int) float32 {
	return d.base[i] + d.deltas[i]
}

func (d *droplet) add(i int, v float32) {
	d.deltas[i] += v
}

// heightAndGradient bilinearly interpolates the height at (x, y) and returns
// the gradient of the containing cell.
func (d *droplet) heightAndGradient(x, y float64) (h, gx, gy float64) {
	cx := int(x)
	cy := int(y)
	u := x - float64(cx)
	v := y - float64(cy)

	i := cy*d.size + cx
	nw := float64(d.height(i))
	ne := float64(d.height(i + 1))
	sw := float64(d.height(i + d.size))
	se := float64(d.height(i + d.size + 1))

	gx = (ne-nw)*(1-v) + (se-sw)*v
	gy = (sw-nw)*(1-u) + (se-ne)*u
	h = nw*(1-u)*(1-v) + ne*u*(1-v) + sw*(1-u)*v + se*u*v
	return h, gx, gy
}

func (s *Simulator) simulate(base []float32, size int, x, y float64) dropletResult {
	p := &s.params
	d := droplet{base: base, size: size, deltas: make(map[int]float32, 64)}
	lo := float64(p.BorderSize)
	hi := float64(size - p.BorderSize - 1)

	var dirX, dirY, sediment float64
	speed := p.InitialSpeed
	water := p.InitialWaterVolume

	for step := 0; step < p.DropletLifetime; step++ {
		cx := int(x)
		cy := int(y)
		cell := cy*size + cx
		offX := x - float64(cx)
		offY := y - float64(cy)

		h, gx, gy := d.heightAndGradient(x, y)

		dirX = dirX*p.Inertia - gx*(1-p.Inertia)
		dirY = dirY*p.Inertia - gy*(1-p.Inertia)
		l := math.Sqrt(dirX*dirX + dirY*dirY)
		if l == 0 {
			break
		}
		dirX /= l
		dirY /= l
		x += dirX
		y += dirY

		if x < lo || x >= hi || y < lo || y >= hi {
			return dropletResult{discarded: true}
		}

		newH, _, _ := d.heightAndGradient(x, y)
		dh := newH - h

		capacity := max(-dh, p.MinSedimentCapacity) * speed * water * p.SedimentCapacityFactor

		if sediment > capacity || dh > 0 {
			var amount float64
			if dh > 0 {
				amount = min(dh, sediment)
			} else {
				amount = (sediment - capacity) * p.DepositSpeed
			}
			sediment -= amount
			d.add(cell, float32(amount*(1-offX)*(1-offY)))
			d.add(cell+1, float32(amount*offX*(1-offY)))
			d.add(cell+size, float32(amount*(1-offX)*offY))
			d.add(cell+size+1, float32(amount*offX*offY))
		} else {
			amount := min((capacity-sediment)*p.ErodeSpeed, -dh)
			for _, tap := range s.brush {
				i := (cy+tap.dy)*size + cx + tap.dx
				e := float32(amount) * tap.weight
				d.add(i, -e)
				sediment += float64(e)
			}
		}

		speed = math.Sqrt(max(0, speed*speed-dh*p.Gravity))
		water *= 1 - p.EvaporateSpeed
		if water <= 0 {
			break
		}
	}
	return dropletResult{deltas: d.deltas}
}
