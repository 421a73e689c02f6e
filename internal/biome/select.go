package biome

// StepGradient maps t in [0, 1] onto total discrete values. [0, 1] is cut
// into 2*(total-1)+1 equal intervals; even intervals snap to an index with
// zero blend, odd intervals blend from index towards index+1.
func StepGradient(total int, t float64) (int, float64) {
	if total <= 1 {
		return 0, 0
	}
	intervals := 2*(total-1) + 1
	if t <= 0 {
		return 0, 0
	}
	scaled := t * float64(intervals)
	k := int(scaled)
	if k >= intervals {
		k = intervals - 1
	}
	if k%2 == 0 {
		return k / 2, 0
	}
	return (k - 1) / 2, scaled - float64(k)
}

// Roulette picks an index with probability proportional to its weight. r is
// a uniform draw in [0, 1). The first item whose running weight reaches
// r*total wins; items with non-positive weight are never chosen. Returns -1
// when there is nothing to choose.
func Roulette[T any](items []T, weight func(T) float32, r float32) int {
	var total float32
	last := -1
	for i, it := range items {
		if w := weight(it); w > 0 {
			total += w
			last = i
		}
	}
	if last < 0 {
		return -1
	}
	threshold := r * total
	var acc float32
	for i, it := range items {
		w := weight(it)
		if w <= 0 {
			continue
		}
		acc += w
		if acc >= threshold {
			return i
		}
	}
	return last
}

// RouletteWeights is Roulette over a plain weight slice.
func RouletteWeights(weights []float32, r float32) int {
	return Roulette(weights, func(w float32) float32 { return w }, r)
}

// Candidate is one weighted foliage set produced by SelectFoliage.
type Candidate struct {
	Weight float32
	Models []FoliageID
}

// Candidates holds up to four non-empty weighted sets.
type Candidates struct {
	sets [4]Candidate
	n    int
}

func (c *Candidates) Len() int { return c.n }

func (c *Candidates) At(i int) Candidate { return c.sets[i] }

// Slice returns the populated sets. The slice aliases c.
func (c *Candidates) Slice() []Candidate { return c.sets[:c.n] }

// Pick roulette-selects a set by weight using draw r.
func (c *Candidates) Pick(r float32) (Candidate, bool) {
	i := Roulette(c.Slice(), func(s Candidate) float32 { return s.Weight }, r)
	if i < 0 {
		return Candidate{}, false
	}
	return c.sets[i], true
}

func (c *Candidates) add(weight float32, models []FoliageID) {
	if weight <= 0 || len(models) == 0 {
		return
	}
	c.sets[c.n] = Candidate{Weight: weight, Models: models}
	c.n++
}
