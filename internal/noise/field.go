package noise

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultTableSize is the number of gradients used when none is configured.
const DefaultTableSize = 256

// ErrTableSize is returned when the gradient table size is not a power of two.
var ErrTableSize = errors.New("noise: gradient table size must be a positive power of two")

// Field is a seeded 2D gradient noise generator.
//
// Construction precomputes a table of unit gradients at uniformly random
// angles and a doubled permutation table, so lattice lookups are two array
// reads: grad[perm[perm[x]+y]].
type Field struct {
	seed  int64
	mask  int
	grads []mgl32.Vec2
	perm  []int
}

// NewField builds a gradient field with size gradients. size must be a power of two.
func NewField(seed int64, size int) (*Field, error) {
	if size <= 0 || bits.OnesCount(uint(size)) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrTableSize, size)
	}

	rng := rand.New(rand.NewSource(seed))
	f := &Field{
		seed:  seed,
		mask:  size - 1,
		grads: make([]mgl32.Vec2, size),
		perm:  make([]int, 2*size),
	}
	for i := range f.grads {
		angle := rng.Float64() * 2 * math.Pi
		f.grads[i] = mgl32.Vec2{float32(math.Cos(angle)), float32(math.Sin(angle))}
	}

	p := rng.Perm(size)
	for i := range f.perm {
		f.perm[i] = p[i&f.mask]
	}
	return f, nil
}

// MustField is NewField for table sizes known at compile time.
func MustField(seed int64, size int) *Field {
	f, err := NewField(seed, size)
	if err != nil {
		panic(err)
	}
	return f
}

// Seed returns the seed the field was built with.
func (f *Field) Seed() int64 { return f.seed }

func (f *Field) gradient(x, y int) mgl32.Vec2 {
	return f.grads[f.perm[f.perm[x&f.mask]+(y&f.mask)]]
}

// smoothstep easing 3t^2 - 2t^3
func ease(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Sample returns the noise value at (x, y). The result lies roughly in [-1, 1].
func (f *Field) Sample(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	fx := x - x0
	fy := y - y0
	ix := int(int64(x0))
	iy := int(int64(y0))

	dot := func(cx, cy int, dx, dy float64) float64 {
		g := f.gradient(cx, cy)
		return float64(g[0])*dx + float64(g[1])*dy
	}

	v00 := dot(ix, iy, fx, fy)
	v10 := dot(ix+1, iy, fx-1, fy)
	v01 := dot(ix, iy+1, fx, fy-1)
	v11 := dot(ix+1, iy+1, fx-1, fy-1)

	u := ease(fx)
	v := ease(fy)
	return lerp(lerp(v00, v10, u), lerp(v01, v11, u), v)
}

// SampleCombined sums octaves: octave i samples at 2^i times the position
// with amplitude 0.5^i. Zero or negative octaves yield 0.
func (f *Field) SampleCombined(x, y float64, octaves int) float64 {
	sum := 0.0
	amplitude := 1.0
	frequency := 1.0
	for range octaves {
		sum += f.Sample(x*frequency, y*frequency) * amplitude
		amplitude *= 0.5
		frequency *= 2
	}
	return sum
}
