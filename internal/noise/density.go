package noise

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// DensityField modulates foliage placement probability. A non-positive
// frequency disables modulation and Value always returns 1.
type DensityField struct {
	simplex   opensimplex.Noise
	frequency float64
}

// NewDensityField creates a density channel seeded independently from the
// terrain channels.
func NewDensityField(seed int64, frequency float64) *DensityField {
	return &DensityField{
		simplex:   opensimplex.NewNormalized(DeriveSeed(seed, ChannelDensity, 0)),
		frequency: frequency,
	}
}

// Enabled reports whether the density channel modulates placement.
func (d *DensityField) Enabled() bool {
	return d != nil && d.frequency > 0
}

// Value returns the density multiplier in [0, 1] at (x, z).
func (d *DensityField) Value(x, z float64) float64 {
	if !d.Enabled() {
		return 1
	}
	return Clamp01(d.simplex.Eval2(x*d.frequency, z*d.frequency))
}
