package noise

import "fmt"

// Sampler produces a scalar value at a world-space position.
type Sampler interface {
	Sample(x, z float64) float64
}

// ChannelParams configures one noise channel.
type ChannelParams struct {
	Frequency float64
	Octaves   int
	Amplitude float64
}

// Channel is an independently parameterized octave noise stream. Height,
// biome and randomness each get their own channel backed by their own field.
type Channel struct {
	field  *Field
	params ChannelParams
}

// Channel indices used to derive per-channel seeds.
const (
	ChannelHeight = iota + 1
	ChannelBiome
	ChannelRandomness
	ChannelDensity
)

// NewChannel creates a channel whose gradient table is seeded from seed and id.
func NewChannel(seed int64, id int, tableSize int, params ChannelParams) (*Channel, error) {
	field, err := NewField(DeriveSeed(seed, int64(id), 0), tableSize)
	if err != nil {
		return nil, fmt.Errorf("channel %d: %w", id, err)
	}
	return &Channel{field: field, params: params}, nil
}

// Params returns the channel configuration.
func (c *Channel) Params() ChannelParams { return c.params }

// Sample returns the amplitude-scaled octave sum at world position (x, z).
func (c *Channel) Sample(x, z float64) float64 {
	f := c.params.Frequency
	return c.field.SampleCombined(x*f, z*f, c.params.Octaves) * c.params.Amplitude
}

// Normalized maps the unscaled octave sum from [-1, 1] to [0, 1], clamped.
func (c *Channel) Normalized(x, z float64) float64 {
	f := c.params.Frequency
	v := c.field.SampleCombined(x*f, z*f, c.params.Octaves)
	return Clamp01(0.5 + 0.5*v)
}

// NormalizedSampler adapts Normalized to the Sampler interface.
func (c *Channel) NormalizedSampler() Sampler {
	return samplerFunc(c.Normalized)
}

type samplerFunc func(x, z float64) float64

func (f samplerFunc) Sample(x, z float64) float64 { return f(x, z) }

// Clamp01 clamps v into [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
