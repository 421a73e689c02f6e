package noise

// Hash2 mixes a 2D integer coordinate with a seed (SplitMix64 finalizer).
// It is stable across runs and platforms and is used to derive per-chunk and
// per-channel seeds from the world seed.
func Hash2(x, z int64, seed int64) uint64 {
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

// DeriveSeed returns a seed for a sub-stream identified by (x, z).
func DeriveSeed(seed int64, x, z int64) int64 {
	return int64(Hash2(x, z, seed) >> 1)
}
