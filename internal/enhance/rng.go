package enhance

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource produces uniform doubles in [0, 1).
type RandomSource interface {
	Float64() float64
}

// RandomFunc adapts a plain generator function to RandomSource.
type RandomFunc func() float64

func (f RandomFunc) Float64() float64 { return f() }

// crypto random: default generation method
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		return rand.Float64()
	}
	// 53 bits => [0, 1)
	u := binary.BigEndian.Uint64(buf[:]) >> 11
	return float64(u) / (1 << 53)
}

// DefaultRNG is the system entropy source. Only outer layers should call it.
func DefaultRNG() RandomSource { return cryptoRNG{} }

// Replicable RNG (e.g. Monte Carlo)
type seededRNG struct{ r *rand.Rand }

// NewSeededRNG returns a deterministic PCG stream for seed.
func NewSeededRNG(seed uint64) RandomSource {
	return NewStreamRNG(seed, 0)
}

// NewStreamRNG returns the PCG stream (seed, stream). Distinct streams of one
// seed never share state.
func NewStreamRNG(seed, stream uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, stream))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }

// SourceFactory hands every Monte-Carlo trial its own randomness stream.
type SourceFactory func(trial int) RandomSource

// SeededFactory gives trial i the stream (seed, i), so a prediction is
// reproducible and trials cannot bias each other.
func SeededFactory(seed uint64) SourceFactory {
	return func(trial int) RandomSource { return NewStreamRNG(seed, uint64(trial)) }
}

// DefaultFactory uses system entropy for every trial.
func DefaultFactory() SourceFactory {
	return func(int) RandomSource { return DefaultRNG() }
}
