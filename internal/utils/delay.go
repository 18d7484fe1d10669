package utils

import (
	"math/rand/v2"
	"time"
)

// NewRand returns a generator seeded from the run seed and a per-actor
// stream number, so every actor draws an independent but reproducible
// sequence.
func NewRand(seed int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}

// NormalOffset approximates a normal sample with zero mean and the given
// standard deviation by summing twelve uniform samples and subtracting six.
func NormalOffset(r *rand.Rand, stddev time.Duration) time.Duration {
	if stddev <= 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < 12; i++ {
		sum += r.Float64()
	}
	return time.Duration((sum - 6.0) * float64(stddev))
}

// Jitter returns base plus a normal offset, clamped at zero.
func Jitter(r *rand.Rand, base, stddev time.Duration) time.Duration {
	d := base + NormalOffset(r, stddev)
	if d < 0 {
		return 0
	}
	return d
}

// Sleep pauses for d; non-positive durations return immediately.
func Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
