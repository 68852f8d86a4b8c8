package cards

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
)

// Source supplies the random indexes used by the shuffle.
type Source interface {
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
}

// CryptoSource draws from crypto/rand. It is the only source used for real-money games.
type CryptoSource struct{}

// Intn implements Source.
func (CryptoSource) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failing means the OS entropy source is gone; there is no safe fallback.
		panic("cards: failed to read random bytes: " + err.Error())
	}
	return int(v.Int64())
}

const goldenRatio64 = 0x9e3779b97f4a7c15

// SeededSource is a deterministic source for tests and replays.
type SeededSource struct {
	rng *mrand.Rand
}

// NewSeededSource returns a reproducible Source derived from seed.
func NewSeededSource(seed int64) *SeededSource {
	u := uint64(seed)
	return &SeededSource{rng: mrand.New(mrand.NewPCG(mix(u), mix(u+goldenRatio64)))}
}

// Intn implements Source.
func (s *SeededSource) Intn(n int) int {
	return s.rng.IntN(n)
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

