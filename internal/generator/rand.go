package generator

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	hexDigits   = "0123456789abcdef"
	alnumDigits = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Rand is the randomness context threaded through every generation step.
// It is not safe for concurrent use; each day gets its own instance.
type Rand struct {
	r *rand.Rand
}

func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// DeriveSeed mixes a stream number into the run seed (splitmix64 finalizer)
// so that sibling streams are uncorrelated but fully determined by the seed.
func DeriveSeed(seed int64, stream uint64) int64 {
	z := uint64(seed) + (stream+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// Float64 returns a uniform draw in [0, 1).
func (r *Rand) Float64() float64 {
	return r.r.Float64()
}

// IntRange returns a uniform integer in [lo, hi].
func (r *Rand) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.r.Intn(hi-lo+1)
}

// Intn returns a uniform index in [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	return r.r.Intn(n)
}

// Uniform returns a uniform float in [lo, hi).
func (r *Rand) Uniform(lo, hi float64) float64 {
	return lo + r.r.Float64()*(hi-lo)
}

// Cents returns a uniform monetary amount in [lo, hi] rounded to cents.
func (r *Rand) Cents(lo, hi decimal.Decimal) decimal.Decimal {
	l, _ := lo.Float64()
	h, _ := hi.Float64()
	return decimal.NewFromFloat(r.Uniform(l, h)).Round(2)
}

// Duration returns a uniform duration in [0, max) at second resolution.
func (r *Rand) Duration(max time.Duration) time.Duration {
	secs := int64(max / time.Second)
	if secs <= 0 {
		return 0
	}
	return time.Duration(r.r.Int63n(secs)) * time.Second
}

// UUID draws a version 4 UUID from the seeded stream.
func (r *Rand) UUID() uuid.UUID {
	return uuid.Must(uuid.NewRandomFromReader(r.r))
}

func (r *Rand) Hex(n int) string {
	return r.fromAlphabet(hexDigits, n)
}

func (r *Rand) Alnum(n int) string {
	return r.fromAlphabet(alnumDigits, n)
}

func (r *Rand) fromAlphabet(alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.r.Intn(len(alphabet))]
	}
	return string(b)
}

func pick[T any](r *Rand, items []T) T {
	return items[r.Intn(len(items))]
}
