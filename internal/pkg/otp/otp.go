package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// codeSpace is the size of the numeric code space: codes are uniform over
// [000000, 999999], rendered zero-padded to six digits.
const codeSpace = 1000000

// Generator produces one-time codes with a fixed time-to-live.
// Generation is pure: no state beyond the TTL, no side effects.
type Generator struct {
	ttl time.Duration
}

func NewGenerator(ttl time.Duration) *Generator {
	return &Generator{ttl: ttl}
}

// Generate returns a fresh 6-digit code and its expiry timestamp.
// The code is drawn from crypto/rand; uniqueness across accounts or across
// time is not guaranteed and not needed.
func (g *Generator) Generate() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), time.Now().Add(g.ttl), nil
}

// TTL reports the configured code lifetime.
func (g *Generator) TTL() time.Duration {
	return g.ttl
}
