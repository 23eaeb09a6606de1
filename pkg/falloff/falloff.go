// Package falloff provides the proportional-editing falloff curves. Each
// curve maps a normalized distance d in [0,1] to an influence in [0,1],
// decreasing from 1 at d=0 to 0 at d=1.
package falloff

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// ErrUnknownKind is returned by Parse for an unrecognized curve name.
var ErrUnknownKind = errors.New("unknown falloff")

// RandomSeed seeds the generator Random falls back to when Eval gets no rng.
const RandomSeed = 0

// Kind identifies a falloff curve.
type Kind int

const (
	Smooth Kind = iota
	Sphere
	Root
	InverseSquare
	Sharp
	Linear
	Constant
	Random
)

var names = [...]string{
	Smooth:        "smooth",
	Sphere:        "sphere",
	Root:          "root",
	InverseSquare: "inverse_square",
	Sharp:         "sharp",
	Linear:        "linear",
	Constant:      "constant",
	Random:        "random",
}

// Kinds lists every curve in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(names))
	for i := range names {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(names) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return names[k]
}

// Valid reports whether k names a known curve.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(names)
}

// Parse converts a curve name, case-insensitively.
func Parse(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == key {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Eval returns the influence at normalized distance d. Values of d outside
// [0,1] are clamped. rng is consulted only by Random. A nil rng makes Random
// draw from a generator seeded with RandomSeed.
func (k Kind) Eval(d float64, rng *rand.Rand) float64 {
	t := 1 - math.Max(0, math.Min(1, d))
	switch k {
	case Smooth:
		return 3*t*t - 2*t*t*t
	case Sphere:
		return math.Sqrt(2*t - t*t)
	case Root:
		return math.Sqrt(t)
	case InverseSquare:
		return t * (2 - t)
	case Sharp:
		return t * t
	case Linear:
		return t
	case Constant:
		return 1
	case Random:
		if rng == nil {
			rng = rand.New(rand.NewSource(RandomSeed))
		}
		return t * rng.Float64()
	}
	return 0
}
