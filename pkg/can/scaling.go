package can

import (
	"math"

	"github.com/cockroachdb/errors"
)

// Scaling is the linear transform physical = raw*Factor + Offset.
type Scaling struct {
	Factor float64
	Offset float64
}

// Identity leaves raw values unchanged.
var Identity = Scaling{Factor: 1}

func (s Scaling) ToPhysical(raw float64) float64 {
	return RawToPhysical(raw, s.Factor, s.Offset)
}

func (s Scaling) ToRaw(physical float64) (float64, error) {
	return PhysicalToRaw(physical, s.Factor, s.Offset)
}

// RawToPhysical applies the signal's factor and offset.
func RawToPhysical(raw, factor, offset float64) float64 {
	return raw*factor + offset
}

// PhysicalToRaw reverses RawToPhysical.
func PhysicalToRaw(physical, factor, offset float64) (float64, error) {
	if factor == 0 {
		return 0, errors.Wrapf(ErrDivideByZero, "physical value %g with offset %g", physical, offset)
	}
	return (physical - offset) / factor, nil
}

// IntegerBits converts a scaled raw value into the integer bit pattern of an
// integer layout. Fractions are truncated toward zero, matching a C cast;
// values beyond 64 bits saturate before the pattern is cut to l.Size bits.
func IntegerBits(raw float64, l Layout) uint64 {
	t := math.Trunc(raw)
	var bits uint64
	switch {
	case math.IsNaN(t):
		bits = 0
	case t >= math.MaxUint64:
		bits = math.MaxUint64
	case t >= math.MaxInt64:
		bits = uint64(t)
	case t <= math.MinInt64:
		bits = 1 << 63
	default:
		bits = uint64(int64(t))
	}
	return bits & l.mask()
}
