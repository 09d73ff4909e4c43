package model

import (
	"math"
	"math/bits"
)

// Holding is one validated equity position of a sync batch.
// ID is the element's position in the source array, so it is only unique within a batch.
type Holding struct {
	ID             string
	Ticker         string
	Name           string
	Currency       string
	PriceCents     int64
	Quantity       int64
	PriceTimestamp int64 // unix seconds
}

// HeldCents is the value of the position in minor currency units.
// It saturates at math.MinInt64 or math.MaxInt64 instead of wrapping.
func (h Holding) HeldCents() int64 {
	negative := (h.PriceCents < 0) != (h.Quantity < 0)

	hi, lo := bits.Mul64(absUint64(h.PriceCents), absUint64(h.Quantity))

	switch {
	case lo == 0 && hi == 0:
		return 0
	case negative && (hi != 0 || lo > 1<<63):
		return math.MinInt64
	case negative:
		return int64(-lo)
	case hi != 0 || lo > math.MaxInt64:
		return math.MaxInt64
	default:
		return int64(lo)
	}
}

func absUint64(v int64) uint64 {
	u := uint64(v)
	if v < 0 {
		u = -u
	}
	return u
}
