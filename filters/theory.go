package filters

import (
	"math"

	"github.com/kwertop/probset"
)

// LowerBound is the information theoretic minimum any approximate membership
// structure needs to reach a false positive rate: log2(1/p) bits per element.
type LowerBound struct {
	Elements          uint64  `json:"elements"`
	FalsePositiveRate float64 `json:"falsePositiveRate"`
	BitsPerElement    float64 `json:"bitsPerElement"`
	StorageBits       uint64  `json:"storageBits"`
}

// LowerBoundFor returns the LowerBound for _length_ elements at _errorRate_
func LowerBoundFor(length int64, errorRate float64) (LowerBound, error) {
	if length <= 0 {
		return LowerBound{}, probset.InvalidInputf("expected elements must be positive, got %d", length)
	}
	if err := validateRate(errorRate); err != nil {
		return LowerBound{}, err
	}
	bits := -math.Log2(errorRate)
	return LowerBound{
		Elements:          uint64(length),
		FalsePositiveRate: errorRate,
		BitsPerElement:    bits,
		StorageBits:       uint64(math.Ceil(bits * float64(length))),
	}, nil
}

// Overhead is the ratio of _params_' bits per element to the lower bound at
// the rate _params_ actually achieves; 1 means optimal
func Overhead(params Parameters) float64 {
	bound := -math.Log2(params.FalsePositiveRate())
	if bound <= 0 || math.IsInf(bound, 1) {
		return math.Inf(1)
	}
	return params.BitsPerItem() / bound
}
