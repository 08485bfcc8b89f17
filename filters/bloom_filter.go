package filters

import (
	"math"

	"github.com/kwertop/probset"
)

// largest bit count representable as a uint64 with room for rounding
const maxBits = float64(math.MaxUint64) / 2

// BloomParameters describes an optimally sized Bloom filter.
// _BitArraySize_ is m, the number of bits in the filter.
// _NumHashFunctions_ is k, the number of hash functions applied per element.
// _AchievedFalsePositiveRate_ is the rate realised by the integer m and k,
// which differs slightly from the requested one because of rounding.
type BloomParameters struct {
	Elements                  uint64  `json:"elements"`
	BitArraySize              uint64  `json:"bitArraySize"`
	NumHashFunctions          uint64  `json:"numHashFunctions"`
	AchievedFalsePositiveRate float64 `json:"achievedFalsePositiveRate"`
	BitsPerElement            float64 `json:"bitsPerElement"`
}

// ComputeBloomParameters sizes a Bloom filter for _request_.
// With a false positive rate p the bit array holds ceil(-n ln p / (ln 2)^2)
// bits; without one the memory budget is taken as the bit array size.
// The number of hashes is round((m / n) ln 2), never less than one.
func ComputeBloomParameters(request FilterRequest) (BloomParameters, error) {
	if err := request.Validate(); err != nil {
		return BloomParameters{}, err
	}
	n := uint64(request.Elements)
	var m uint64
	if request.HasRate() {
		if bits := -float64(n) * math.Log(request.FalsePositiveRate) / (math.Ln2 * math.Ln2); bits >= maxBits {
			return BloomParameters{}, probset.InvalidInputf("%d elements at rate %v need more than 2^64 bits", n, request.FalsePositiveRate)
		}
		m = probset.CalculateFilterSize(n, request.FalsePositiveRate)
	} else {
		m = uint64(request.MemoryBudgetBits)
	}
	m = probset.Max(m, 1)
	k := probset.CalculateNumHashes(m, n)
	return BloomParameters{
		Elements:                  n,
		BitArraySize:              m,
		NumHashFunctions:          k,
		AchievedFalsePositiveRate: probset.BloomPositiveRate(m, k, n),
		BitsPerElement:            float64(m) / float64(n),
	}, nil
}

// BloomCapacity returns how many elements a Bloom filter of _budgetBits_ bits
// holds while keeping its false positive rate at _errorRate_
func BloomCapacity(budgetBits int64, errorRate float64) (Capacity, error) {
	if budgetBits <= 0 {
		return Capacity{}, probset.InvalidInputf("memory budget must be positive, got %d bits", budgetBits)
	}
	if err := validateRate(errorRate); err != nil {
		return Capacity{}, err
	}
	m := uint64(budgetBits)
	elements := math.Floor(-float64(m) * math.Ln2 * math.Ln2 / math.Log(errorRate))
	if elements >= maxBits {
		return Capacity{}, probset.InvalidInputf("%d bits at rate %v hold more than 2^63 elements", m, errorRate)
	}
	n := uint64(elements)
	capacity := Capacity{Kind: Bloom, Elements: n, StorageBits: m}
	if n > 0 {
		capacity.AchievedFalsePositiveRate = probset.BloomPositiveRate(m, probset.CalculateNumHashes(m, n), n)
	}
	return capacity, nil
}

func (p BloomParameters) Kind() Kind {
	return Bloom
}

func (p BloomParameters) FalsePositiveRate() float64 {
	return p.AchievedFalsePositiveRate
}

func (p BloomParameters) BitsPerItem() float64 {
	return p.BitsPerElement
}

func (p BloomParameters) StorageBits() uint64 {
	return p.BitArraySize
}
