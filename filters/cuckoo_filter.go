package filters

import (
	"math"

	"github.com/kwertop/probset"
)

// CuckooParameters describes an optimally sized Cuckoo filter.
// _NumBuckets_ is a power of two unless the request asked for exact sizing.
// _FingerprintBits_ is the size f of the fingerprint stored per entry.
// _AchievedFalsePositiveRate_ is the bound 2b/2^f for the chosen integers;
// _LoadAdjustedFalsePositiveRate_ refines it for a table filled to _LoadFactor_.
type CuckooParameters struct {
	Elements                      uint64  `json:"elements"`
	NumBuckets                    uint64  `json:"numBuckets"`
	EntriesPerBucket              uint64  `json:"entriesPerBucket"`
	FingerprintBits               uint64  `json:"fingerprintBits"`
	LoadFactor                    float64 `json:"loadFactor"`
	TotalBits                     uint64  `json:"totalBits"`
	AchievedFalsePositiveRate     float64 `json:"achievedFalsePositiveRate"`
	LoadAdjustedFalsePositiveRate float64 `json:"loadAdjustedFalsePositiveRate"`
	BitsPerElement                float64 `json:"bitsPerElement"`
}

// ComputeCuckooParameters sizes a Cuckoo filter for _request_.
// The table gets ceil(n / (alpha b)) buckets, rounded up to a power of two.
// With a false positive rate p the fingerprint has the fewest bits f for which
// 2b / 2^f <= p;
// without one it takes every bit of the memory budget the buckets leave.
func ComputeCuckooParameters(request FilterRequest) (CuckooParameters, error) {
	if err := request.Validate(); err != nil {
		return CuckooParameters{}, err
	}
	shape, err := resolveCuckooShape(request)
	if err != nil {
		return CuckooParameters{}, err
	}
	n := uint64(request.Elements)
	buckets, err := shape.numBuckets(n)
	if err != nil {
		return CuckooParameters{}, err
	}
	cells := buckets * shape.bucketSize
	var f uint64
	if request.HasRate() {
		f = probset.CalculateFingerPrintLength(shape.bucketSize, request.FalsePositiveRate)
	} else {
		f = uint64(request.MemoryBudgetBits) / cells
		if f < 1 {
			return CuckooParameters{}, probset.InvalidInputf("memory budget of %d bits is too small for %d buckets of %d entries", request.MemoryBudgetBits, buckets, shape.bucketSize)
		}
	}
	if f > math.MaxUint64/cells {
		return CuckooParameters{}, probset.InvalidInputf("%d elements at %d bit fingerprints need more than 2^64 bits", n, f)
	}
	total := cells * f
	return CuckooParameters{
		Elements:                      n,
		NumBuckets:                    buckets,
		EntriesPerBucket:              shape.bucketSize,
		FingerprintBits:               f,
		LoadFactor:                    shape.loadFactor,
		TotalBits:                     total,
		AchievedFalsePositiveRate:     probset.CuckooPositiveRate(shape.bucketSize, f),
		LoadAdjustedFalsePositiveRate: shape.loadAdjustedRate(f),
		BitsPerElement:                float64(total) / float64(n),
	}, nil
}

// CuckooCapacity returns how many elements a Cuckoo filter of _budgetBits_ bits
// holds at false positive rate _errorRate_. _bucketSize_ and _loadFactor_
// follow the FilterRequest conventions, zero picks the defaults.
func CuckooCapacity(budgetBits int64, errorRate float64, bucketSize int, loadFactor float64) (Capacity, error) {
	if budgetBits <= 0 {
		return Capacity{}, probset.InvalidInputf("memory budget must be positive, got %d bits", budgetBits)
	}
	if err := validateRate(errorRate); err != nil {
		return Capacity{}, err
	}
	shape, err := resolveCuckooShape(FilterRequest{EntriesPerBucket: bucketSize, LoadFactor: loadFactor})
	if err != nil {
		return Capacity{}, err
	}
	f := probset.CalculateFingerPrintLength(shape.bucketSize, errorRate)
	buckets := uint64(budgetBits) / f / shape.bucketSize
	n := uint64(math.Floor(float64(buckets*shape.bucketSize) * shape.loadFactor))
	return Capacity{
		Kind:                      Cuckoo,
		Elements:                  n,
		StorageBits:               buckets * shape.bucketSize * f,
		AchievedFalsePositiveRate: probset.CuckooPositiveRate(shape.bucketSize, f),
	}, nil
}

func (p CuckooParameters) Kind() Kind {
	return Cuckoo
}

func (p CuckooParameters) FalsePositiveRate() float64 {
	return p.AchievedFalsePositiveRate
}

func (p CuckooParameters) BitsPerItem() float64 {
	return p.BitsPerElement
}

func (p CuckooParameters) StorageBits() uint64 {
	return p.TotalBits
}
