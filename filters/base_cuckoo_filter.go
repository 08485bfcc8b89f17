package filters

import (
	"math"

	"github.com/kwertop/probset"
)

// DefaultEntriesPerBucket is the bucket size used when a request leaves it unset
const DefaultEntriesPerBucket = 4

// loadFactors maps each supported bucket size to the occupancy a Cuckoo filter
// with two candidate buckets reaches before insertions start failing.
// The row is the one from Fan et al., "Cuckoo Filter: Practically Better Than
// Bloom", section 5.1 "Optimal bucket size": 50% at b=1, 84% at b=2, 95% at
// b=4 and 98% at b=8. b=4 keeps the 95.5% they measured, so 1M elements still
// fit in 2^18 buckets of 4.
var loadFactors = map[uint64]float64{
	1: 0.50,
	2: 0.84,
	4: 0.955,
	8: 0.98,
}

// LoadFactor returns the recommended load factor for buckets of _bucketSize_
// entries
func LoadFactor(bucketSize int) (float64, error) {
	if bucketSize < 0 {
		return 0, probset.InvalidInputf("entries per bucket must be positive, got %d", bucketSize)
	}
	alpha, ok := loadFactors[uint64(bucketSize)]
	if !ok {
		return 0, probset.Unsupportedf("no recommended load factor for %d entries per bucket, use one of 1, 2, 4 or 8", bucketSize)
	}
	return alpha, nil
}

// cuckooShape holds the resolved hyper parameters of a Cuckoo request
type cuckooShape struct {
	bucketSize uint64
	loadFactor float64
	exact      bool
}

func resolveCuckooShape(request FilterRequest) (cuckooShape, error) {
	bucketSize := request.EntriesPerBucket
	if bucketSize == 0 {
		bucketSize = DefaultEntriesPerBucket
	}
	alpha, err := LoadFactor(bucketSize)
	if err != nil {
		return cuckooShape{}, err
	}
	if request.LoadFactor != 0 {
		if math.IsNaN(request.LoadFactor) || request.LoadFactor < 0 || request.LoadFactor > 1 {
			return cuckooShape{}, probset.InvalidInputf("load factor must be in (0, 1], got %v", request.LoadFactor)
		}
		alpha = request.LoadFactor
	}
	return cuckooShape{uint64(bucketSize), alpha, request.ExactBuckets}, nil
}

// numBuckets is the number of buckets needed to hold _length_ elements at the
// shape's load factor
func (shape cuckooShape) numBuckets(length uint64) (uint64, error) {
	buckets := math.Ceil(float64(length) / (shape.loadFactor * float64(shape.bucketSize)))
	if buckets >= maxBits/float64(shape.bucketSize) {
		return 0, probset.InvalidInputf("%d elements need too many buckets", length)
	}
	if shape.exact {
		return uint64(buckets), nil
	}
	return probset.NextPowerOfTwo(uint64(buckets)), nil
}

// loadAdjustedRate estimates the false positive rate once the table is filled
// to its load factor: each lookup compares against 2b*alpha occupied entries
func (shape cuckooShape) loadAdjustedRate(fingerPrintLength uint64) float64 {
	comparisons := 2 * float64(shape.bucketSize) * shape.loadFactor
	// 1 - (1 - 2^-f)^(2b alpha), kept accurate when 2^-f is tiny
	return -math.Expm1(comparisons * math.Log1p(-math.Ldexp(1, -int(fingerPrintLength))))
}
