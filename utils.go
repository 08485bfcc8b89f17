/*
Package probset holds the sizing primitives shared by the Bloom and Cuckoo
filter parameter calculators, the error kinds every calculator reports and the
Redis connection helpers used by the result cache.

The formulas follow the usual literature:

 1. Bloom filter size: m = -(n ln p) / (ln 2)^2, hashes k = (m / n) ln 2.
    Refer: https://en.wikipedia.org/wiki/Bloom_filter#Optimal_number_of_hash_functions
 2. Cuckoo filter fingerprint: f = log2(2b / p) for buckets of b entries.
    Refer: https://www.cs.cmu.edu/~dga/papers/cuckoo-conext2014.pdf
*/
package probset

import (
	"math"
	"math/bits"
)

// CalculateFilterSize returns the number of bits a Bloom filter needs to hold
// _length_ elements at false positive rate _errorRate_
func CalculateFilterSize(length uint64, errorRate float64) uint64 {
	return uint64(math.Ceil(-((float64(length) * math.Log(errorRate)) / math.Pow(math.Ln2, 2))))
}

// CalculateNumHashes returns the optimal number of hash functions for a Bloom
// filter of _size_ bits holding _length_ elements, never less than 1
func CalculateNumHashes(size, length uint64) uint64 {
	return Max(uint64(math.Round((float64(size)/float64(length))*math.Ln2)), 1)
}

// CalculateFingerPrintLength returns the smallest number of fingerprint bits
// f for which a Cuckoo filter with _bucketSize_ entries per bucket stays at or
// under _errorRate_, i.e. 2b/2^f <= errorRate
func CalculateFingerPrintLength(bucketSize uint64, errorRate float64) uint64 {
	// logs are subtracted so subnormal rates do not overflow 2b/p
	f := uint64(math.Ceil(math.Log2(float64(2*bucketSize)) - math.Log2(errorRate)))
	// the logs can round a bit either way around an exact power of two
	for CuckooPositiveRate(bucketSize, f) > errorRate {
		f++
	}
	for f > 1 && CuckooPositiveRate(bucketSize, f-1) <= errorRate {
		f--
	}
	return f
}

// BloomPositiveRate is the false positive rate of a Bloom filter of _size_ bits
// and _numHashes_ hash functions once _length_ elements are inserted
func BloomPositiveRate(size, numHashes, length uint64) float64 {
	k := float64(numHashes)
	return math.Pow(1-math.Exp(-k*float64(length)/float64(size)), k)
}

// CuckooPositiveRate is the upper bound 2b/2^f on the false positive rate of a
// Cuckoo filter with _bucketSize_ entries per bucket and f-bit fingerprints
func CuckooPositiveRate(bucketSize, fingerPrintLength uint64) float64 {
	return math.Ldexp(float64(2*bucketSize), -int(fingerPrintLength))
}

// NextPowerOfTwo rounds _v_ up to a power of two. Zero maps to 1.
func NextPowerOfTwo(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len64(v-1)
}

func Max(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
