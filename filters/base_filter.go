/*
Package filters computes optimal parameters for probabilistic filters before
they are built.

 1. Bloom Filter: bit array size and number of hash functions for a target
    false positive rate or a memory budget.
    Refer: https://en.wikipedia.org/wiki/Bloom_filter
 2. Cuckoo Filter: fingerprint size, number of buckets and entries per bucket.
    Refer: https://www.cs.cmu.edu/~dga/papers/cuckoo-conext2014.pdf

Every calculation is a pure function of its FilterRequest: no I/O, no shared
state, safe for concurrent use. The returned parameter records are plain
values and both implement Parameters, so callers can compare filter kinds
without switching on concrete types.
*/
package filters

import "github.com/kwertop/probset"

// Kind names a filter family
type Kind string

const (
	Bloom  Kind = "bloom"
	Cuckoo Kind = "cuckoo"
)

// Parameters is implemented by the parameter record of every filter kind
type Parameters interface {
	Kind() Kind
	FalsePositiveRate() float64
	BitsPerItem() float64
	StorageBits() uint64
}

// Sizer computes the Parameters of one filter kind for a request
type Sizer func(request FilterRequest) (Parameters, error)

var sizers = map[Kind]Sizer{
	Bloom: func(request FilterRequest) (Parameters, error) {
		return ComputeBloomParameters(request)
	},
	Cuckoo: func(request FilterRequest) (Parameters, error) {
		return ComputeCuckooParameters(request)
	},
}

// SizerFor returns the Sizer registered for _kind_
func SizerFor(kind Kind) (Sizer, error) {
	sizer, ok := sizers[kind]
	if !ok {
		return nil, probset.Unsupportedf("unknown filter kind %q", kind)
	}
	return sizer, nil
}
