package filters

import "fmt"

// Recommendation names the filter kind that best fits a request and why
type Recommendation struct {
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason"`
}

// ComparisonResult is a side by side view of both filter kinds for one request.
// _LowerBound_ is only set when the request carries a false positive rate.
type ComparisonResult struct {
	Request        FilterRequest    `json:"request"`
	Bloom          BloomParameters  `json:"bloom"`
	Cuckoo         CuckooParameters `json:"cuckoo"`
	LowerBound     *LowerBound      `json:"lowerBound,omitempty"`
	Recommendation Recommendation   `json:"recommendation"`
}

// Capacity answers the inverse question: how many elements fit in a budget
type Capacity struct {
	Kind                      Kind    `json:"kind"`
	Elements                  uint64  `json:"elements"`
	StorageBits               uint64  `json:"storageBits"`
	AchievedFalsePositiveRate float64 `json:"achievedFalsePositiveRate"`
}

// Compare sizes both filter kinds for _request_ and recommends one. The
// parameter records are exactly those ComputeBloomParameters and
// ComputeCuckooParameters return for the same request.
func Compare(request FilterRequest) (ComparisonResult, error) {
	bloom, err := ComputeBloomParameters(request)
	if err != nil {
		return ComparisonResult{}, err
	}
	cuckoo, err := ComputeCuckooParameters(request)
	if err != nil {
		return ComparisonResult{}, err
	}
	result := ComparisonResult{
		Request: request,
		Bloom:   bloom,
		Cuckoo:  cuckoo,
	}
	if request.HasRate() {
		bound, err := LowerBoundFor(request.Elements, request.FalsePositiveRate)
		if err != nil {
			return ComparisonResult{}, err
		}
		result.LowerBound = &bound
		result.Recommendation = recommendBySpace(bloom, cuckoo)
	} else {
		result.Recommendation = recommendByRate(bloom, cuckoo)
	}
	return result, nil
}

// recommendBySpace picks the kind spending fewer bits per element once both
// are normalised to the rate they actually achieve
func recommendBySpace(a, b Parameters) Recommendation {
	oa, ob := Overhead(a), Overhead(b)
	best, other, overhead := a, b, oa
	if ob < oa || (ob == oa && b.BitsPerItem() < a.BitsPerItem()) {
		best, other, overhead = b, a, ob
	}
	return Recommendation{
		Kind: best.Kind(),
		Reason: fmt.Sprintf("%s filter uses %.2f bits per element (%.2fx the lower bound) against %.2f for the %s filter",
			best.Kind(), best.BitsPerItem(), overhead, other.BitsPerItem(), other.Kind()),
	}
}

// recommendByRate picks the kind with the lower false positive rate for the
// same memory budget
func recommendByRate(a, b Parameters) Recommendation {
	best, other := a, b
	if b.FalsePositiveRate() < a.FalsePositiveRate() {
		best, other = b, a
	}
	return Recommendation{
		Kind: best.Kind(),
		Reason: fmt.Sprintf("%s filter reaches a false positive rate of %.3g against %.3g for the %s filter",
			best.Kind(), best.FalsePositiveRate(), other.FalsePositiveRate(), other.Kind()),
	}
}

// Capacities answers the inverse question for both filter kinds: how many
// elements fit in _request_'s memory budget at its false positive rate. The
// element count of the request is ignored.
func Capacities(request FilterRequest) ([]Capacity, error) {
	bloom, err := BloomCapacity(request.MemoryBudgetBits, request.FalsePositiveRate)
	if err != nil {
		return nil, err
	}
	cuckoo, err := CuckooCapacity(request.MemoryBudgetBits, request.FalsePositiveRate, request.EntriesPerBucket, request.LoadFactor)
	if err != nil {
		return nil, err
	}
	return []Capacity{bloom, cuckoo}, nil
}
