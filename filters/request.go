package filters

import (
	"math"

	"github.com/kwertop/probset"
)

// FilterRequest carries the constraints a filter has to be sized for.
// _Elements_ is the expected number of elements n and must be positive.
// _FalsePositiveRate_ is the target rate p in (0, 1).
// _MemoryBudgetBits_ is the storage available for the filter.
// At least one of p and the budget has to be supplied; zero means "not
// supplied" for both. When both are given p drives the sizing.
// _EntriesPerBucket_, _LoadFactor_ and _ExactBuckets_ only affect Cuckoo
// filters; zero values select the defaults.
type FilterRequest struct {
	Elements          int64   `json:"elements"`
	FalsePositiveRate float64 `json:"falsePositiveRate,omitempty"`
	MemoryBudgetBits  int64   `json:"memoryBudgetBits,omitempty"`
	EntriesPerBucket  int     `json:"entriesPerBucket,omitempty"`
	LoadFactor        float64 `json:"loadFactor,omitempty"`
	ExactBuckets      bool    `json:"exactBuckets,omitempty"`
}

// HasRate reports whether a target false positive rate was supplied
func (request FilterRequest) HasRate() bool {
	return request.FalsePositiveRate != 0
}

// HasBudget reports whether a memory budget was supplied
func (request FilterRequest) HasBudget() bool {
	return request.MemoryBudgetBits != 0
}

// Validate checks the invariants shared by every filter kind
func (request FilterRequest) Validate() error {
	if request.Elements <= 0 {
		return probset.InvalidInputf("expected elements must be positive, got %d", request.Elements)
	}
	if !request.HasRate() && !request.HasBudget() {
		return probset.InvalidInputf("either a false positive rate or a memory budget is required")
	}
	if request.HasRate() {
		if err := validateRate(request.FalsePositiveRate); err != nil {
			return err
		}
	}
	if request.MemoryBudgetBits < 0 {
		return probset.InvalidInputf("memory budget must be positive, got %d bits", request.MemoryBudgetBits)
	}
	return nil
}

func validateRate(p float64) error {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return probset.InvalidInputf("false positive rate must be in (0, 1), got %v", p)
	}
	return nil
}
