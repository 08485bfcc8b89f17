package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/kwertop/probset/filters"
	"github.com/kwertop/probset/units"
)

// calc sizes both filter kinds once and prints the comparison
type calc struct {
	Elements string  `opts:"help=expected number of elements (e.g. 10M), short=n"`
	Rate     string  `opts:"help=target false positive rate (e.g. 1% or 0.01), short=p"`
	Storage  string  `opts:"help=memory budget in bits or bytes (e.g. 16MiB or 64Mb), short=s"`
	Bucket   int     `opts:"help=cuckoo entries per bucket: 1 2 4 or 8 (default 4), short=b"`
	Load     float64 `opts:"help=override the cuckoo load factor, short=l"`
	Exact    bool    `opts:"help=do not round the cuckoo bucket count to a power of two, short=x"`
	JSON     bool    `opts:"help=print the result as json, short=j"`
}

func (c *calc) Run() error {
	return c.run(os.Stdout)
}

func (c *calc) request() (filters.FilterRequest, error) {
	request := filters.FilterRequest{
		EntriesPerBucket: c.Bucket,
		LoadFactor:       c.Load,
		ExactBuckets:     c.Exact,
	}
	var err error
	if request.Elements, err = units.ParseElements(c.Elements); err != nil {
		return request, err
	}
	if request.FalsePositiveRate, err = units.ParseRate(c.Rate); err != nil {
		return request, err
	}
	if request.MemoryBudgetBits, err = units.ParseStorage(c.Storage); err != nil {
		return request, err
	}
	return request, nil
}

// run prints the comparison for the given constraints, or the capacity of the
// storage budget when no element count was given
func (c *calc) run(w io.Writer) error {
	request, err := c.request()
	if err != nil {
		return err
	}
	if request.Elements == 0 && request.HasBudget() {
		capacities, err := filters.Capacities(request)
		if err != nil {
			return err
		}
		if c.JSON {
			return printJSON(w, capacities)
		}
		return printCapacities(w, capacities)
	}
	result, err := filters.Compare(request)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(w, result)
	}
	return printComparison(w, result)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printComparison(w io.Writer, result filters.ComparisonResult) error {
	b, ck := result.Bloom, result.Cuckoo
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\t%s\n", filters.Bloom, filters.Cuckoo)
	fmt.Fprintf(tw, "storage\t%s\t%s\n", units.FormatBits(b.BitArraySize), units.FormatBits(ck.TotalBits))
	fmt.Fprintf(tw, "bits per element\t%.2f\t%.2f\n", b.BitsPerElement, ck.BitsPerElement)
	fmt.Fprintf(tw, "false positive rate\t%s\t%s\n", units.FormatRate(b.AchievedFalsePositiveRate), units.FormatRate(ck.AchievedFalsePositiveRate))
	fmt.Fprintf(tw, "rate at load\t\t%s\n", units.FormatRate(ck.LoadAdjustedFalsePositiveRate))
	fmt.Fprintf(tw, "shape\t%d hash functions\t%s buckets x %d x %d bits\n",
		b.NumHashFunctions, units.FormatCount(ck.NumBuckets), ck.EntriesPerBucket, ck.FingerprintBits)
	fmt.Fprintf(tw, "overhead\t%.2fx\t%.2fx\n", filters.Overhead(b), filters.Overhead(ck))
	if err := tw.Flush(); err != nil {
		return err
	}
	if lb := result.LowerBound; lb != nil {
		fmt.Fprintf(w, "\nlower bound: %.2f bits per element, %s\n", lb.BitsPerElement, units.FormatBits(lb.StorageBits))
	}
	_, err := fmt.Fprintf(w, "recommended: %s (%s)\n", result.Recommendation.Kind, result.Recommendation.Reason)
	return err
}

func printCapacities(w io.Writer, capacities []filters.Capacity) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\telements\tstorage used\tfalse positive rate")
	for _, c := range capacities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Kind, units.FormatCount(c.Elements), units.FormatBits(c.StorageBits), units.FormatRate(c.AchievedFalsePositiveRate))
	}
	return tw.Flush()
}
