// Package units turns the free form numbers a user types into the calculator
// (rates like "1%", counts like "10M", sizes like "16MiB") into plain values,
// and formats results back for display.
package units

import (
	"fmt"
	"math"
	"math/bits"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kwertop/probset"
)

var (
	rateRe     = regexp.MustCompile(`^\s*([\d.]+(?:[eE][-+]?\d+)?)\s*(%)?\s*$`)
	elementsRe = regexp.MustCompile(`^\s*(\d+)\s*([KMGT])?\s*$`)
	storageRe  = regexp.MustCompile(`^\s*(\d+)\s*(K|Kb|KB|KiB|M|Mb|MB|MiB|G|Gb|GB|GiB|T|Tb|TB|TiB)?\s*$`)
)

// ParseRate parses a false positive rate given as a fraction ("0.01") or a
// percentage ("1%"). Blank input returns 0, meaning not supplied.
func ParseRate(s string) (float64, error) {
	if isBlank(s) {
		return 0, nil
	}
	caps := rateRe.FindStringSubmatch(s)
	if caps == nil {
		return 0, probset.InvalidInputf("cannot parse false positive rate %q", s)
	}
	f, err := strconv.ParseFloat(caps[1], 64)
	if err != nil {
		return 0, probset.InvalidInputf("cannot parse false positive rate %q", s)
	}
	if caps[2] == "%" {
		f /= 100
	}
	if f <= 0 || f >= 1 {
		return 0, probset.InvalidInputf("false positive rate must be in (0, 1), got %q", s)
	}
	return f, nil
}

// ParseElements parses an element count with an optional SI suffix
// (K, M, G or T). Blank input returns 0, meaning not supplied.
func ParseElements(s string) (int64, error) {
	if isBlank(s) {
		return 0, nil
	}
	caps := elementsRe.FindStringSubmatch(s)
	if caps == nil {
		return 0, probset.InvalidInputf("cannot parse number of elements %q", s)
	}
	if caps[2] == "" {
		n, err := strconv.ParseInt(caps[1], 10, 64)
		if err != nil {
			return 0, probset.InvalidInputf("number of elements %q is too large", s)
		}
		return n, nil
	}
	n, err := humanize.ParseBytes(caps[1] + caps[2])
	if err != nil || n > math.MaxInt64 {
		return 0, probset.InvalidInputf("number of elements %q is too large", s)
	}
	return int64(n), nil
}

// ParseStorage parses a storage size into bits. Bare numbers and the K, Kb,
// M, Mb, ... suffixes are SI bits, KB, MB, ... are SI bytes and KiB, MiB, ...
// are binary bytes. Blank input returns 0, meaning not supplied.
func ParseStorage(s string) (int64, error) {
	if isBlank(s) {
		return 0, nil
	}
	caps := storageRe.FindStringSubmatch(s)
	if caps == nil {
		return 0, probset.InvalidInputf("cannot parse storage size %q", s)
	}
	number, unit := caps[1], caps[2]
	scale := uint64(1)
	if strings.HasSuffix(unit, "B") {
		scale = 8
	} else {
		unit = strings.TrimSuffix(unit, "b")
	}
	var size uint64
	var err error
	if unit == "" {
		size, err = strconv.ParseUint(number, 10, 64)
	} else {
		size, err = humanize.ParseBytes(number + unit)
	}
	if err != nil {
		return 0, probset.InvalidInputf("storage size %q is too large", s)
	}
	hi, total := bits.Mul64(size, scale)
	if hi != 0 || total > math.MaxInt64 {
		return 0, probset.InvalidInputf("storage size %q is too large", s)
	}
	return int64(total), nil
}

// FormatBits renders a bit count with its byte size, e.g.
// "9,585,059 bits (1.1 MiB)"
func FormatBits(n uint64) string {
	return fmt.Sprintf("%s bits (%s)", humanize.Comma(int64(n)), humanize.IBytes((n+7)/8))
}

// FormatRate renders a false positive rate with its "1 in N" form
func FormatRate(rate float64) string {
	if rate <= 0 {
		return "0"
	}
	return fmt.Sprintf("%.4g (1 in %s)", rate, humanize.Commaf(math.Round(1/rate)))
}

// FormatCount renders an element count with thousands separators
func FormatCount(n uint64) string {
	return humanize.Comma(int64(n))
}

// FormatSI renders an element count in short SI form, e.g. "1 M"
func FormatSI(n uint64) string {
	return humanize.SI(float64(n), "")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
