package probset

import (
	"errors"
	"math"
	"testing"
)

func TestCalculateFilterSize(t *testing.T) {
	if size := CalculateFilterSize(1_000_000, 0.01); size != 9_585_059 {
		t.Errorf("filter size should be 9585059, instead found %v", size)
	}
	if size := CalculateFilterSize(1, 0.5); size != 2 {
		t.Errorf("filter size should be 2, instead found %v", size)
	}
}

func TestCalculateNumHashes(t *testing.T) {
	if k := CalculateNumHashes(9_585_059, 1_000_000); k != 7 {
		t.Errorf("number of hashes should be 7, instead found %v", k)
	}
	if k := CalculateNumHashes(10, 1000); k != 1 {
		t.Errorf("number of hashes should be clamped to 1, instead found %v", k)
	}
}

func TestCalculateFingerPrintLength(t *testing.T) {
	tests := []struct {
		bucketSize uint64
		errorRate  float64
		want       uint64
	}{
		{4, 0.01, 10},
		{2, 0.01, 9},
		{8, 0.01, 11},
		{4, 0.5, 4},
		{1, 1e-6, 21},
		{4, 8.0 / 1024, 10},
		{4, math.Nextafter(8.0/1024, 0), 11},
		{4, 1e-320, 1067},
	}
	for _, tt := range tests {
		if got := CalculateFingerPrintLength(tt.bucketSize, tt.errorRate); got != tt.want {
			t.Errorf("fingerprint for b=%v p=%v should be %v, instead found %v", tt.bucketSize, tt.errorRate, tt.want, got)
		}
	}
}

func TestPositiveRates(t *testing.T) {
	if rate := CuckooPositiveRate(4, 10); rate != 0.0078125 {
		t.Errorf("cuckoo rate should be 0.0078125, instead found %v", rate)
	}
	if rate := BloomPositiveRate(9_585_059, 7, 1_000_000); rate < 0.01 || rate > 0.0101 {
		t.Errorf("bloom rate should be just above 0.01, instead found %v", rate)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := map[uint64]uint64{
		0:       1,
		1:       1,
		2:       2,
		3:       4,
		261_781: 262_144,
		262_144: 262_144,
		262_145: 524_288,
	}
	for in, want := range tests {
		if got := NextPowerOfTwo(in); got != want {
			t.Errorf("NextPowerOfTwo(%v) should be %v, instead found %v", in, want, got)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	err := InvalidInputf("bad %s", "rate")
	if !errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnsupportedConfiguration) {
		t.Errorf("%v should only be an invalid input error", err)
	}
	if err.Error() != "probset: bad rate: invalid input" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if err := Unsupportedf("b=%d", 3); !errors.Is(err, ErrUnsupportedConfiguration) {
		t.Errorf("%v should be an unsupported configuration error", err)
	}
}

func TestFingerPrintLengthIsMinimal(t *testing.T) {
	for _, b := range []uint64{1, 2, 4, 8} {
		for _, p := range []float64{0.5, 0.25, 0.1, 1.0 / 3, 1e-3, 1.0 / 1024, math.Nextafter(1.0/1024, 1), 1e-300, 1e-320} {
			f := CalculateFingerPrintLength(b, p)
			if CuckooPositiveRate(b, f) > p {
				t.Errorf("b=%v p=%v: %v bits give rate %v above the target", b, p, f, CuckooPositiveRate(b, f))
			}
			if f > 1 && CuckooPositiveRate(b, f-1) <= p {
				t.Errorf("b=%v p=%v: %v bits should already be enough", b, p, f-1)
			}
		}
	}
}
