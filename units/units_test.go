package units

import (
	"errors"
	"testing"

	"github.com/kwertop/probset"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    float64
		wantErr bool
	}{
		{"fraction", "0.01", 0.01, false},
		{"percent", "1%", 0.01, false},
		{"percent spaced", " 5 % ", 0.05, false},
		{"exponent", "1e-6", 1e-6, false},
		{"blank", "  ", 0, false},
		{"zero", "0", 0, true},
		{"one", "1", 0, true},
		{"hundred percent", "100%", 0, true},
		{"above one", "1.5", 0, true},
		{"negative", "-0.1", 0, true},
		{"garbage", "abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && !errors.Is(err, probset.ErrInvalidInput) {
				t.Errorf("ParseRate() error = %v, want ErrInvalidInput", err)
			}
			if got != tt.want {
				t.Errorf("ParseRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseElements(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{"plain", "1000", 1000, false},
		{"kilo", "10K", 10_000, false},
		{"mega", "1M", 1_000_000, false},
		{"giga spaced", " 1 G ", 1_000_000_000, false},
		{"tera", "3T", 3_000_000_000_000, false},
		{"blank", "", 0, false},
		{"lower case", "1k", 0, true},
		{"fraction", "1.5M", 0, true},
		{"negative", "-5", 0, true},
		{"too large", "99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseElements(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseElements() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseElements() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseStorage(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{"bits", "8000", 8000, false},
		{"si bits", "8K", 8000, false},
		{"si bits explicit", "8Kb", 8000, false},
		{"si bytes", "1KB", 8000, false},
		{"binary bytes", "1KiB", 8192, false},
		{"mebibytes", "16MiB", 16 * 1024 * 1024 * 8, false},
		{"megabits", "2Mb", 2_000_000, false},
		{"gigabytes", "1GB", 8_000_000_000, false},
		{"tebibytes", "1TiB", 1 << 43, false},
		{"blank", " ", 0, false},
		{"unknown unit", "5PB", 0, true},
		{"garbage", "lots", 0, true},
		{"overflow", "9999999999TiB", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStorage(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseStorage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseStorage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if got := FormatBits(9_585_059); got != "9,585,059 bits (1.1 MiB)" {
		t.Errorf("FormatBits() = %q", got)
	}
	if got := FormatRate(0.0078125); got != "0.007812 (1 in 128)" {
		t.Errorf("FormatRate() = %q", got)
	}
	if got := FormatRate(0); got != "0" {
		t.Errorf("FormatRate(0) = %q", got)
	}
	if got := FormatCount(262_144); got != "262,144" {
		t.Errorf("FormatCount() = %q", got)
	}
}
