package dates

import (
	"math"
	"testing"
	"time"
)

func TestToISO_Packed(t *testing.T) {
	packed := Pack(2025, time.December, 12)
	if packed != 132761088 {
		t.Fatalf("Pack(2025-12-12) = %v, want 132761088", packed)
	}

	got := ToISO(packed)
	want := "2025-12-12T00:00:00.000Z"
	if got != want {
		t.Errorf("ToISO(%v) = %q, want %q", packed, got, want)
	}
}

func TestToISO_Unix(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"whole seconds", 1700000000, "2023-11-14T22:13:20.000Z"},
		{"fractional seconds", 1700000000.25, "2023-11-14T22:13:20.250Z"},
		{"threshold itself", UnixThreshold, "2001-09-09T01:46:40.000Z"},
		{"last second of year 9999", 253402300799, "9999-12-31T23:59:59.000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToISO(tt.in); got != tt.want {
				t.Errorf("ToISO(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToISO_Empty(t *testing.T) {
	tests := []struct {
		name string
		in   float64
	}{
		{"zero", 0},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
		{"year too small", Pack(1899, time.January, 1)},
		{"year too large", Pack(2101, time.January, 1)},
		{"month zero", Pack(2024, 0, 1)},
		{"month thirteen", Pack(2024, 13, 1)},
		{"day zero", Pack(2024, time.March, 0)},
		{"small garbage", 42},
		{"unix beyond year 9999", 1e300},
		{"unix before year 1", -1e20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToISO(tt.in); got != "" {
				t.Errorf("ToISO(%v) = %q, want empty", tt.in, got)
			}
		})
	}
}

func TestToISO_PackedBounds(t *testing.T) {
	for _, year := range []int{MinYear, 1999, 2024, MaxYear} {
		for month := time.January; month <= time.December; month++ {
			for _, day := range []int{1, 15, 28, 31} {
				v := Pack(year, month, day)
				if ToISO(v) == "" {
					t.Errorf("ToISO(Pack(%d, %d, %d)) returned empty", year, month, day)
				}
				if IsUnix(v) {
					t.Errorf("Pack(%d, %d, %d) = %v classified as unix", year, month, day, v)
				}
			}
		}
	}
}

func TestToISO_PackedOverflowNormalizes(t *testing.T) {
	got := ToISO(Pack(2023, time.February, 31))
	if got != "2023-03-03T00:00:00.000Z" {
		t.Errorf("ToISO(2023-02-31) = %q, want 2023-03-03T00:00:00.000Z", got)
	}
}

func TestStamp(t *testing.T) {
	if got := Stamp(Pack(2024, time.July, 4)); got != "20240704" {
		t.Errorf("Stamp(packed) = %q, want 20240704", got)
	}
	if got := Stamp(1700000000); got != "20231114" {
		t.Errorf("Stamp(unix) = %q, want 20231114", got)
	}
	if got := Stamp(0); got != "" {
		t.Errorf("Stamp(0) = %q, want empty", got)
	}
}

func TestFirst(t *testing.T) {
	start := Pack(2024, time.May, 2)
	if got := First(0, start); got != start {
		t.Errorf("First(0, start) = %v, want %v", got, start)
	}
	if got := First(1700000000, start); got != 1700000000 {
		t.Errorf("First(creation, start) = %v, want creation", got)
	}
	if got := First(0, 7); got != 0 {
		t.Errorf("First(0, invalid) = %v, want 0", got)
	}
}
