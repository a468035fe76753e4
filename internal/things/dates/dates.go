// Package dates decodes the two date encodings found in the Things database.
//
// Things stores instants in two shapes:
//   - creationDate and stopDate are REAL seconds since the Unix epoch
//   - startDate and deadline are INTEGER packed dates: year<<16 | month<<12 | day<<7
//
// Both columns are nullable and the same column has historically held either
// shape, so the decoder tells them apart by magnitude. Packed values for years
// up to 2100 stay below 1.4e8, while any Unix timestamp after 2001 is above
// 1e9. Values are classified with UnixThreshold; keep it as is.
package dates

import (
	"math"
	"time"
)

// UnixThreshold is the smallest integral value treated as Unix seconds.
// Integral values below it are decoded as packed dates.
const UnixThreshold = 1_000_000_000

// ISOLayout matches the millisecond UTC form produced by JavaScript's toISOString.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Packed date validity bounds.
const (
	MinYear = 1900
	MaxYear = 2100
)

// ToISO converts a raw date value to an ISO-8601 string.
// Zero, NaN and invalid packed values yield "".
func ToISO(v float64) string {
	t, ok := Decode(v)
	if !ok {
		return ""
	}
	return t.Format(ISOLayout)
}

// Stamp returns the date part of v as YYYYMMDD, or "" if v does not decode.
func Stamp(v float64) string {
	t, ok := Decode(v)
	if !ok {
		return ""
	}
	return t.Format("20060102")
}

// Unix seconds of 0001-01-01T00:00:00Z and 9999-12-31T23:59:59Z, the range
// an ISO-8601 four-digit year can express.
const (
	minUnix = -62135596800
	maxUnix = 253402300799
)

// Decode converts a raw date value to a UTC time.
func Decode(v float64) (time.Time, bool) {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, false
	}
	if IsUnix(v) {
		if v < minUnix || v > maxUnix {
			return time.Time{}, false
		}
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}
	return unpack(int64(v))
}

// IsUnix reports whether v is interpreted as seconds since the epoch.
func IsUnix(v float64) bool {
	return v != math.Trunc(v) || v >= UnixThreshold || v < 0
}

func unpack(n int64) (time.Time, bool) {
	year := int(n >> 16)
	month := int((n >> 12) & 0xF)
	day := int((n >> 7) & 0x1F)

	if year < MinYear || year > MaxYear {
		return time.Time{}, false
	}
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	// time.Date normalizes overflow (Feb 31 -> Mar 3), same as the source app.
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// Pack encodes a calendar date in the packed integer form.
func Pack(year int, month time.Month, day int) float64 {
	return float64(int64(year)<<16 | int64(month)<<12 | int64(day)<<7)
}

// First returns the first value that decodes to a date, or 0.
func First(values ...float64) float64 {
	for _, v := range values {
		if _, ok := Decode(v); ok {
			return v
		}
	}
	return 0
}
