// Package units parses the CSS lengths and page formats used for printed
// output.
package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLength indicates a length string could not be parsed.
var ErrInvalidLength = errors.New("invalid length")

// ErrUnknownFormat indicates an unsupported page format name.
var ErrUnknownFormat = errors.New("unknown page format")

// Conversion factors to inches.
const (
	mmPerInch = 25.4
	cmPerInch = 2.54
	pxPerInch = 96.0
	ptPerInch = 72.0
)

// Length is a distance normalized to inches.
type Length float64

// Inches returns the length in inches.
func (l Length) Inches() float64 { return float64(l) }

// ParseLength parses a non-negative CSS length ("20mm", "1.5cm", "0.5in",
// "48px", "36pt"). A bare number is read as millimetres.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidLength)
	}

	num, factor := s, 1/mmPerInch
	for _, u := range []struct {
		suffix string
		factor float64
	}{
		{"mm", 1 / mmPerInch},
		{"cm", 1 / cmPerInch},
		{"in", 1},
		{"px", 1 / pxPerInch},
		{"pt", 1 / ptPerInch},
	} {
		if strings.HasSuffix(s, u.suffix) {
			num, factor = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.factor
			break
		}
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLength, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidLength, s)
	}
	return Length(v * factor), nil
}

// PaperSize is a page size in inches.
type PaperSize struct {
	Width  float64
	Height float64
}

var paperSizes = map[string]PaperSize{
	"a3":      {Width: 11.69, Height: 16.54},
	"a4":      {Width: 8.27, Height: 11.69},
	"a5":      {Width: 5.83, Height: 8.27},
	"letter":  {Width: 8.5, Height: 11},
	"legal":   {Width: 8.5, Height: 14},
	"tabloid": {Width: 11, Height: 17},
}

// LookupFormat returns the paper size for a format name (case-insensitive).
func LookupFormat(name string) (PaperSize, error) {
	size, ok := paperSizes[strings.ToLower(name)]
	if !ok {
		return PaperSize{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return size, nil
}
