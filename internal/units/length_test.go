package units

import (
	"errors"
	"math"
	"testing"
)

func TestParseLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "25.4mm", want: 1},
		{input: "2.54cm", want: 1},
		{input: "0.5in", want: 0.5},
		{input: "96px", want: 1},
		{input: "72pt", want: 1},
		{input: " 20MM ", want: 20 / 25.4},
		{input: "10", want: 10 / 25.4},
		{input: "0", want: 0},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "mm", wantErr: true},
		{input: "-1mm", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLength(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLength) {
					t.Errorf("ParseLength(%q) error = %v, want %v", tt.input, err, ErrInvalidLength)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLength(%q) error = %v", tt.input, err)
			}
			if math.Abs(got.Inches()-tt.want) > 1e-9 {
				t.Errorf("ParseLength(%q) = %v, want %v", tt.input, got.Inches(), tt.want)
			}
		})
	}
}

func TestLookupFormat(t *testing.T) {
	t.Parallel()

	a4, err := LookupFormat("A4")
	if err != nil {
		t.Fatalf("LookupFormat(A4) error = %v", err)
	}
	if a4.Width != 8.27 || a4.Height != 11.69 {
		t.Errorf("A4 = %+v", a4)
	}

	if _, err := LookupFormat("b7"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("error = %v, want %v", err, ErrUnknownFormat)
	}
}
