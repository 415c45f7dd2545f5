// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package ingest

import "testing"

func TestParseDecimal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"72", 72, true},
		{"80.5", 80.5, true},
		{"80,5", 80.5, true},
		{" 72 count/min", 72, true},
		{"-3.25", -3.25, true},
		{"5.4e1", 54, true},
		{".5", 0.5, true},
		{"12.", 12, true},
		{"1,234.5", 1234.5, true},
		{"1.234,5", 1234.5, true},
		{"-1,234.5 kg", -1234.5, true},
		{"1,234,567", 1234567, true},
		{"1.234.567", 1234567, true},
		{"1,234", 1.234, true},
		{"1,23.5", 0, false},
		{"1.2.3", 0, false},
		{"1,234.5.6", 0, false},
		{"", 0, false},
		{"n/a", 0, false},
		{"kg 80", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDecimal(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseDecimal(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseDecimal(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
