// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d[\d.,]*|[.,]\d+)(?:[eE][+-]?\d+)?`)

// ParseDecimal parses the leading number of s independent of locale and
// ignores trailing unit text. A lone comma or dot is the decimal separator.
// When both appear, the last one is the decimal separator and the other must
// group thousands. A separator repeated on its own groups thousands.
// "72", "80,5", "1,234.5", "1.234,5", "72 count/min" and " 5.4e1" all parse;
// "", "n/a" and "1,23.5" do not.
func ParseDecimal(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}

	mantissa, exponent := m, ""
	if i := strings.IndexAny(m, "eE"); i >= 0 {
		mantissa, exponent = m[:i], m[i:]
	}
	sign := ""
	if mantissa[0] == '+' || mantissa[0] == '-' {
		sign, mantissa = mantissa[:1], mantissa[1:]
	}

	mantissa, ok := normalizeSeparators(mantissa)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(sign+mantissa+exponent, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// normalizeSeparators rewrites an unsigned mantissa to use '.' as the only
// separator.
func normalizeSeparators(s string) (string, bool) {
	commas, dots := strings.Count(s, ","), strings.Count(s, ".")
	switch {
	case commas == 0 && dots == 0:
		return s, true
	case commas > 0 && dots > 0:
		decimal, group := ".", ","
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			decimal, group = ",", "."
		}
		if strings.Count(s, decimal) > 1 {
			return "", false
		}
		at := strings.LastIndex(s, decimal)
		whole, ok := ungroup(s[:at], group)
		if !ok {
			return "", false
		}
		return whole + "." + s[at+1:], true
	case commas > 1:
		return ungroup(s, ",")
	case dots > 1:
		return ungroup(s, ".")
	default:
		return strings.Replace(s, ",", ".", 1), true
	}
}

// ungroup removes thousands separators, requiring 1-3 leading digits and
// groups of exactly 3.
func ungroup(s, sep string) (string, bool) {
	parts := strings.Split(s, sep)
	if len(parts[0]) < 1 || len(parts[0]) > 3 {
		return "", false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return "", false
		}
	}
	return strings.Join(parts, ""), true
}
