// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package mapper

import (
	"math"
	"strings"
)

const (
	// MmolToMgDl converts glucose mmol/L to mg/dL.
	MmolToMgDl = 18.0

	// MmolHeuristicCeiling: unitless values below this are read as mmol/L.
	MmolHeuristicCeiling = 30.0

	MinGlucoseMgDl = 20
	MaxGlucoseMgDl = 600

	poundsToKg = 0.45359237
	stoneToKg  = 6.35029318
)

// NormalizeGlucose converts a glucose value to whole mg/dL.
func NormalizeGlucose(value float64, unit string) int {
	u := strings.ToLower(unit)
	switch {
	case strings.Contains(u, "mmol"):
		return int(math.Round(value * MmolToMgDl))
	case strings.Contains(u, "mg"):
		return int(math.Round(value))
	case value < MmolHeuristicCeiling:
		return int(math.Round(value * MmolToMgDl))
	default:
		return int(math.Round(value))
	}
}

// GlucoseInRange reports whether mg/dL is a plausible sensor reading.
func GlucoseInRange(mgdl int) bool {
	return mgdl >= MinGlucoseMgDl && mgdl <= MaxGlucoseMgDl
}

// NormalizeWeightKg converts a body mass to kilograms. ok is false for an
// unknown unit.
func NormalizeWeightKg(value float64, unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "kg", "":
		return value, true
	case "lb", "lbs":
		return round2(value * poundsToKg), true
	case "g":
		return round2(value / 1000), true
	case "st":
		return round2(value * stoneToKg), true
	default:
		return 0, false
	}
}

// NormalizeBodyFatPct returns body fat in percent. The record log stores it
// as a fraction with unit "%", so values at or below 1 are scaled.
func NormalizeBodyFatPct(value float64) float64 {
	if value <= 1 {
		return round2(value * 100)
	}
	return round2(value)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
