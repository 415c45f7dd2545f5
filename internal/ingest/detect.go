// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package ingest

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format is the parsing strategy selected for an input file.
type Format string

const (
	FormatAppleStyleArchive  Format = "apple_health_archive"
	FormatStrengthCSV        Format = "strength_csv"
	FormatGlucoseSpreadsheet Format = "glucose_spreadsheet"
	FormatUnrecognized       Format = "unrecognized"
)

// Container is the physical encoding of a tabular input.
type Container string

const (
	ContainerZip  Container = "zip"
	ContainerCSV  Container = "csv"
	ContainerXLSX Container = "xlsx"
	ContainerXLS  Container = "xls"
	ContainerNone Container = ""
)

// VendorProfile selects vendor-specific column mapping for glucose exports.
type VendorProfile string

const (
	ProfileSisensing VendorProfile = "sisensing"
	ProfileFreestyle VendorProfile = "freestyle_libre"
	ProfileGeneric   VendorProfile = "generic"
)

// Detection is the outcome of format detection.
type Detection struct {
	Format    Format
	Container Container
	Profile   VendorProfile
}

// SampleSize is the number of leading bytes callers should pass to Detect.
const SampleSize = 4096

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	// xlsx packages carry this part name in their first local header.
	ooxmlMarker = []byte("[Content_Types].xml")

	glucoseHeaderKeywords = []string{"glucose", "glicose", "mg/dl", "mmol"}
)

// Detect selects a parsing strategy from the file name, falling back to the
// leading bytes of the file when the extension is unknown. Unrecognized is terminal.
func Detect(name string, sample []byte) Detection {
	ext := strings.ToLower(filepath.Ext(name))

	switch ext {
	case ".zip":
		return Detection{Format: FormatAppleStyleArchive, Container: ContainerZip}
	case ".csv":
		if looksLikeGlucoseCSV(sample) {
			return Detection{Format: FormatGlucoseSpreadsheet, Container: ContainerCSV, Profile: DetectProfile(name)}
		}
		return Detection{Format: FormatStrengthCSV, Container: ContainerCSV}
	case ".xlsx", ".xlsm":
		return Detection{Format: FormatGlucoseSpreadsheet, Container: ContainerXLSX, Profile: DetectProfile(name)}
	case ".xls":
		return Detection{Format: FormatGlucoseSpreadsheet, Container: ContainerXLS, Profile: DetectProfile(name)}
	}

	switch {
	case bytes.HasPrefix(sample, zipMagic) && bytes.Contains(sample, ooxmlMarker):
		return Detection{Format: FormatGlucoseSpreadsheet, Container: ContainerXLSX, Profile: DetectProfile(name)}
	case bytes.HasPrefix(sample, zipMagic):
		return Detection{Format: FormatAppleStyleArchive, Container: ContainerZip}
	case bytes.HasPrefix(sample, oleMagic):
		return Detection{Format: FormatGlucoseSpreadsheet, Container: ContainerXLS, Profile: DetectProfile(name)}
	}

	return Detection{Format: FormatUnrecognized}
}

// DetectProfile picks the glucose vendor profile from a file name substring.
func DetectProfile(name string) VendorProfile {
	lower := strings.ToLower(filepath.Base(name))
	switch {
	case strings.Contains(lower, "sisensing"):
		return ProfileSisensing
	case strings.Contains(lower, "freestyle"), strings.Contains(lower, "libre"):
		return ProfileFreestyle
	default:
		return ProfileGeneric
	}
}

// looksLikeGlucoseCSV sniffs the first lines of a CSV for glucose column names.
// Strength exports always carry exercise_title and are never rerouted.
func looksLikeGlucoseCSV(sample []byte) bool {
	head := strings.ToLower(string(sample))
	if strings.Contains(head, "exercise_title") {
		return false
	}
	for _, kw := range glucoseHeaderKeywords {
		if strings.Contains(head, kw) {
			return true
		}
	}
	return false
}
