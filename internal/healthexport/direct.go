// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package healthexport

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/vitalport/internal/models"
)

var (
	healthDataMarker = []byte("<HealthData")
	recordMarker     = []byte("<Record")
)

// hasRecordMarker reports whether data looks like a record-log document.
func hasRecordMarker(data []byte) bool {
	return bytes.Contains(data, healthDataMarker) || bytes.Contains(data, recordMarker)
}

// ParseDocument walks a fully materialized record-log document once with the
// XML decoder. Elements nested under Correlation or other wrappers are still
// visited; child elements of Record and Workout are ignored.
func ParseDocument(data []byte) (*models.RecordLog, error) {
	c := newCollector()
	d := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode record log: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != elementRecord && se.Name.Local != elementWorkout {
			continue
		}
		c.add(se.Name.Local, startElementAttrs(se))
	}

	return c.log, nil
}

func startElementAttrs(se xml.StartElement) attrFunc {
	return func(name string) string {
		for _, a := range se.Attr {
			if a.Name.Local == name {
				return a.Value
			}
		}
		return ""
	}
}
