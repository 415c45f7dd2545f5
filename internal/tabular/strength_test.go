// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package tabular

import (
	"strings"
	"testing"

	"github.com/tomtom215/vitalport/internal/ingest"
)

const hevyHeader = `"title","start_time","end_time","description","exercise_title","superset_id","exercise_notes","set_index","set_type","weight_kg","reps","distance_km","duration_seconds","rpe"`

func TestParseStrengthCSV(t *testing.T) {
	t.Parallel()

	input := "\xef\xbb\xbf" + hevyHeader + "\n" +
		`"Treino A","15 Jan 2026, 18:00","15 Jan 2026, 19:05","","Supino Reto","","",0,"normal",80,10,,,` + "\n" +
		`"Treino A","15 Jan 2026, 18:00","15 Jan 2026, 19:05","","Supino Reto","","",1,"normal","80,0",8,,,` + "\n" +
		`"Treino A","15 Jan 2026, 18:00","15 Jan 2026, 19:05","","Supino Reto","","",2,"normal",80,6,,,` + "\n" +
		`"Treino A","15 Jan 2026, 18:00","15 Jan 2026, 19:05","","Esteira","","",0,"normal",,,2.5,900,` + "\n" +
		"\n" +
		`"Treino A","someday","","","Agachamento","","",0,"normal",100,5,,,` + "\n" +
		`"Treino A","15 Jan 2026, 18:00","15 Jan 2026, 19:05","","Agachamento","","",1,"normal",heavy,5,,,` + "\n"

	got, err := ParseStrengthCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseStrengthCSV() error = %v", err)
	}

	if got.Rows != 6 {
		t.Errorf("Rows = %d, want 6", got.Rows)
	}
	if len(got.Sets) != 4 {
		t.Fatalf("len(Sets) = %d, want 4", len(got.Sets))
	}
	if len(got.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2 lines", got.Errors)
	}
	if !strings.Contains(got.Errors[0], "start_time") || !strings.Contains(got.Errors[1], "weight_kg") {
		t.Errorf("Errors = %v", got.Errors)
	}

	first := got.Sets[0]
	if first.Title != "Treino A" || first.Exercise != "Supino Reto" {
		t.Errorf("first set = %+v", first)
	}
	if first.StartTime.Format("2006-01-02 15:04") != "2026-01-15 18:00" {
		t.Errorf("StartTime = %v", first.StartTime)
	}
	if first.EndTime.Sub(first.StartTime).Minutes() != 65 {
		t.Errorf("duration = %v, want 65m", first.EndTime.Sub(first.StartTime))
	}
	if first.WeightKg == nil || *first.WeightKg != 80 || first.Reps == nil || *first.Reps != 10 {
		t.Errorf("first set numbers = %v/%v", first.WeightKg, first.Reps)
	}
	if w := got.Sets[1].WeightKg; w == nil || *w != 80 {
		t.Errorf("comma decimal weight = %v, want 80", w)
	}

	cardio := got.Sets[3]
	if cardio.Reps != nil || cardio.WeightKg != nil {
		t.Errorf("cardio row should have no reps/weight: %+v", cardio)
	}
	if cardio.DurationSec == nil || *cardio.DurationSec != 900 {
		t.Errorf("cardio DurationSec = %v", cardio.DurationSec)
	}
}

func TestParseStrengthCSVRejectsForeignHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantMissing string
	}{
		{"glucose export", "Device,Device Timestamp,Historic Glucose mg/dL\nLibre,15-01-2026 08:30,100\n", "title"},
		{"no reps", "title,start_time,end_time,exercise_title,weight_kg\nA,x,y,z,1\n", "reps"},
		{"only exercise_title", "exercise_title,start_time,end_time,weight_kg,reps\n", "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStrengthCSV(strings.NewReader(tt.input))
			if !ingest.IsFormatError(err) {
				t.Fatalf("error = %v, want FormatError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMissing) {
				t.Errorf("error = %q, want mention of %q", err, tt.wantMissing)
			}
		})
	}
}

func TestParseStrengthCSVHeaderCaseAndSemicolons(t *testing.T) {
	t.Parallel()

	input := "Title;Start_Time;End_Time;Exercise_Title;Weight_KG;Reps\n" +
		"Legs;2026-01-16 07:00;2026-01-16 08:00;Leg Press;120,5;12\n"

	got, err := ParseStrengthCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseStrengthCSV() error = %v", err)
	}
	if len(got.Sets) != 1 || *got.Sets[0].WeightKg != 120.5 {
		t.Fatalf("Sets = %+v", got.Sets)
	}
}

func TestParseStrengthCSVEmpty(t *testing.T) {
	t.Parallel()

	_, err := ParseStrengthCSV(strings.NewReader(""))
	if !ingest.IsFormatError(err) {
		t.Fatalf("error = %v, want FormatError", err)
	}
}
