// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package mapper

import (
	"sort"
	"time"

	"github.com/tomtom215/vitalport/internal/models"
)

type night struct {
	start   time.Time
	end     time.Time
	entries []models.RawSleepEntry
}

// SleepSessions groups sleep intervals into nights. Intervals start a new
// night when they begin at least SleepGapThreshold after the latest end seen
// so far. The session date is the local calendar day of its first interval.
func (m *Mapper) SleepSessions(entries []models.RawSleepEntry) []models.SleepSession {
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]models.RawSleepEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	var nights []*night
	var cur *night
	for _, e := range sorted {
		if cur == nil || e.StartTime.Sub(cur.end) >= m.cfg.SleepGapThreshold {
			cur = &night{start: e.StartTime, end: e.EndTime}
			nights = append(nights, cur)
		}
		if e.EndTime.After(cur.end) {
			cur.end = e.EndTime
		}
		cur.entries = append(cur.entries, e)
	}

	out := make([]models.SleepSession, 0, len(nights))
	for _, n := range nights {
		if s, ok := buildSession(n); ok {
			out = append(out, s)
		}
	}
	return out
}

func buildSession(n *night) (models.SleepSession, bool) {
	byStage := map[models.SleepStage]time.Duration{}
	asleep := false
	for _, e := range n.entries {
		d := e.Duration()
		byStage[e.Stage] += d
		if e.Stage != models.SleepStageInBed && d > 0 {
			asleep = true
		}
	}
	// inBed overlaps the finer stages when a tracker reports both.
	if asleep {
		delete(byStage, models.SleepStageInBed)
	}

	stageSum := 0
	minutes := map[models.SleepStage]int{}
	for stage, d := range byStage {
		mins := roundInt(d.Minutes())
		if mins > 0 {
			minutes[stage] = mins
			stageSum += mins
		}
	}

	total := roundInt(n.end.Sub(n.start).Minutes())
	if stageSum > total {
		total = stageSum
	}
	if total <= 0 {
		return models.SleepSession{}, false
	}

	s := models.SleepSession{
		Date:         models.LocalDate(n.start),
		StartTime:    n.start.Format(time.RFC3339),
		EndTime:      n.end.Format(time.RFC3339),
		TotalMinutes: total,
	}
	for _, stage := range models.SleepStageOrder {
		mins, ok := minutes[stage]
		if !ok {
			continue
		}
		s.Stages = append(s.Stages, models.StageDuration{
			Stage:       stage,
			DurationMin: mins,
			Pct:         roundInt(float64(mins) / float64(total) * 100),
		})
	}
	return s, true
}
