// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package mapper turns typed vendor rows into the five normalized domain entities.

The mapper is the only place calendar days are assigned: a timestamp's date is
its date component in the offset the timestamp carries, never the importing
machine's zone (see models.LocalDate).

Mappings:

  - record log: body mass to WeightLog (kg), body fat to BodyFatLog (percent),
    blood glucose to GlucoseReading (mg/dL), workouts to one-exercise Workouts,
    sleep intervals to SleepSessions grouped into nights
  - strength CSV: sets grouped by (title, day) into Workouts, then by exercise
    name into Exercise entries with an estimated calorie figure
  - glucose spreadsheet: samples to cgm GlucoseReadings

Strength Calorie Estimate:

	calories = sets × mean(reps) × mean(weight_kg) × CalorieFactor

CalorieFactor defaults to 0.05. It is an empirical placeholder carried over
from the product, not a validated physiological model; treat the result as a
rough estimate and keep it configurable.

Units:

Glucose in mmol/L is multiplied by 18. Without an explicit unit a value below
30 is read as mmol/L, since no plausible mg/dL reading is that low. Readings
outside [20, 600] mg/dL after conversion are sensor noise and become row errors.
*/
package mapper
