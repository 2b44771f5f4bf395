package weather

import (
	"sort"
	"time"
)

const (
	// MaxHourlyPoints is ~3 days of 3-hour upstream steps.
	MaxHourlyPoints = 24
	// MaxDailySummaries caps the number of calendar days returned.
	MaxDailySummaries = 7
)

// ProjectHourly maps the first limit samples 1:1 onto hourly points.
// A negative limit keeps every sample.
func ProjectHourly(samples []Sample, limit int) []HourlyPoint {
	if limit < 0 || limit > len(samples) {
		limit = len(samples)
	}

	hourly := make([]HourlyPoint, 0, limit)
	for _, s := range samples[:limit] {
		unavailable := Unavailable{FieldDewPoint, FieldUVIndex}

		var pop float64
		if s.Pop != nil {
			pop = *s.Pop
		} else {
			unavailable = append(unavailable, FieldPrecipitationProbability)
		}

		var visibility int
		if s.Visibility != nil {
			visibility = *s.Visibility
		} else {
			unavailable = append(unavailable, FieldVisibility)
		}

		hourly = append(hourly, HourlyPoint{
			Timestamp:   s.Timestamp,
			Temperature: s.Temperature,
			FeelsLike:   s.FeelsLike,
			Pressure:    s.Pressure,
			Humidity:    s.Humidity,
			Clouds:      s.Clouds,
			Visibility:  visibility,
			WindSpeed:   s.WindSpeed,
			WindDeg:     s.WindDeg,
			WindGust:    copyFloat(s.WindGust),
			Conditions:  s.Conditions.clone(),
			Pop:         pop,
			Unavailable: unavailable,
		})
	}
	return hourly
}

type dayBucket struct {
	start   time.Time
	samples []Sample
}

// BucketDaily groups samples by calendar day in the given calendar (UTC when
// nil), keeps arrival order inside each day, and summarizes the earliest
// maxDays days in ascending order. Days without samples are absent.
// A negative maxDays keeps every day.
func BucketDaily(samples []Sample, calendar *time.Location, maxDays int) []DailySummary {
	if calendar == nil {
		calendar = time.UTC
	}

	buckets := make(map[string]*dayBucket)
	keys := make([]string, 0)
	for _, s := range samples {
		ts := time.Unix(s.Timestamp, 0).In(calendar)
		k := ts.Format("2006-01-02")

		b, ok := buckets[k]
		if !ok {
			b = &dayBucket{start: time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, calendar)}
			buckets[k] = b
			keys = append(keys, k)
		}
		b.samples = append(b.samples, s)
	}

	sort.Strings(keys)
	if maxDays >= 0 && len(keys) > maxDays {
		keys = keys[:maxDays]
	}

	daily := make([]DailySummary, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		daily = append(daily, summarizeDay(b.start, b.samples))
	}
	return daily
}

// summarizeDay builds one DailySummary from a non-empty, arrival-ordered group.
// night/morn reuse the minimum and eve the maximum: the upstream tier has no
// day-part breakdown.
func summarizeDay(start time.Time, samples []Sample) DailySummary {
	first := samples[0]
	last := samples[len(samples)-1]

	var sum float64
	minTemp, maxTemp := first.Temperature, first.Temperature
	for _, s := range samples {
		sum += s.Temperature
		minTemp = min(minTemp, s.Temperature)
		maxTemp = max(maxTemp, s.Temperature)
	}

	unavailable := Unavailable{
		FieldSunrise, FieldSunset, FieldMoonrise, FieldMoonset, FieldMoonPhase,
		FieldDewPoint, FieldUVIndex, FieldRain, FieldSnow,
	}
	var pop float64
	if first.Pop != nil {
		pop = *first.Pop
	} else {
		unavailable = append(unavailable, FieldPrecipitationProbability)
	}

	return DailySummary{
		Timestamp: start.Unix(),
		Temp: DayTemperatures{
			Day:   sum / float64(len(samples)),
			Min:   minTemp,
			Max:   maxTemp,
			Night: minTemp,
			Eve:   maxTemp,
			Morn:  minTemp,
		},
		FeelsLike: DayFeelsLike{
			Day:   first.FeelsLike,
			Night: last.FeelsLike,
			Eve:   last.FeelsLike,
			Morn:  first.FeelsLike,
		},
		Pressure:    first.Pressure,
		Humidity:    first.Humidity,
		WindSpeed:   first.WindSpeed,
		WindDeg:     first.WindDeg,
		WindGust:    copyFloat(first.WindGust),
		Conditions:  first.Conditions.clone(),
		Clouds:      first.Clouds,
		Pop:         pop,
		Unavailable: unavailable,
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
