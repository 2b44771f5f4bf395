package weather

import (
	"fmt"
	"slices"
	"time"
)

// Condition is a single upstream weather condition tag.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Conditions is ordered by upstream relevance; the first entry is the primary one.
type Conditions []Condition

// Primary returns the most relevant condition, or false when the list is empty.
func (c Conditions) Primary() (Condition, bool) {
	if len(c) == 0 {
		return Condition{}, false
	}
	return c[0], true
}

func (c Conditions) clone() Conditions {
	return slices.Clone(c)
}

// Field names a model field that may carry a zero sentinel instead of a value.
type Field string

const (
	FieldDewPoint                 Field = "dew_point"
	FieldUVIndex                  Field = "uvi"
	FieldSunrise                  Field = "sunrise"
	FieldSunset                   Field = "sunset"
	FieldMoonrise                 Field = "moonrise"
	FieldMoonset                  Field = "moonset"
	FieldMoonPhase                Field = "moon_phase"
	FieldRain                     Field = "rain"
	FieldSnow                     Field = "snow"
	FieldVisibility               Field = "visibility"
	FieldPrecipitationProbability Field = "pop"
)

// Unavailable lists the fields of a value whose zero means "not supplied by
// the upstream tier" rather than a measured zero.
type Unavailable []Field

// Has reports whether f is marked unavailable.
func (u Unavailable) Has(f Field) bool {
	return slices.Contains(u, f)
}

// CurrentConditions is the observation at fetch time. Timestamps are unix seconds.
type CurrentConditions struct {
	Timestamp   int64       `json:"dt"`
	Sunrise     int64       `json:"sunrise"`
	Sunset      int64       `json:"sunset"`
	Temperature float64     `json:"temp"`
	FeelsLike   float64     `json:"feels_like"`
	Pressure    int         `json:"pressure"`
	Humidity    int         `json:"humidity"`
	DewPoint    float64     `json:"dew_point"`
	UVIndex     float64     `json:"uvi"`
	Clouds      int         `json:"clouds"`
	Visibility  int         `json:"visibility"`
	WindSpeed   float64     `json:"wind_speed"`
	WindDeg     int         `json:"wind_deg"`
	WindGust    *float64    `json:"wind_gust,omitempty"`
	Conditions  Conditions  `json:"weather"`
	Unavailable Unavailable `json:"unavailable,omitempty"`
}

// HourlyPoint is one forecast step.
type HourlyPoint struct {
	Timestamp   int64       `json:"dt"`
	Temperature float64     `json:"temp"`
	FeelsLike   float64     `json:"feels_like"`
	Pressure    int         `json:"pressure"`
	Humidity    int         `json:"humidity"`
	DewPoint    float64     `json:"dew_point"`
	UVIndex     float64     `json:"uvi"`
	Clouds      int         `json:"clouds"`
	Visibility  int         `json:"visibility"`
	WindSpeed   float64     `json:"wind_speed"`
	WindDeg     int         `json:"wind_deg"`
	WindGust    *float64    `json:"wind_gust,omitempty"`
	Conditions  Conditions  `json:"weather"`
	Pop         float64     `json:"pop"` // 0.0-1.0
	Unavailable Unavailable `json:"unavailable,omitempty"`
}

// DayTemperatures is the temperature envelope of one calendar day.
type DayTemperatures struct {
	Day   float64 `json:"day"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Night float64 `json:"night"`
	Eve   float64 `json:"eve"`
	Morn  float64 `json:"morn"`
}

// DayFeelsLike is the feels-like envelope of one calendar day.
type DayFeelsLike struct {
	Day   float64 `json:"day"`
	Night float64 `json:"night"`
	Eve   float64 `json:"eve"`
	Morn  float64 `json:"morn"`
}

// DailySummary aggregates the samples of one calendar day. Timestamp is the
// start of that day in the calendar used for bucketing.
type DailySummary struct {
	Timestamp   int64           `json:"dt"`
	Sunrise     int64           `json:"sunrise"`
	Sunset      int64           `json:"sunset"`
	Moonrise    int64           `json:"moonrise"`
	Moonset     int64           `json:"moonset"`
	MoonPhase   float64         `json:"moon_phase"`
	Temp        DayTemperatures `json:"temp"`
	FeelsLike   DayFeelsLike    `json:"feels_like"`
	Pressure    int             `json:"pressure"`
	Humidity    int             `json:"humidity"`
	DewPoint    float64         `json:"dew_point"`
	WindSpeed   float64         `json:"wind_speed"`
	WindDeg     int             `json:"wind_deg"`
	WindGust    *float64        `json:"wind_gust,omitempty"`
	Conditions  Conditions      `json:"weather"`
	Clouds      int             `json:"clouds"`
	Pop         float64         `json:"pop"`
	UVIndex     float64         `json:"uvi"`
	Rain        *float64        `json:"rain,omitempty"`
	Snow        *float64        `json:"snow,omitempty"`
	Unavailable Unavailable     `json:"unavailable,omitempty"`
}

// UnifiedForecast is the resolution-layered result of one aggregation call.
// It is never mutated after construction.
type UnifiedForecast struct {
	Current       CurrentConditions `json:"current"`
	Hourly        []HourlyPoint     `json:"hourly"`
	Daily         []DailySummary    `json:"daily"`
	Latitude      float64           `json:"lat"`
	Longitude     float64           `json:"lon"`
	LocationLabel string            `json:"location_label"`
	// UTCOffsetSeconds is always 0 at the current upstream tier and does not
	// reflect the location's real offset.
	UTCOffsetSeconds int `json:"timezone_offset"`
}

// City is a geocoding candidate.
type City struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Country   string  `json:"country,omitempty"`
	State     string  `json:"state,omitempty"`
}

// Location identifies a tracked coordinate pair.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Label     string  `json:"label,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
// Coordinates are rounded to 4 decimals (~11m).
func (l Location) Key() string {
	return fmt.Sprintf("%.4f:%.4f", l.Latitude, l.Longitude)
}

// Snapshot is a forecast together with the time it was fetched.
type Snapshot struct {
	Location  Location        `json:"location"`
	FetchedAt time.Time       `json:"fetched_at"` // always UTC
	Forecast  UnifiedForecast `json:"forecast"`
}
