package weather

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func ptr[T any](v T) *T { return &v }

func sampleAt(ts time.Time, temp float64) Sample {
	return Sample{
		Timestamp:   ts.Unix(),
		Temperature: temp,
		FeelsLike:   temp - 1,
		Pressure:    1013,
		Humidity:    60,
		Clouds:      20,
		Visibility:  ptr(10000),
		WindSpeed:   3.5,
		WindDeg:     180,
		Conditions:  Conditions{{ID: 800, Main: "Clear", Description: "clear sky", Icon: "01d"}},
		Pop:         ptr(0.2),
	}
}

// everyThreeHours builds n samples starting at start, stepping 3h, with
// temperatures cycling through a small fixed set.
func everyThreeHours(start time.Time, n int) []Sample {
	temps := []float64{10, 12.5, 14, 11}
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, sampleAt(start.Add(time.Duration(i)*3*time.Hour), temps[i%len(temps)]))
	}
	return samples
}

func TestBucketDaily_SingleDayAggregates(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	samples := []Sample{
		sampleAt(day.Add(3*time.Hour), 10),
		sampleAt(day.Add(6*time.Hour), 12.5),
		sampleAt(day.Add(9*time.Hour), 14),
		sampleAt(day.Add(12*time.Hour), 11),
	}
	samples[0].FeelsLike = 7
	samples[3].FeelsLike = 9
	samples[0].Humidity = 55

	daily := BucketDaily(samples, time.UTC, MaxDailySummaries)
	if len(daily) != 1 {
		t.Fatalf("BucketDaily() returned %d days, want 1", len(daily))
	}
	got := daily[0]

	wantTemp := DayTemperatures{Day: 11.875, Min: 10, Max: 14, Night: 10, Eve: 14, Morn: 10}
	if diff := cmp.Diff(wantTemp, got.Temp); diff != "" {
		t.Errorf("Temp mismatch (-want +got):\n%s", diff)
	}

	wantFeels := DayFeelsLike{Day: 7, Night: 9, Eve: 9, Morn: 7}
	if diff := cmp.Diff(wantFeels, got.FeelsLike); diff != "" {
		t.Errorf("FeelsLike mismatch (-want +got):\n%s", diff)
	}

	if got.Timestamp != day.Unix() {
		t.Errorf("Timestamp = %d, want start of day %d", got.Timestamp, day.Unix())
	}
	if got.Humidity != 55 {
		t.Errorf("Humidity = %d, want first sample's 55", got.Humidity)
	}
	if got.Pop != 0.2 {
		t.Errorf("Pop = %v, want 0.2", got.Pop)
	}
	if got.Sunrise != 0 || !got.Unavailable.Has(FieldSunrise) {
		t.Errorf("Sunrise = %d (unavailable=%v), want 0 marked unavailable", got.Sunrise, got.Unavailable.Has(FieldSunrise))
	}
	if got.Unavailable.Has(FieldPrecipitationProbability) {
		t.Error("pop marked unavailable although the first sample carries it")
	}
	if got.Rain != nil || got.Snow != nil {
		t.Errorf("Rain/Snow = %v/%v, want nil", got.Rain, got.Snow)
	}
}

func TestBucketDaily_CapsAtSevenAscendingDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := everyThreeHours(start, 9*8)

	daily := BucketDaily(samples, nil, MaxDailySummaries)
	if len(daily) != MaxDailySummaries {
		t.Fatalf("BucketDaily() returned %d days, want %d", len(daily), MaxDailySummaries)
	}

	for i, d := range daily {
		want := start.AddDate(0, 0, i).Unix()
		if d.Timestamp != want {
			t.Errorf("day %d Timestamp = %d, want %d", i, d.Timestamp, want)
		}
		if i > 0 && d.Timestamp <= daily[i-1].Timestamp {
			t.Errorf("day %d not strictly after day %d", i, i-1)
		}
	}

	if all := BucketDaily(samples, nil, -1); len(all) != 9 {
		t.Errorf("BucketDaily(maxDays=-1) returned %d days, want 9", len(all))
	}
}

func TestBucketDaily_ScrambledInput(t *testing.T) {
	day1 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	late := sampleAt(day1.Add(21*time.Hour), 14)
	late.FeelsLike = 13
	early := sampleAt(day1.Add(3*time.Hour), 10)
	early.FeelsLike = 8

	samples := []Sample{
		sampleAt(day2.Add(6*time.Hour), 5),
		late,
		early,
	}

	daily := BucketDaily(samples, time.UTC, MaxDailySummaries)
	if len(daily) != 2 {
		t.Fatalf("BucketDaily() returned %d days, want 2", len(daily))
	}
	if daily[0].Timestamp != day1.Unix() || daily[1].Timestamp != day2.Unix() {
		t.Errorf("days = [%d %d], want [%d %d]", daily[0].Timestamp, daily[1].Timestamp, day1.Unix(), day2.Unix())
	}

	// Within a day, "first" and "last" follow arrival order, not timestamps.
	if daily[0].FeelsLike.Day != 13 || daily[0].FeelsLike.Night != 8 {
		t.Errorf("FeelsLike = %+v, want Day=13 Night=8", daily[0].FeelsLike)
	}
	if daily[0].Temp.Day != 12 {
		t.Errorf("Temp.Day = %v, want 12", daily[0].Temp.Day)
	}
}

func TestBucketDaily_Calendar(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	// 19:00 and 05:00 JST on consecutive local days; one UTC day.
	samples := []Sample{
		sampleAt(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 3),
		sampleAt(time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), 1),
	}

	if got := BucketDaily(samples, time.UTC, MaxDailySummaries); len(got) != 1 {
		t.Errorf("UTC calendar: %d days, want 1", len(got))
	}

	got := BucketDaily(samples, tokyo, MaxDailySummaries)
	if len(got) != 2 {
		t.Fatalf("Tokyo calendar: %d days, want 2", len(got))
	}
	wantStart := time.Date(2024, 1, 1, 0, 0, 0, 0, tokyo).Unix()
	if got[0].Timestamp != wantStart {
		t.Errorf("first Tokyo day Timestamp = %d, want %d", got[0].Timestamp, wantStart)
	}
}

func TestBucketDaily_Empty(t *testing.T) {
	got := BucketDaily(nil, nil, MaxDailySummaries)
	if got == nil || len(got) != 0 {
		t.Errorf("BucketDaily(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestProjectHourly(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := everyThreeHours(start, 40)
	samples[1].Pop = nil
	samples[2].Visibility = nil
	samples[3].WindGust = ptr(9.5)

	hourly := ProjectHourly(samples, MaxHourlyPoints)
	if len(hourly) != MaxHourlyPoints {
		t.Fatalf("ProjectHourly() returned %d points, want %d", len(hourly), MaxHourlyPoints)
	}

	for i, h := range hourly {
		if h.Timestamp != samples[i].Timestamp {
			t.Errorf("point %d Timestamp = %d, want %d", i, h.Timestamp, samples[i].Timestamp)
		}
		if h.DewPoint != 0 || !h.Unavailable.Has(FieldDewPoint) {
			t.Errorf("point %d DewPoint not a marked zero", i)
		}
	}

	if hourly[0].Pop != 0.2 {
		t.Errorf("Pop = %v, want 0.2", hourly[0].Pop)
	}
	if hourly[1].Pop != 0 || !hourly[1].Unavailable.Has(FieldPrecipitationProbability) {
		t.Errorf("missing pop: got %v (unavailable=%v), want marked 0", hourly[1].Pop, hourly[1].Unavailable)
	}
	if hourly[2].Visibility != 0 || !hourly[2].Unavailable.Has(FieldVisibility) {
		t.Errorf("missing visibility: got %d (unavailable=%v), want marked 0", hourly[2].Visibility, hourly[2].Unavailable)
	}
	if hourly[3].WindGust == nil || *hourly[3].WindGust != 9.5 {
		t.Errorf("WindGust = %v, want 9.5", hourly[3].WindGust)
	}

	// The projection must not alias the input conditions.
	hourly[0].Conditions[0].Main = "Rain"
	if samples[0].Conditions[0].Main != "Clear" {
		t.Error("ProjectHourly shares Conditions with its input")
	}

	if short := ProjectHourly(samples[:5], MaxHourlyPoints); len(short) != 5 {
		t.Errorf("ProjectHourly(5 samples) returned %d points, want 5", len(short))
	}
}
