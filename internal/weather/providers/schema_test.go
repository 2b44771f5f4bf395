package providers

import (
	"errors"
	"strings"
	"testing"

	"github.com/i474232898/weather-forecast-aggregation/internal/weather"
)

const currentBody = `{
  "coord": {"lon": 2.3522, "lat": 48.8566},
  "weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}],
  "base": "stations",
  "main": {"temp": 18.2, "feels_like": 17.9, "temp_min": 16.1, "temp_max": 19.4, "pressure": 1015, "humidity": 72},
  "visibility": 10000,
  "wind": {"speed": 4.1, "deg": 230},
  "clouds": {"all": 75},
  "dt": 1717243200,
  "sys": {"country": "FR", "sunrise": 1717213600, "sunset": 1717271200},
  "timezone": 7200,
  "name": "Paris",
  "cod": 200
}`

func forecastItem(dt string, temp string, extra string) string {
	return `{"dt": ` + dt + `, "main": {"temp": ` + temp + `, "feels_like": ` + temp + `, "temp_min": 10, "temp_max": 20, "pressure": 1012, "humidity": 60},` +
		` "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],` +
		` "clouds": {"all": 90}, "wind": {"speed": 5.5, "deg": 200, "gust": 8.1}` + extra + `}`
}

func TestDecodeCurrent(t *testing.T) {
	s, err := decodeCurrent([]byte(currentBody))
	if err != nil {
		t.Fatalf("decodeCurrent() unexpected error = %v", err)
	}
	got := toCurrent(s)

	if got.Temperature != 18.2 || got.Visibility != 10000 || got.Sunrise != 1717213600 {
		t.Errorf("unexpected current conditions %+v", got)
	}
	if got.WindGust != nil {
		t.Errorf("WindGust = %v, want nil when absent", *got.WindGust)
	}
	if primary, ok := got.Conditions.Primary(); !ok || primary.Main != "Clouds" {
		t.Errorf("Primary() = %+v, %v", primary, ok)
	}
	if !got.Unavailable.Has(weather.FieldDewPoint) || got.Unavailable.Has(weather.FieldSunrise) {
		t.Errorf("Unavailable = %v", got.Unavailable)
	}
}

func TestDecodeCurrent_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing main", body: strings.Replace(currentBody, `"main": {"temp"`, `"mainx": {"temp"`, 1)},
		{name: "missing visibility", body: strings.Replace(currentBody, `"visibility": 10000,`, ``, 1)},
		{name: "empty weather list", body: strings.Replace(currentBody, `[{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}]`, `[]`, 1)},
		{name: "condition missing icon", body: strings.Replace(currentBody, `, "icon": "04d"`, ``, 1)},
		{name: "wrong type", body: strings.Replace(currentBody, `"humidity": 72`, `"humidity": "high"`, 1)},
		{name: "not json", body: `<html></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeCurrent([]byte(tt.body))
			if !errors.Is(err, weather.ErrDecoding) {
				t.Fatalf("decodeCurrent() error = %v, want ErrDecoding", err)
			}
		})
	}
}

func TestDecodeForecast(t *testing.T) {
	body := `{"cod": "200", "cnt": 2, "list": [` +
		forecastItem("1717243200", "15", `, "visibility": 9000, "pop": 0.35, "sys": {"pod": "d"}`) + `,` +
		forecastItem("1717254000", "13", ``) +
		`], "city": {"name": "Paris"}}`

	s, err := decodeForecast([]byte(body))
	if err != nil {
		t.Fatalf("decodeForecast() unexpected error = %v", err)
	}
	samples := toSamples(s)
	if len(samples) != 2 {
		t.Fatalf("toSamples() returned %d samples, want 2", len(samples))
	}
	if samples[0].Pop == nil || *samples[0].Pop != 0.35 {
		t.Errorf("Pop = %v, want 0.35", samples[0].Pop)
	}
	if samples[1].Pop != nil || samples[1].Visibility != nil {
		t.Errorf("optional fields should be nil when absent: pop=%v visibility=%v", samples[1].Pop, samples[1].Visibility)
	}
	if samples[0].WindGust == nil || *samples[0].WindGust != 8.1 {
		t.Errorf("WindGust = %v, want 8.1", samples[0].WindGust)
	}
}

func TestDecodeForecast_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing list", body: `{"cod": "200"}`},
		{name: "item missing dt", body: `{"list": [` + strings.Replace(forecastItem("1", "1", ""), `"dt": 1, `, ``, 1) + `]}`},
		{name: "pop out of range", body: `{"list": [` + forecastItem("1", "1", `, "pop": 1.5`) + `]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeForecast([]byte(tt.body)); !errors.Is(err, weather.ErrDecoding) {
				t.Fatalf("decodeForecast() error = %v, want ErrDecoding", err)
			}
		})
	}
}

func TestDecodeCities(t *testing.T) {
	cities, err := decodeCities([]byte(`[{"name": "Springfield", "lat": 39.8, "lon": -89.6, "country": "US", "state": "Illinois", "local_names": {"en": "Springfield"}}]`))
	if err != nil {
		t.Fatalf("decodeCities() unexpected error = %v", err)
	}
	if len(cities) != 1 {
		t.Fatalf("decodeCities() returned %d cities, want 1", len(cities))
	}
	if got := toCity(cities[0]); got.State != "Illinois" || got.Country != "US" {
		t.Errorf("toCity() = %+v", got)
	}

	for _, body := range []string{`null`, `{}`, `[{"name": "Nowhere", "lat": 1}]`} {
		if _, err := decodeCities([]byte(body)); !errors.Is(err, weather.ErrDecoding) {
			t.Errorf("decodeCities(%s) error = %v, want ErrDecoding", body, err)
		}
	}
}
