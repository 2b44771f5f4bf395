package providers

import (
	"bytes"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/i474232898/weather-forecast-aggregation/internal/weather"
)

// Wire schemas use pointers so that a missing key can be told apart from a
// zero value; `required` rejects missing keys, unknown keys are ignored.

var (
	validate        = validator.New()
	errNullDocument = errors.New("document is null")
)

type conditionSchema struct {
	ID          *int    `json:"id" validate:"required"`
	Main        *string `json:"main" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Icon        *string `json:"icon" validate:"required"`
}

type mainSchema struct {
	Temp      *float64 `json:"temp" validate:"required"`
	FeelsLike *float64 `json:"feels_like" validate:"required"`
	TempMin   *float64 `json:"temp_min" validate:"required"`
	TempMax   *float64 `json:"temp_max" validate:"required"`
	Pressure  *int     `json:"pressure" validate:"required"`
	Humidity  *int     `json:"humidity" validate:"required"`
}

type windSchema struct {
	Speed *float64 `json:"speed" validate:"required"`
	Deg   *int     `json:"deg" validate:"required"`
	Gust  *float64 `json:"gust"`
}

type cloudsSchema struct {
	All *int `json:"all" validate:"required"`
}

type sysSchema struct {
	Sunrise *int64 `json:"sunrise"`
	Sunset  *int64 `json:"sunset"`
}

// currentSchema is the body of the current-conditions endpoint.
type currentSchema struct {
	Weather    []conditionSchema `json:"weather" validate:"required,min=1,dive"`
	Main       *mainSchema       `json:"main" validate:"required"`
	Wind       *windSchema       `json:"wind" validate:"required"`
	Clouds     *cloudsSchema     `json:"clouds" validate:"required"`
	Dt         *int64            `json:"dt" validate:"required"`
	Sys        *sysSchema        `json:"sys" validate:"required"`
	Name       *string           `json:"name" validate:"required"`
	Visibility *int              `json:"visibility" validate:"required"`
}

type forecastItemSchema struct {
	Dt         *int64            `json:"dt" validate:"required"`
	Main       *mainSchema       `json:"main" validate:"required"`
	Weather    []conditionSchema `json:"weather" validate:"required,min=1,dive"`
	Clouds     *cloudsSchema     `json:"clouds" validate:"required"`
	Wind       *windSchema       `json:"wind" validate:"required"`
	Visibility *int              `json:"visibility"`
	Pop        *float64          `json:"pop" validate:"omitempty,gte=0,lte=1"`
}

// forecastSchema is the body of the forecast-list endpoint.
type forecastSchema struct {
	List []forecastItemSchema `json:"list" validate:"required,dive"`
}

type citySchema struct {
	Name    *string  `json:"name" validate:"required"`
	Lat     *float64 `json:"lat" validate:"required"`
	Lon     *float64 `json:"lon" validate:"required"`
	Country *string  `json:"country"`
	State   *string  `json:"state"`
}

// decodeStruct decodes body into a fresh T and validates it. Nothing is
// returned unless the whole document matches.
func decodeStruct[T any](target string, body []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &weather.DecodeError{Target: target, Err: err}
	}
	if err := validate.Struct(&v); err != nil {
		return nil, &weather.DecodeError{Target: target, Err: err}
	}
	return &v, nil
}

func decodeCurrent(body []byte) (*currentSchema, error) {
	return decodeStruct[currentSchema]("current conditions", body)
}

func decodeForecast(body []byte) (*forecastSchema, error) {
	return decodeStruct[forecastSchema]("forecast list", body)
}

func decodeCities(body []byte) ([]citySchema, error) {
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, &weather.DecodeError{Target: "city list", Err: errNullDocument}
	}
	var cities []citySchema
	if err := json.Unmarshal(body, &cities); err != nil {
		return nil, &weather.DecodeError{Target: "city list", Err: err}
	}
	if err := validate.Var(cities, "dive"); err != nil {
		return nil, &weather.DecodeError{Target: "city list", Err: err}
	}
	return cities, nil
}

func toConditions(items []conditionSchema) weather.Conditions {
	conds := make(weather.Conditions, 0, len(items))
	for _, c := range items {
		conds = append(conds, weather.Condition{
			ID:          *c.ID,
			Main:        *c.Main,
			Description: *c.Description,
			Icon:        *c.Icon,
		})
	}
	return conds
}

func toCurrent(s *currentSchema) weather.CurrentConditions {
	unavailable := weather.Unavailable{weather.FieldDewPoint, weather.FieldUVIndex}

	var sunrise, sunset int64
	if s.Sys.Sunrise != nil {
		sunrise = *s.Sys.Sunrise
	} else {
		unavailable = append(unavailable, weather.FieldSunrise)
	}
	if s.Sys.Sunset != nil {
		sunset = *s.Sys.Sunset
	} else {
		unavailable = append(unavailable, weather.FieldSunset)
	}

	return weather.CurrentConditions{
		Timestamp:   *s.Dt,
		Sunrise:     sunrise,
		Sunset:      sunset,
		Temperature: *s.Main.Temp,
		FeelsLike:   *s.Main.FeelsLike,
		Pressure:    *s.Main.Pressure,
		Humidity:    *s.Main.Humidity,
		Clouds:      *s.Clouds.All,
		Visibility:  *s.Visibility,
		WindSpeed:   *s.Wind.Speed,
		WindDeg:     *s.Wind.Deg,
		WindGust:    s.Wind.Gust,
		Conditions:  toConditions(s.Weather),
		Unavailable: unavailable,
	}
}

func toSamples(s *forecastSchema) []weather.Sample {
	samples := make([]weather.Sample, 0, len(s.List))
	for _, item := range s.List {
		samples = append(samples, weather.Sample{
			Timestamp:   *item.Dt,
			Temperature: *item.Main.Temp,
			FeelsLike:   *item.Main.FeelsLike,
			Pressure:    *item.Main.Pressure,
			Humidity:    *item.Main.Humidity,
			Clouds:      *item.Clouds.All,
			Visibility:  item.Visibility,
			WindSpeed:   *item.Wind.Speed,
			WindDeg:     *item.Wind.Deg,
			WindGust:    item.Wind.Gust,
			Conditions:  toConditions(item.Weather),
			Pop:         item.Pop,
		})
	}
	return samples
}

func toCity(c citySchema) weather.City {
	city := weather.City{
		Name:      *c.Name,
		Latitude:  *c.Lat,
		Longitude: *c.Lon,
	}
	if c.Country != nil {
		city.Country = *c.Country
	}
	if c.State != nil {
		city.State = *c.State
	}
	return city
}
