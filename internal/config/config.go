package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/i474232898/weather-forecast-aggregation/internal/weather"
)

const (
	CalendarReference = "reference"
	CalendarLocal     = "local"
)

// Config holds all configuration for the application.
type Config struct {
	OpenWeather OpenWeatherConfig `mapstructure:"openweather"`
	Transport   TransportConfig   `mapstructure:"transport"`
	Calendar    CalendarConfig    `mapstructure:"calendar"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Store       StoreConfig       `mapstructure:"store"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`

	// Locations to refresh in the background, parsed from scheduler.locations.
	Locations []weather.Location `mapstructure:"-"`
}

type OpenWeatherConfig struct {
	APIKey  string `mapstructure:"apikey"`
	BaseURL string `mapstructure:"baseurl"`
}

type TransportConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimitRPS   float64       `mapstructure:"ratelimitrps"`
	RateLimitBurst int           `mapstructure:"ratelimitburst"`
	CircuitBreaker bool          `mapstructure:"circuitbreaker"`
}

// CalendarConfig selects how forecast samples are bucketed into days.
type CalendarConfig struct {
	Mode          string `mapstructure:"mode"`          // reference, local
	ReferenceZone string `mapstructure:"referencezone"` // IANA name
}

type SchedulerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Locations string        `mapstructure:"locations"` // lat:lon[:label],...
}

type StoreConfig struct {
	MaxHistory int           `mapstructure:"maxhistory"` // 0 = unlimited
	MaxAge     time.Duration `mapstructure:"maxage"`     // 0 = unlimited
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// Load reads an optional .env file, an optional config.yaml and WEATHER_*
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("openweather.apikey", "")
	v.SetDefault("openweather.baseurl", "https://api.openweathermap.org")
	v.SetDefault("transport.timeout", "10s")
	v.SetDefault("transport.ratelimitrps", 5.0)
	v.SetDefault("transport.ratelimitburst", 10)
	v.SetDefault("transport.circuitbreaker", true)
	v.SetDefault("calendar.mode", CalendarReference)
	v.SetDefault("calendar.referencezone", "UTC")
	v.SetDefault("scheduler.interval", "15m")
	v.SetDefault("scheduler.locations", "")
	v.SetDefault("store.maxhistory", 96) // roughly 24h at 15-minute intervals
	v.SetDefault("store.maxage", "24h")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetEnvPrefix("WEATHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	locs, err := ParseLocations(cfg.Scheduler.Locations)
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.OpenWeather.APIKey == "" {
		return errors.New("WEATHER_OPENWEATHER_APIKEY is required")
	}
	if c.Transport.RateLimitRPS <= 0 || c.Transport.RateLimitBurst <= 0 {
		return fmt.Errorf("invalid rate limit: rps=%v burst=%d", c.Transport.RateLimitRPS, c.Transport.RateLimitBurst)
	}
	switch c.Calendar.Mode {
	case CalendarReference, CalendarLocal:
	default:
		return fmt.Errorf("invalid calendar mode %q", c.Calendar.Mode)
	}
	if _, err := c.ReferenceLocation(); err != nil {
		return err
	}
	return nil
}

// ReferenceLocation loads the fixed calendar used for daily bucketing.
func (c *Config) ReferenceLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Calendar.ReferenceZone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar.referencezone %q: %w", c.Calendar.ReferenceZone, err)
	}
	return loc, nil
}

// GetServerAddr returns the server address in the format ":port".
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// ParseLocations parses "lat:lon[:label]" entries separated by commas.
func ParseLocations(raw string) ([]weather.Location, error) {
	var locs []weather.Location
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid location %q: want lat:lon[:label]", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", entry, err)
		}

		loc := weather.Location{Latitude: lat, Longitude: lon}
		if len(parts) == 3 {
			loc.Label = strings.TrimSpace(parts[2])
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

// NewLogger builds a zap logger from the log settings.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	switch strings.ToLower(c.Log.Format) {
	case "console", "text":
		zc = zap.NewDevelopmentConfig()
	default:
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
