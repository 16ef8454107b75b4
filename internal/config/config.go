package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
)

// ConfigPathEnvVar names the variable that points at a YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigFile is read when present and no other path is given.
const DefaultConfigFile = "collisions.yaml"

// Config holds all run settings. Every koanf key is also read from the
// upper-cased environment variable of the same name.
type Config struct {
	InputPath   string `koanf:"input_path" validate:"required"`
	CacheDir    string `koanf:"cache_dir" validate:"required"`
	OutputDir   string `koanf:"output_dir" validate:"required"`
	UseCache    bool   `koanf:"use_cache"`
	SaveYears   bool   `koanf:"save_years"`
	SaveCleaned bool   `koanf:"save_cleaned"`

	YearFrom    int  `koanf:"year_from" validate:"gte=1900,lte=2100"`
	YearTo      int  `koanf:"year_to" validate:"gtefield=YearFrom,lte=2100"`
	GridSize    int  `koanf:"grid_size" validate:"gte=2,lte=1000"`
	CurvePoints int  `koanf:"curve_points" validate:"gte=2,lte=10000"`
	PrintSteps  bool `koanf:"print_steps"`

	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `koanf:"log_format" validate:"oneof=json text console"`
	MetricsPath string `koanf:"metrics_path"`

	// Kafka report sink.
	KafkaEnabled bool          `koanf:"kafka_enabled"`
	KafkaBrokers []string      `koanf:"kafka_brokers"`
	KafkaTopic   string        `koanf:"kafka_topic"`
	KafkaTimeout time.Duration `koanf:"kafka_timeout" validate:"gt=0"`
}

func defaults() Config {
	return Config{
		InputPath:    "data/collisions.csv",
		CacheDir:     "data/cache",
		OutputDir:    "out",
		SaveYears:    true,
		SaveCleaned:  true,
		YearFrom:     domain.DefaultYears.First,
		YearTo:       domain.DefaultYears.Last,
		GridSize:     100,
		CurvePoints:  200,
		LogLevel:     "info",
		LogFormat:    "json",
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "collision-reports",
		KafkaTimeout: 10 * time.Second,
	}
}

// Load reads configuration in three layers: defaults, an optional YAML file,
// then environment variables. path overrides the file lookup; when empty
// CONFIG_PATH and then DefaultConfigFile are tried.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	d := defaults()
	if err := k.Load(structs.Provider(d, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitList(k, "kafka_brokers"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Years returns the analysed year range.
func (c *Config) Years() domain.YearRange {
	return domain.YearRange{First: c.YearFrom, Last: c.YearTo}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.ToUpper(f.Tag.Get("koanf"))
	})
	return v
}

// Validate checks field constraints and cross-field rules. Errors name the
// environment variable to fix.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if c.KafkaEnabled && c.KafkaTopic == "" {
		return errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("invalid %s %q: must be one of %s", fe.Field(), fe.Value(), fe.Param())
	case "gtefield":
		return fmt.Sprintf("invalid %s: must not be before YEAR_FROM", fe.Field())
	default:
		return fmt.Sprintf("invalid %s %v: fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	}
}

// splitList turns a comma separated string value at path into a trimmed slice.
// YAML lists pass through.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}
