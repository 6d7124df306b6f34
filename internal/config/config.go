// Package config loads pdf2book settings from defaults, the environment and command-line
// overrides, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"

	"github.com/thywilljoshua/pdf-to-gamebook/internal/logging"
	"github.com/thywilljoshua/pdf-to-gamebook/internal/pdfsource"
)

// Classifier providers.
const (
	ClassifierOff    = "off"
	ClassifierGemini = "gemini"
	ClassifierOllama = "ollama"
)

type Config struct {
	OutDir     string     `koanf:"out_dir" env:"PDF2BOOK_OUT_DIR"`
	TextEngine string     `koanf:"text_engine" env:"PDF2BOOK_TEXT_ENGINE"`
	Parallel   int        `koanf:"parallel" env:"PDF2BOOK_PARALLEL"`
	Log        Log        `koanf:"log"`
	Classifier Classifier `koanf:"classifier"`
}

type Log struct {
	Level  string `koanf:"level" env:"PDF2BOOK_LOG_LEVEL"`
	Format string `koanf:"format" env:"PDF2BOOK_LOG_FORMAT"`
}

// Classifier configures the optional model that decides chapter boundaries.
type Classifier struct {
	Provider   string        `koanf:"provider" env:"PDF2BOOK_CLASSIFIER"`
	Model      string        `koanf:"model" env:"PDF2BOOK_CLASSIFIER_MODEL"`
	APIKey     string        `koanf:"api_key" env:"GOOGLE_API_KEY"`
	Attempts   int           `koanf:"attempts" env:"PDF2BOOK_CLASSIFIER_ATTEMPTS"`
	BackoffMin time.Duration `koanf:"backoff_min" env:"PDF2BOOK_CLASSIFIER_BACKOFF_MIN"`
	BackoffMax time.Duration `koanf:"backoff_max" env:"PDF2BOOK_CLASSIFIER_BACKOFF_MAX"`
}

func Default() *Config {
	return &Config{
		OutDir:     "out",
		TextEngine: string(pdfsource.EngineRows),
		Parallel:   1,
		Log:        Log{Level: "info", Format: "console"},
		Classifier: Classifier{
			Provider:   ClassifierOff,
			Attempts:   3,
			BackoffMin: 4 * time.Second,
			BackoffMax: 10 * time.Second,
		},
	}
}

// Load resolves the configuration. overrides maps koanf paths (e.g. "log.level") to values and
// wins over everything else; the CLI passes only the flags the user actually set.
func Load(overrides map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	paths := envPaths(reflect.TypeOf(Config{}), "")
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			path, ok := paths[key]
			if !ok || value == "" {
				return "", nil
			}
			return path, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envPaths maps each `env` struct tag to the koanf path of its field.
func envPaths(t reflect.Type, prefix string) map[string]string {
	out := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if !f.IsExported() || tag == "" || tag == "-" {
			continue
		}
		path := tag
		if prefix != "" {
			path = prefix + "." + tag
		}
		if name := f.Tag.Get("env"); name != "" {
			out[name] = path
		}
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() != "time" {
			for k, v := range envPaths(f.Type, path) {
				out[k] = v
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OutDir) == "" {
		errs = append(errs, errors.New("out_dir must not be empty"))
	}
	if !slices.Contains(pdfsource.Engines(), c.TextEngine) {
		errs = append(errs, fmt.Errorf("text_engine %q: want one of %s", c.TextEngine, strings.Join(pdfsource.Engines(), ", ")))
	}
	if c.Parallel < 1 {
		errs = append(errs, fmt.Errorf("parallel must be at least 1, got %d", c.Parallel))
	}
	if _, err := zapcore.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !slices.Contains(logging.Formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format %q: want one of %s", c.Log.Format, strings.Join(logging.Formats, ", ")))
	}

	cl := c.Classifier
	switch cl.Provider {
	case ClassifierOff, ClassifierOllama:
	case ClassifierGemini:
		if cl.APIKey == "" {
			errs = append(errs, errors.New("classifier gemini requires GOOGLE_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("classifier %q: want off, gemini or ollama", cl.Provider))
	}
	if cl.Attempts < 1 {
		errs = append(errs, fmt.Errorf("classifier.attempts must be at least 1, got %d", cl.Attempts))
	}
	if cl.BackoffMin <= 0 || cl.BackoffMax < cl.BackoffMin {
		errs = append(errs, fmt.Errorf("classifier backoff %s..%s is not a valid range", cl.BackoffMin, cl.BackoffMax))
	}
	return errors.Join(errs...)
}
