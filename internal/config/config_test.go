package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate blanks every variable Load reads, so the developer's environment cannot leak in.
func isolate(t *testing.T) {
	t.Helper()
	for name := range envPaths(reflect.TypeOf(Config{}), "") {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PDF2BOOK_OUT_DIR", "/tmp/books")
	t.Setenv("PDF2BOOK_TEXT_ENGINE", "glyphs")
	t.Setenv("PDF2BOOK_PARALLEL", "4")
	t.Setenv("PDF2BOOK_LOG_LEVEL", "debug")
	t.Setenv("PDF2BOOK_CLASSIFIER", "gemini")
	t.Setenv("GOOGLE_API_KEY", "k")
	t.Setenv("PDF2BOOK_CLASSIFIER_BACKOFF_MIN", "250ms")
	t.Setenv("PDF2BOOK_CLASSIFIER_BACKOFF_MAX", "2s")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/books", cfg.OutDir)
	assert.Equal(t, "glyphs", cfg.TextEngine)
	assert.Equal(t, 4, cfg.Parallel)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, ClassifierGemini, cfg.Classifier.Provider)
	assert.Equal(t, "k", cfg.Classifier.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Classifier.BackoffMin)
	assert.Equal(t, 2*time.Second, cfg.Classifier.BackoffMax)
	assert.Equal(t, 3, cfg.Classifier.Attempts)
}

func TestOverridesWinOverEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PDF2BOOK_OUT_DIR", "/from/env")

	cfg, err := Load(map[string]any{"out_dir": "/from/flag", "log.format": "json"})
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.OutDir)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty out dir", func(c *Config) { c.OutDir = " " }, "out_dir"},
		{"unknown engine", func(c *Config) { c.TextEngine = "ocr" }, "text_engine"},
		{"zero parallel", func(c *Config) { c.Parallel = 0 }, "parallel"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"unknown classifier", func(c *Config) { c.Classifier.Provider = "gpt" }, "classifier \"gpt\""},
		{"gemini without key", func(c *Config) { c.Classifier.Provider = ClassifierGemini }, "GOOGLE_API_KEY"},
		{"zero attempts", func(c *Config) { c.Classifier.Attempts = 0 }, "attempts"},
		{"inverted backoff", func(c *Config) { c.Classifier.BackoffMax = time.Second }, "backoff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PDF2BOOK_PARALLEL", "0")
	_, err := Load(nil)
	assert.ErrorContains(t, err, "parallel")
}

func TestEnvPaths(t *testing.T) {
	paths := envPaths(reflect.TypeOf(Config{}), "")
	assert.Equal(t, "log.level", paths["PDF2BOOK_LOG_LEVEL"])
	assert.Equal(t, "classifier.api_key", paths["GOOGLE_API_KEY"])
	assert.Equal(t, "classifier.backoff_max", paths["PDF2BOOK_CLASSIFIER_BACKOFF_MAX"])
	assert.Len(t, paths, 11)
}
