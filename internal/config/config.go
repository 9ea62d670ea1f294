// Package config loads the service configuration from YAML, .env files and
// IMAGE_TRANSLATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "IMAGE_TRANSLATE_"

// Language pairs a display name with its ISO 639-1 code.
type Language struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Code string `yaml:"code" json:"code" validate:"required"`
}

type OCRConfig struct {
	TessdataPrefix  string        `yaml:"tessdataPrefix"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	DefaultLanguage string        `yaml:"defaultLanguage" validate:"required"`
	Preprocess      bool          `yaml:"preprocess"`
	MaxSide         int           `yaml:"maxSide" validate:"gte=0"`
}

type TranslationConfig struct {
	Backend         string        `yaml:"backend" validate:"oneof=google openai"`
	Endpoint        string        `yaml:"endpoint"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"apiKey"`
	DefaultLanguage string        `yaml:"defaultLanguage" validate:"required"`
	ChunkSize       int           `yaml:"chunkSize" validate:"gt=0"`
	CacheTTL        time.Duration `yaml:"cacheTTL"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
}

type GrammarConfig struct {
	URL     string        `yaml:"url" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

type SpeechConfig struct {
	Backend  string        `yaml:"backend" validate:"oneof=google openai"`
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	Voice    string        `yaml:"voice"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

type RedisConfig struct {
	// URL is a redis:// connection string. Empty disables the translation cache.
	URL string `yaml:"url"`
}

// Config is the complete service configuration.
type Config struct {
	Port        int               `yaml:"port" validate:"gt=0,lte=65535"`
	LogLevel    string            `yaml:"logLevel" validate:"oneof=debug info warn error"`
	UploadLimit string            `yaml:"uploadLimit" validate:"required"`
	OCR         OCRConfig         `yaml:"ocr"`
	Languages   LanguageTable     `yaml:"languages" validate:"required,min=1,dive"`
	Translation TranslationConfig `yaml:"translation"`
	Grammar     GrammarConfig     `yaml:"grammar"`
	Speech      SpeechConfig      `yaml:"speech"`
	Redis       RedisConfig       `yaml:"redis"`
}

// DefaultLanguages is the language table offered when none is configured.
func DefaultLanguages() LanguageTable {
	return LanguageTable{
		{Name: "English", Code: "en"},
		{Name: "French", Code: "fr"},
		{Name: "Spanish", Code: "es"},
		{Name: "German", Code: "de"},
		{Name: "Italian", Code: "it"},
		{Name: "Portuguese", Code: "pt"},
		{Name: "Dutch", Code: "nl"},
		{Name: "Russian", Code: "ru"},
		{Name: "Chinese", Code: "zh"},
		{Name: "Japanese", Code: "ja"},
		{Name: "Korean", Code: "ko"},
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Port:        8080,
		LogLevel:    "info",
		UploadLimit: "10M",
		OCR: OCRConfig{
			Timeout:         60 * time.Second,
			DefaultLanguage: "English",
			Preprocess:      true,
			MaxSide:         4000,
		},
		Languages: DefaultLanguages(),
		Translation: TranslationConfig{
			Backend:         "google",
			DefaultLanguage: "English",
			ChunkSize:       5000,
			CacheTTL:        24 * time.Hour,
			Timeout:         15 * time.Second,
		},
		Grammar: GrammarConfig{
			URL:     "https://api.languagetool.org",
			Timeout: 20 * time.Second,
		},
		Speech: SpeechConfig{
			Backend: "google",
			Voice:   "alloy",
			Timeout: 20 * time.Second,
		},
	}
}

// Path returns CONFIG_PATH or ./config.yaml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// Load reads .env (if present), the YAML file at path (if present), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	seen := make(map[string]bool)
	for i, l := range c.Languages {
		name, code := strings.ToLower(l.Name), strings.ToLower(l.Code)
		if seen[name] || seen[code] {
			return fmt.Errorf("invalid configuration: duplicate language %q at index %d", l.Name, i)
		}
		seen[name], seen[code] = true, true
	}
	if _, ok := c.Languages.Code(c.OCR.DefaultLanguage); !ok {
		return fmt.Errorf("invalid configuration: ocr default language %q is not in the language table", c.OCR.DefaultLanguage)
	}
	if _, ok := c.Languages.Code(c.Translation.DefaultLanguage); !ok {
		return fmt.Errorf("invalid configuration: translation default language %q is not in the language table", c.Translation.DefaultLanguage)
	}
	if c.Translation.Backend == "openai" && c.Translation.APIKey == "" {
		return errors.New("invalid configuration: translation backend openai needs an api key")
	}
	if c.Speech.Backend == "openai" && c.Speech.APIKey == "" {
		return errors.New("invalid configuration: speech backend openai needs an api key")
	}
	return nil
}

// LanguageTable is the ordered display name / code table.
type LanguageTable []Language

// Code resolves a display name or code to its code. Matching ignores case.
func (t LanguageTable) Code(nameOrCode string) (string, bool) {
	if l, ok := t.find(nameOrCode); ok {
		return l.Code, true
	}
	return "", false
}

// Name resolves a code or display name to its display name.
func (t LanguageTable) Name(nameOrCode string) (string, bool) {
	if l, ok := t.find(nameOrCode); ok {
		return l.Name, true
	}
	return "", false
}

// Codes returns every code in table order.
func (t LanguageTable) Codes() []string {
	codes := make([]string, 0, len(t))
	for _, l := range t {
		codes = append(codes, l.Code)
	}
	return codes
}

func (t LanguageTable) find(nameOrCode string) (Language, bool) {
	v := strings.TrimSpace(nameOrCode)
	for _, l := range t {
		if strings.EqualFold(l.Name, v) || strings.EqualFold(l.Code, v) {
			return l, true
		}
	}
	return Language{}, false
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
		return nil
	}

	if v, ok := lookup(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		c.Port = port
	}
	if v, ok := lookup(EnvPrefix + "OCR_PREPROCESS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sOCR_PREPROCESS: %w", EnvPrefix, err)
		}
		c.OCR.Preprocess = b
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("UPLOAD_LIMIT", &c.UploadLimit)
	str("TESSDATA_PREFIX", &c.OCR.TessdataPrefix)
	str("TRANSLATION_BACKEND", &c.Translation.Backend)
	str("TRANSLATION_ENDPOINT", &c.Translation.Endpoint)
	str("TRANSLATION_MODEL", &c.Translation.Model)
	str("GRAMMAR_URL", &c.Grammar.URL)
	str("SPEECH_BACKEND", &c.Speech.Backend)
	str("SPEECH_ENDPOINT", &c.Speech.Endpoint)
	str("SPEECH_VOICE", &c.Speech.Voice)
	str("REDIS_URL", &c.Redis.URL)

	// A single OpenAI key serves both backends unless set separately.
	if v, ok := lookup(EnvPrefix + "OPENAI_API_KEY"); ok {
		c.Translation.APIKey = v
		c.Speech.APIKey = v
	}
	str("TRANSLATION_API_KEY", &c.Translation.APIKey)
	str("SPEECH_API_KEY", &c.Speech.APIKey)

	if err := dur("OCR_TIMEOUT", &c.OCR.Timeout); err != nil {
		return err
	}
	return dur("CACHE_TTL", &c.Translation.CacheTTL)
}
