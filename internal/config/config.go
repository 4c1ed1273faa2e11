// Package config loads the nexusgen project file.
//
//	schema: api/service.yaml
//	out_dir: gen
//	runtime: nexus
//	languages:
//	  go:
//	    package: orders
//	    primitive_pointers: true
//	    types:
//	      time: civil.Time@cloud.google.com/go/civil
//	  typescript:
//	    out: web/src/gen
//	logging:
//	  level: debug
package config

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/schema/field"
)

// DefaultFile is the project file looked up when no path is given.
const DefaultFile = "nexusgen.yaml"

// Config is the root configuration structure.
type Config struct {
	// Schema is the definition file, relative to the project file.
	Schema string `yaml:"schema"`
	// OutDir is the output root. With more than one language, each one
	// writes to OutDir/<lang> unless it sets its own Out.
	OutDir              string                    `yaml:"out_dir"`
	Header              string                    `yaml:"header,omitempty"`
	Runtime             string                    `yaml:"runtime" validate:"omitempty,oneof=nexus none"`
	MaxIdentifierLength int                       `yaml:"max_identifier_length" validate:"gte=0"`
	Workers             int                       `yaml:"workers" validate:"gte=0"`
	Languages           map[string]LanguageConfig `yaml:"languages" validate:"dive,keys,oneof=go golang java python py typescript ts,endkeys"`
	Logging             LoggingConfig             `yaml:"logging"`
}

// LanguageConfig configures one target language.
type LanguageConfig struct {
	Out               string `yaml:"out,omitempty"`
	Package           string `yaml:"package,omitempty"`
	Runtime           string `yaml:"runtime,omitempty" validate:"omitempty,oneof=nexus none"`
	PrimitivePointers bool   `yaml:"primitive_pointers,omitempty"`
	// Types maps a kind to "Name" or "Name@import".
	Types map[string]string `yaml:"types,omitempty" validate:"dive,required"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Trace bool   `yaml:"trace"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads configuration from a YAML file. Relative paths in the file
// are resolved against its directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// LoadOptional loads path, or DefaultFile if path is empty. A missing
// default file yields an empty configuration.
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(DefaultFile)
}

// Default returns the configuration used without a project file.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg
}

// Parse decodes and validates a configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides applies NEXUSGEN_* environment variables. They
// override the file but not the command line.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEXUSGEN_OUT_DIR"); v != "" {
		cfg.OutDir = v
	}
	if v := os.Getenv("NEXUSGEN_RUNTIME"); v != "" {
		cfg.Runtime = v
	}
	if v := os.Getenv("NEXUSGEN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NEXUSGEN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.OutDir == "" {
		cfg.OutDir = "gen"
	}
	if cfg.Runtime == "" {
		cfg.Runtime = gen.RuntimeNexus.String()
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Schema = abs(c.Schema)
	c.OutDir = abs(c.OutDir)
	for name, lc := range c.Languages {
		lc.Out = abs(lc.Out)
		c.Languages[name] = lc
	}
}

// Validate checks the configuration. Every problem is reported.
func (c *Config) Validate() error {
	var errs gen.ErrorList
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs.Add(gen.NewConfigError(fieldPath(fe), fe.Value(), describe(fe)))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.Languages)) {
		types := c.Languages[name].Types
		for _, kind := range slices.Sorted(maps.Keys(types)) {
			if _, _, err := gen.ParseTypeMapping(kind + "=" + types[kind]); err != nil {
				errs.Add(err)
			}
		}
	}
	return errs.Err()
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "must be at least " + fe.Param()
	case "required":
		return "is required"
	default:
		return "failed " + fe.Tag()
	}
}

// Language returns the settings of lang, configured under any of its names.
func (c *Config) Language(lang gen.Language) (LanguageConfig, bool) {
	for name, lc := range c.Languages {
		if l, err := gen.ParseLanguage(name); err == nil && l == lang {
			return lc, true
		}
	}
	return LanguageConfig{}, false
}

// SetLanguage replaces the settings of lang.
func (c *Config) SetLanguage(lang gen.Language, lc LanguageConfig) {
	for name := range c.Languages {
		if l, err := gen.ParseLanguage(name); err == nil && l == lang {
			delete(c.Languages, name)
		}
	}
	if c.Languages == nil {
		c.Languages = make(map[string]LanguageConfig)
	}
	c.Languages[lang.String()] = lc
}

// Targets returns one target per configured language, in language order.
// A language with no Out writes to OutDir when it is the only language,
// and to OutDir/<lang> otherwise.
func (c *Config) Targets() ([]gen.Target, error) {
	byLang := make(map[gen.Language]LanguageConfig, len(c.Languages))
	var errs gen.ErrorList
	for name, lc := range c.Languages {
		lang, err := gen.ParseLanguage(name)
		if err != nil {
			errs.Add(err)
			continue
		}
		if _, ok := byLang[lang]; ok {
			errs.Add(gen.NewConfigError("languages", name, "language configured twice"))
			continue
		}
		byLang[lang] = lc
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	var targets []gen.Target
	for _, lang := range gen.Languages() {
		lc, ok := byLang[lang]
		if !ok {
			continue
		}
		t, err := c.target(lang, lc, len(byLang) > 1)
		if err != nil {
			errs.Add(err)
			continue
		}
		targets = append(targets, t)
	}
	return targets, errs.Err()
}

func (c *Config) target(lang gen.Language, lc LanguageConfig, multi bool) (gen.Target, error) {
	t := gen.Target{
		Language:          lang,
		OutDir:            lc.Out,
		Package:           lc.Package,
		PrimitivePointers: lc.PrimitivePointers,
	}
	if t.OutDir == "" {
		t.OutDir = c.OutDir
		if multi {
			t.OutDir = filepath.Join(c.OutDir, lang.String())
		}
	}
	runtime := cmp.Or(lc.Runtime, c.Runtime)
	rt, err := gen.ParseRuntime(runtime)
	if err != nil {
		return t, err
	}
	t.Runtime = rt
	for _, kind := range slices.Sorted(maps.Keys(lc.Types)) {
		k, m, err := gen.ParseTypeMapping(kind + "=" + lc.Types[kind])
		if err != nil {
			return t, err
		}
		if t.TypeOverrides == nil {
			t.TypeOverrides = make(map[field.Type]gen.TypeMapping)
		}
		t.TypeOverrides[k] = m
	}
	return t, nil
}

// Options returns the generator options set by the configuration.
func (c *Config) Options() []gen.Option {
	var opts []gen.Option
	if c.Header != "" {
		opts = append(opts, gen.WithHeader(c.Header))
	}
	if c.MaxIdentifierLength > 0 {
		opts = append(opts, gen.WithMaxIdentifierLength(c.MaxIdentifierLength))
	}
	if c.Workers > 0 {
		opts = append(opts, gen.WithWorkers(c.Workers))
	}
	return opts
}
