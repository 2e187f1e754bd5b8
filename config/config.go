// Package config holds the translation settings and their YAML
// persistence.
//
// Settings are read from the user's config.yaml (see settings.ConfigFilePath)
// and may be overridden per directory by a .bitrans.yaml file next to the
// documents being translated. The engine receives a Settings value, so a
// run always works on a snapshot that later edits cannot change.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Strategy names the interleaving strategy of a run.
type Strategy string

const (
	// StrategyRealtime translates one line at a time and inserts each
	// translation as soon as it arrives.
	StrategyRealtime Strategy = "realtime"
	// StrategyConcurrent translates lines in chunks of Concurrency parallel
	// requests and inserts each chunk in document order.
	StrategyConcurrent Strategy = "concurrent"
	// StrategyBatch sends BatchSize lines per request using the numbered
	// line format.
	StrategyBatch Strategy = "batch"
)

// DefaultSystemPrompt is the system prompt template. {{toLang}} and
// {{fromLang}} are replaced with language names.
const DefaultSystemPrompt = `You are a professional translator. Translate the following text to {{toLang}}.
Keep the original formatting, including markdown syntax.
Only output the translation, no explanations.`

// Settings is the complete configuration of a translation run.
type Settings struct {
	// APIURL is the full chat-completions endpoint URL.
	APIURL string `yaml:"api_url"`
	// APIKey is the bearer token. Usually stored in auth.json instead.
	APIKey string `yaml:"api_key,omitempty"`
	// Model is the model identifier sent with every request.
	Model string `yaml:"model"`
	// FromLang is the source language code, or "auto".
	FromLang string `yaml:"from_lang"`
	// ToLang is the target language code.
	ToLang string `yaml:"to_lang"`
	// Temperature is the sampling temperature, 0 to 2.
	Temperature float64 `yaml:"temperature"`
	// MaxTokens caps the response length.
	MaxTokens int `yaml:"max_tokens"`
	// Concurrency is the number of requests in flight for the concurrent
	// strategy.
	Concurrency int `yaml:"concurrency"`
	// SystemPrompt is the prompt template.
	SystemPrompt string `yaml:"system_prompt"`

	// Strategy selects how the document is walked.
	Strategy Strategy `yaml:"strategy"`
	// BatchSize is the number of lines per request for the batch strategy.
	BatchSize int `yaml:"batch_size"`
	// TranslateTables makes lines containing '|' translatable.
	TranslateTables bool `yaml:"translate_tables"`
	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout"`
	// MaxRetries is how often a request is retried on 429 and 5xx.
	MaxRetries int `yaml:"max_retries"`
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		APIURL:       "https://api.openai.com/v1/chat/completions",
		Model:        "gpt-4o-mini",
		FromLang:     "auto",
		ToLang:       "zh-CN",
		Temperature:  0.3,
		MaxTokens:    4096,
		Concurrency:  3,
		SystemPrompt: DefaultSystemPrompt,
		Strategy:     StrategyConcurrent,
		BatchSize:    20,
		Timeout:      60 * time.Second,
		MaxRetries:   2,
	}
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	var problems []string
	if strings.TrimSpace(s.APIURL) == "" {
		problems = append(problems, "api_url is empty")
	}
	if strings.TrimSpace(s.Model) == "" {
		problems = append(problems, "model is empty")
	}
	if strings.TrimSpace(s.ToLang) == "" {
		problems = append(problems, "to_lang is empty")
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		problems = append(problems, fmt.Sprintf("temperature %.2f outside [0, 2]", s.Temperature))
	}
	if s.MaxTokens < 1 {
		problems = append(problems, fmt.Sprintf("max_tokens must be >= 1, got %d", s.MaxTokens))
	}
	if s.Concurrency < 1 {
		problems = append(problems, fmt.Sprintf("concurrency must be >= 1, got %d", s.Concurrency))
	}
	if s.BatchSize < 1 {
		problems = append(problems, fmt.Sprintf("batch_size must be >= 1, got %d", s.BatchSize))
	}
	if s.MaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("max_retries must be >= 0, got %d", s.MaxRetries))
	}
	switch s.Strategy {
	case StrategyRealtime, StrategyConcurrent, StrategyBatch:
	default:
		problems = append(problems, fmt.Sprintf("unknown strategy %q (valid: realtime, concurrent, batch)", s.Strategy))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Key-value access (settings surface)
// ---------------------------------------------------------------------------

type field struct {
	get func(s *Settings) string
	set func(s *Settings, v string) error
}

var fields = map[string]field{
	"api_url": {
		get: func(s *Settings) string { return s.APIURL },
		set: func(s *Settings, v string) error { s.APIURL = v; return nil },
	},
	"api_key": {
		get: func(s *Settings) string { return s.APIKey },
		set: func(s *Settings, v string) error { s.APIKey = v; return nil },
	},
	"model": {
		get: func(s *Settings) string { return s.Model },
		set: func(s *Settings, v string) error { s.Model = v; return nil },
	},
	"from_lang": {
		get: func(s *Settings) string { return s.FromLang },
		set: func(s *Settings, v string) error { s.FromLang = v; return nil },
	},
	"to_lang": {
		get: func(s *Settings) string { return s.ToLang },
		set: func(s *Settings, v string) error { s.ToLang = v; return nil },
	},
	"temperature": {
		get: func(s *Settings) string { return strconv.FormatFloat(s.Temperature, 'f', -1, 64) },
		set: func(s *Settings, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("temperature: %w", err)
			}
			s.Temperature = f
			return nil
		},
	},
	"max_tokens":  intField(func(s *Settings) *int { return &s.MaxTokens }),
	"concurrency": intField(func(s *Settings) *int { return &s.Concurrency }),
	"batch_size":  intField(func(s *Settings) *int { return &s.BatchSize }),
	"max_retries": intField(func(s *Settings) *int { return &s.MaxRetries }),
	"system_prompt": {
		get: func(s *Settings) string { return s.SystemPrompt },
		set: func(s *Settings, v string) error { s.SystemPrompt = v; return nil },
	},
	"strategy": {
		get: func(s *Settings) string { return string(s.Strategy) },
		set: func(s *Settings, v string) error { s.Strategy = Strategy(v); return nil },
	},
	"translate_tables": {
		get: func(s *Settings) string { return strconv.FormatBool(s.TranslateTables) },
		set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("translate_tables: %w", err)
			}
			s.TranslateTables = b
			return nil
		},
	},
	"timeout": {
		get: func(s *Settings) string { return s.Timeout.String() },
		set: func(s *Settings, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("timeout: %w", err)
			}
			s.Timeout = d
			return nil
		},
	},
	"proxy": {
		get: func(s *Settings) string { return s.Proxy },
		set: func(s *Settings, v string) error { s.Proxy = v; return nil },
	},
}

func intField(ptr func(s *Settings) *int) field {
	return field{
		get: func(s *Settings) string { return strconv.Itoa(*ptr(s)) },
		set: func(s *Settings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*ptr(s) = n
			return nil
		},
	}
}

// Keys returns the names accepted by Get and Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a setting as a string.
func (s *Settings) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	return f.get(s), nil
}

// Set parses value into the named setting and validates the result. On a
// validation error the settings are left unchanged.
func (s *Settings) Set(key, value string) error {
	next := *s
	if err := next.Assign(key, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// Assign parses value into the named setting without validating the
// other settings. Call Validate once all values are in place.
func (s *Settings) Assign(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return f.set(s, value)
}
