// Package config loads tear's settings from defaults, an optional tear.yaml,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/valpere/tear/internal/llm"
	"github.com/valpere/tear/internal/stage"
)

// EnvPrefix prefixes every environment override, e.g. TEAR_MODEL.
const EnvPrefix = "TEAR"

// ModelRoute sends one model name to a backend. Routes are a list rather than
// a map because model names contain dots, which viper treats as nesting.
type ModelRoute struct {
	Name    string `mapstructure:"name"`
	Backend string `mapstructure:"backend"`
}

// StrategyNames are the per-stage strategies as written in configuration.
type StrategyNames struct {
	Translate string `mapstructure:"translate"`
	Estimate  string `mapstructure:"estimate"`
	Refine    string `mapstructure:"refine"`
}

// Parse converts the names into stage strategies.
func (n StrategyNames) Parse() (stage.Strategies, error) {
	var s stage.Strategies
	var err error
	if s.Translate, err = stage.ParseStrategy(n.Translate); err != nil {
		return s, fmt.Errorf("translate strategy: %w", err)
	}
	if s.Estimate, err = stage.ParseStrategy(n.Estimate); err != nil {
		return s, fmt.Errorf("estimate strategy: %w", err)
	}
	if s.Refine, err = stage.ParseStrategy(n.Refine); err != nil {
		return s, fmt.Errorf("refine strategy: %w", err)
	}
	return s, s.Validate()
}

type Config struct {
	Model      string        `mapstructure:"model"`
	Lang       string        `mapstructure:"lang"`
	Strategies StrategyNames `mapstructure:"strategies"`
	// Timeout bounds each model call; zero disables it.
	Timeout   time.Duration `mapstructure:"timeout"`
	DBPath    string        `mapstructure:"db"`
	PromptDir string        `mapstructure:"prompt_dir"`
	ShotsDir  string        `mapstructure:"shots_dir"`
	PairsFile string        `mapstructure:"pairs_file"`
	Routes    []ModelRoute  `mapstructure:"models"`
	LLM       llm.Settings  `mapstructure:"llm"`
}

// DefaultRoutes sends the OpenAI chat models to the openai backend.
var DefaultRoutes = []ModelRoute{
	{Name: "gpt-4", Backend: llm.BackendOpenAI},
	{Name: "gpt-4-1106-preview", Backend: llm.BackendOpenAI},
	{Name: "gpt-4o", Backend: llm.BackendOpenAI},
	{Name: "gpt-4o-mini", Backend: llm.BackendOpenAI},
	{Name: "gpt-3.5-turbo", Backend: llm.BackendOpenAI},
	{Name: "gpt-3.5-turbo-0613", Backend: llm.BackendOpenAI},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", "gpt-3.5-turbo")
	v.SetDefault("lang", "zh-en")
	v.SetDefault("strategies.translate", stage.FewShot.String())
	v.SetDefault("strategies.estimate", stage.FewShot.String())
	v.SetDefault("strategies.refine", stage.Beta.String())
	v.SetDefault("timeout", 2*time.Minute)
	v.SetDefault("db", "./data/tear.db")
	v.SetDefault("prompt_dir", "")
	v.SetDefault("shots_dir", "")
	v.SetDefault("pairs_file", "")

	v.SetDefault("llm.default_backend", llm.BackendOllama)
	v.SetDefault("llm.http_timeout", llm.DefaultHTTPTimeout)
	v.SetDefault("llm.ollama.base_url", llm.DefaultOllamaURL)
	v.SetDefault("llm.ollama.api_key", "")
	v.SetDefault("llm.openai.base_url", llm.DefaultOpenAIURL)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openrouter.base_url", llm.DefaultOpenRouterURL)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.anthropic.api_key", "")
}

// Load reads configuration. An explicit path must exist; otherwise tear.yaml
// is looked up in the working directory and $HOME/.config/tear, and its
// absence is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"llm.openai.api_key":     "OPENAI_API_KEY",
		"llm.openai.base_url":    "OPENAI_BASE_URL",
		"llm.openrouter.api_key": "OPENROUTER_API_KEY",
		"llm.anthropic.api_key":  "ANTHROPIC_API_KEY",
	} {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tear")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "tear"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if !v.IsSet("models") {
		cfg.Routes = DefaultRoutes
	}
	cfg.LLM.Models = routeTable(cfg.Routes)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func routeTable(routes []ModelRoute) map[string]string {
	table := make(map[string]string, len(routes))
	for _, r := range routes {
		if r.Name != "" {
			table[r.Name] = r.Backend
		}
	}
	return table
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("config: model is required")
	}
	if c.Timeout < 0 {
		return errors.New("config: timeout must not be negative")
	}
	for _, r := range c.Routes {
		if r.Name == "" || r.Backend == "" {
			return fmt.Errorf("config: model route %+v needs a name and a backend", r)
		}
	}
	if _, err := c.Strategies.Parse(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
