package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"methodevo/internal/matcher"
)

type Config struct {
	Tracking struct {
		UseSimilarity   bool    `yaml:"use_similarity"`
		NGramThreshold  float64 `yaml:"ngram_threshold"`
		LCSThreshold    float64 `yaml:"lcs_threshold"`
		RenameThreshold float64 `yaml:"rename_threshold"`
		GramSize        int     `yaml:"gram_size"`
		Strategy        string  `yaml:"strategy"`
		Workers         int     `yaml:"workers"`
	} `yaml:"tracking"`
	Output struct {
		Dir       string `yaml:"dir"`
		EmitLists bool   `yaml:"emit_lists"`
	} `yaml:"output"`
}

// Default returns the calibrated defaults used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	mc := matcher.DefaultConfig()
	cfg.Tracking.UseSimilarity = mc.UseSimilarity
	cfg.Tracking.NGramThreshold = mc.NGramThreshold
	cfg.Tracking.LCSThreshold = mc.LCSThreshold
	cfg.Tracking.RenameThreshold = mc.RenameThreshold
	cfg.Tracking.GramSize = mc.GramSize
	cfg.Tracking.Strategy = string(mc.Strategy)
	cfg.Output.Dir = "results"
	return cfg
}

// Load reads the YAML config, falling back to defaults when the file does
// not exist. A .env file and METHODEVO_* environment variables override the
// file contents.
func Load(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if strategy := os.Getenv("METHODEVO_STRATEGY"); strategy != "" {
		cfg.Tracking.Strategy = strategy
	}
	if sim := os.Getenv("METHODEVO_USE_SIMILARITY"); sim != "" {
		v, err := strconv.ParseBool(sim)
		if err != nil {
			return nil, fmt.Errorf("invalid METHODEVO_USE_SIMILARITY value %q", sim)
		}
		cfg.Tracking.UseSimilarity = v
	}

	return cfg, nil
}

// MatcherConfig converts the tracking section to a validated matcher config.
// Threshold values supplied as percentages (>1) are normalized to ratios
// before validation.
func (c *Config) MatcherConfig() (matcher.Config, error) {
	mc := matcher.Config{
		UseSimilarity:   c.Tracking.UseSimilarity,
		NGramThreshold:  normalizeRatio(c.Tracking.NGramThreshold),
		LCSThreshold:    normalizeRatio(c.Tracking.LCSThreshold),
		RenameThreshold: normalizeRatio(c.Tracking.RenameThreshold),
		GramSize:        c.Tracking.GramSize,
		Strategy:        matcher.Strategy(c.Tracking.Strategy),
	}
	if err := mc.Validate(); err != nil {
		return matcher.Config{}, err
	}
	return mc, nil
}

func normalizeRatio(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}
