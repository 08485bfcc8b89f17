package server

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/kwertop/probset/filters"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v2"
)

// Config is the runtime configuration read from probset.yaml. It can be
// changed while the server runs; see (*Server).watchConfig.
type Config struct {
	RedisURL                string        `yaml:"RedisURL"`
	CacheTTL                time.Duration `yaml:"CacheTTL"`
	RequestRate             string        `yaml:"RequestRate"`
	MaxBudget               string        `yaml:"MaxBudget"`
	DefaultEntriesPerBucket int           `yaml:"DefaultEntriesPerBucket"`
	ExactBuckets            bool          `yaml:"ExactBuckets"`
}

// loadConfig reads the configuration at _specPath_, or searches the usual
// locations when it is empty. A missing file is written out with defaults.
func loadConfig(specPath string) (*viper.Viper, *Config, error) {
	v := viper.New()
	v.SetConfigName("probset")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/probset/")
	v.AddConfigPath("$HOME/.probset")
	v.AddConfigPath(".")

	v.SetDefault("RedisURL", "")
	v.SetDefault("CacheTTL", "10m")
	v.SetDefault("RequestRate", "medium")
	v.SetDefault("MaxBudget", "1TB")
	v.SetDefault("DefaultEntriesPerBucket", filters.DefaultEntriesPerBucket)
	v.SetDefault("ExactBuckets", false)

	if specPath != "" {
		v.SetConfigFile(specPath)
	}

	configExists := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("Malformed configuration: %s", err)
		}
		configExists = false
	}

	c, err := decodeConfig(v)
	if err != nil {
		return nil, nil, err
	}
	logger.Printf("[config] selected config file: %s", v.ConfigFileUsed())
	if !configExists && specPath != "" {
		if err := c.WriteYaml(specPath); err != nil {
			return nil, nil, err
		}
		logger.Printf("[config] default config written to %s", specPath)
	}
	return v, c, nil
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("Malformed configuration: %s", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects values the server could not act on
func (c *Config) Validate() error {
	if _, err := filters.LoadFactor(c.DefaultEntriesPerBucket); err != nil {
		return fmt.Errorf("invalid DefaultEntriesPerBucket: %w", err)
	}
	if _, err := c.MaxBudgetBits(); err != nil {
		return err
	}
	if _, err := rateLimiter(c.RequestRate); err != nil {
		return fmt.Errorf("invalid RequestRate %q: %w", c.RequestRate, err)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid CacheTTL %v", c.CacheTTL)
	}
	return nil
}

// MaxBudgetBits is the largest memory budget a request may ask for, in bits.
// Zero means unlimited.
func (c *Config) MaxBudgetBits() (int64, error) {
	s := strings.TrimSpace(c.MaxBudget)
	if s == "" || s == "0" || strings.EqualFold(s, "unlimited") {
		return 0, nil
	}
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid MaxBudget %q: %w", c.MaxBudget, err)
	}
	if v.Bytes() > (1<<63-1)/8 {
		return 0, fmt.Errorf("invalid MaxBudget %q: too large", c.MaxBudget)
	}
	return int64(v.Bytes()) * 8, nil
}

// Limiter returns the request limiter for the configured RequestRate
func (c *Config) Limiter() *rate.Limiter {
	l, err := rateLimiter(c.RequestRate)
	if err != nil {
		logger.Printf("RequestRate [%s] unrecognized, set as unlimited", c.RequestRate)
		return rate.NewLimiter(rate.Inf, 0)
	}
	return l
}

// WriteYaml saves the configuration to _path_
func (c *Config) WriteYaml(path string) error {
	d, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0644)
}

// rateLimiter parses a request rate: one of the presets low, medium and high,
// "unlimited" (or empty) or a number of requests per second
func rateLimiter(rstr string) (*rate.Limiter, error) {
	var perSecond float64
	rstr = strings.ToLower(strings.TrimSpace(rstr))
	switch rstr {
	case "low":
		perSecond = 5
	case "medium":
		perSecond = 50
	case "high":
		perSecond = 500
	case "unlimited", "0", "":
		// unlimited
		return rate.NewLimiter(rate.Inf, 0), nil
	default:
		n, err := strconv.Atoi(rstr)
		if err != nil || n <= 0 {
			return nil, errors.New("expected low, medium, high, unlimited or requests per second")
		}
		perSecond = float64(n)
	}
	return rate.NewLimiter(rate.Limit(perSecond), int(perSecond)*3), nil
}
