package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reviewcrew/backend/internal/services"
)

type Config struct {
	Addr          string   `yaml:"addr"`
	DatabaseURL   string   `yaml:"database_url"`
	JWTSecret     string   `yaml:"jwt_secret"`
	TelegramToken string   `yaml:"telegram_token"`
	SchemaDir     string   `yaml:"schema_dir"`
	CacheTTL      Duration `yaml:"cache_ttl"`
	Payouts       Payouts  `yaml:"payouts"`
}

// Duration accepts time.ParseDuration strings ("30s", "72h") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Payouts mirrors services.Policy so operators can tune the amounts
// without a rebuild.
type Payouts struct {
	TaskReward          int64    `yaml:"task_reward"`
	MinWithdrawal       int64    `yaml:"min_withdrawal"`
	ReferralBonus       int64    `yaml:"referral_bonus"`
	AmbassadorThreshold int      `yaml:"ambassador_threshold"`
	AmbassadorPercent   int64    `yaml:"ambassador_percent"`
	ReplacementLimit    int      `yaml:"replacement_limit"`
	ReplacementWindow   Duration `yaml:"replacement_window"`
}

// Load builds the config from defaults, overlays the YAML file at path
// if given, and lets environment variables win for the secrets.
func Load(path string) (*Config, error) {
	p := services.DefaultPolicy()
	cfg := &Config{
		Addr:      ":8080",
		SchemaDir: "schemas",
		CacheTTL:  Duration(5 * time.Minute),
		Payouts: Payouts{
			TaskReward:          p.TaskReward,
			MinWithdrawal:       p.MinWithdrawal,
			ReferralBonus:       p.ReferralBonus,
			AmbassadorThreshold: p.AmbassadorThreshold,
			AmbassadorPercent:   p.AmbassadorPercent,
			ReplacementLimit:    p.ReplacementLimit,
			ReplacementWindow:   Duration(p.ReplacementWindow),
		},
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TelegramToken = getEnv("TELEGRAM_TOKEN", cfg.TelegramToken)
	cfg.Addr = getEnv("ADDR", cfg.Addr)

	return cfg, nil
}

// Policy converts the payout section into the service policy.
func (c *Config) Policy() services.Policy {
	return services.Policy{
		TaskReward:          c.Payouts.TaskReward,
		MinWithdrawal:       c.Payouts.MinWithdrawal,
		ReferralBonus:       c.Payouts.ReferralBonus,
		AmbassadorThreshold: c.Payouts.AmbassadorThreshold,
		AmbassadorPercent:   c.Payouts.AmbassadorPercent,
		ReplacementLimit:    c.Payouts.ReplacementLimit,
		ReplacementWindow:   c.Payouts.ReplacementWindow.Std(),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
