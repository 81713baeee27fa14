package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Armin-kho/fx-crossrates/internal/utils"
)

type Config struct {
	// Rate provider (exchangeratesapi-compatible).
	APIBaseURL   string        `mapstructure:"api_base_url"`
	APIKey       string        `mapstructure:"api_key"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	FetchRetries int           `mapstructure:"fetch_retries"`

	DataDir   string `mapstructure:"data_dir"`
	RecordKey string `mapstructure:"record_key"`
	UpdatedBy string `mapstructure:"updated_by"`

	Timezone          string `mapstructure:"timezone"`
	DivisionPrecision int32  `mapstructure:"division_precision"`

	// Operator channel. Without a bot token messages only go to the log.
	BotToken        string  `mapstructure:"bot_token"`
	OperatorChatIDs []int64 `mapstructure:"-"`
	JalaliDates     bool    `mapstructure:"jalali_dates"`

	PushgatewayURL string `mapstructure:"pushgateway_url"`

	// If true, extra debug lines are logged.
	Debug bool `mapstructure:"debug"`
}

func DefaultDataDir() string {
	if v := os.Getenv("FXR_DATA_DIR"); v != "" {
		return v
	}
	return "/var/lib/fx-crossrates"
}

func DefaultConfigPath() string {
	if v := os.Getenv("FXR_CONFIG"); v != "" {
		return v
	}
	return "/etc/fx-crossrates/config.json"
}

// DBPath is where the key/value store lives.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "rates.db")
}

// Load reads the JSON config at path (a missing file is fine), then applies
// .env and environment overrides (FXR_* plus the legacy names) and defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("api_base_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("http_timeout", 12*time.Second)
	v.SetDefault("fetch_retries", 3)
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("record_key", "dailyExchangeRates")
	v.SetDefault("updated_by", "system")
	v.SetDefault("timezone", utils.DefaultTimezone)
	v.SetDefault("division_precision", 20)
	v.SetDefault("bot_token", "")
	v.SetDefault("operator_chat_ids", "")
	v.SetDefault("jalali_dates", false)
	v.SetDefault("pushgateway_url", "")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("FXR")
	v.AutomaticEnv()
	_ = v.BindEnv("api_base_url", "FXR_API_BASE_URL", "EXCHANGE_RATES_API_BASE_URL")
	_ = v.BindEnv("api_key", "FXR_API_KEY", "EXCHANGE_RATES_API_KEY")
	_ = v.BindEnv("bot_token", "FXR_BOT_TOKEN", "BOT_TOKEN")

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	ids, err := parseIDs(v.Get("operator_chat_ids"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid operator_chat_ids: %w", err)
	}
	cfg.OperatorChatIDs = ids
	cfg.DataDir = filepath.Clean(cfg.DataDir)

	if err := cfg.validate(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate(path string) error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("missing api_base_url (set in %s or EXCHANGE_RATES_API_BASE_URL env)", path)
	}
	if c.APIKey == "" {
		return fmt.Errorf("missing api_key (set in %s or EXCHANGE_RATES_API_KEY env)", path)
	}
	if c.BotToken != "" && len(c.OperatorChatIDs) == 0 {
		return errors.New("bot_token is set but operator_chat_ids is empty")
	}
	if c.DivisionPrecision < 1 || c.DivisionPrecision > 64 {
		return fmt.Errorf("division_precision must be between 1 and 64, got %d", c.DivisionPrecision)
	}
	if c.HTTPTimeout < time.Second {
		return fmt.Errorf("http_timeout must be at least 1s (use a duration string like \"12s\"), got %s", c.HTTPTimeout)
	}
	if c.FetchRetries < 0 {
		return fmt.Errorf("fetch_retries must not be negative, got %d", c.FetchRetries)
	}
	if _, err := utils.LoadLocation(c.Timezone); err != nil {
		return err
	}
	return nil
}

// parseIDs accepts a JSON array from the file or a comma list from env.
func parseIDs(raw any) ([]int64, error) {
	var parts []string
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		parts = strings.Split(t, ",")
	case []any:
		for _, p := range t {
			// encoding/json hands numbers over as float64; chat ids fit in 53 bits.
			if f, ok := p.(float64); ok {
				parts = append(parts, strconv.FormatFloat(f, 'f', -1, 64))
				continue
			}
			parts = append(parts, fmt.Sprint(p))
		}
	case []string:
		parts = t
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}

	var out []int64
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chat id %q: %w", part, err)
		}
		out = append(out, id)
	}
	return out, nil
}
