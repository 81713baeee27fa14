package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `{
		"api_base_url": "https://api.example.test/v1",
		"api_key": "k",
		"data_dir": "/tmp/fx//data/",
		"bot_token": "123:abc",
		"operator_chat_ids": [11, -1001234567890],
		"http_timeout": "30s",
		"division_precision": 28,
		"jalali_dates": true
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.test/v1", cfg.APIBaseURL)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "/tmp/fx/data", cfg.DataDir)
	assert.Equal(t, "/tmp/fx/data/rates.db", cfg.DBPath())
	assert.Equal(t, []int64{11, -1001234567890}, cfg.OperatorChatIDs)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, int32(28), cfg.DivisionPrecision)
	assert.True(t, cfg.JalaliDates)

	// defaults
	assert.Equal(t, "Asia/Jerusalem", cfg.Timezone)
	assert.Equal(t, "dailyExchangeRates", cfg.RecordKey)
	assert.Equal(t, "system", cfg.UpdatedBy)
	assert.Equal(t, 3, cfg.FetchRetries)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("EXCHANGE_RATES_API_BASE_URL", "https://legacy.example.test")
	t.Setenv("EXCHANGE_RATES_API_KEY", "legacy-key")
	t.Setenv("FXR_DATA_DIR", "/srv/fx")
	t.Setenv("FXR_BOT_TOKEN", "1:x")
	t.Setenv("FXR_OPERATOR_CHAT_IDS", "5, 6")
	t.Setenv("FXR_HTTP_TIMEOUT", "5s")
	t.Setenv("FXR_DEBUG", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.test", cfg.APIBaseURL)
	assert.Equal(t, "legacy-key", cfg.APIKey)
	assert.Equal(t, "/srv/fx", cfg.DataDir)
	assert.Equal(t, []int64{5, 6}, cfg.OperatorChatIDs)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.Debug)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"api_base_url":"https://file.example.test","api_key":"file-key","timezone":"UTC"}`)
	t.Setenv("FXR_API_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "https://file.example.test", cfg.APIBaseURL)
	assert.Equal(t, "UTC", cfg.Timezone)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"no base url":    `{"api_key":"k"}`,
		"no key":         `{"api_base_url":"https://x.test"}`,
		"token no chats": `{"api_base_url":"https://x.test","api_key":"k","bot_token":"1:x"}`,
		"bad timezone":   `{"api_base_url":"https://x.test","api_key":"k","timezone":"Nowhere/City"}`,
		"bad precision":  `{"api_base_url":"https://x.test","api_key":"k","division_precision":0}`,
		"bad retries":    `{"api_base_url":"https://x.test","api_key":"k","fetch_retries":-1}`,
		"bad chat id":    `{"api_base_url":"https://x.test","api_key":"k","operator_chat_ids":["abc"]}`,
		"bare timeout":   `{"api_base_url":"https://x.test","api_key":"k","http_timeout":12}`,
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadBrokenJSON(t *testing.T) {
	_, err := Load(writeConfig(t, `{"api_key":`))
	assert.Error(t, err)
}
