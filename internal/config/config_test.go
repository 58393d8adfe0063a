package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg, _ := Load(filepath.Join("does", "not", "exist.toml"))
	cfg.Bot.MentionTokens = []string{"@5218123970836"}
	cfg.Automation.MentionURL = "https://hook.example.com/a"
	cfg.Chat.Telegram.BotToken = "123:abc"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultWebhookPath, cfg.Tracker.WebhookPath)
	assert.Equal(t, DefaultSignatureHeader, cfg.Tracker.SignatureHeader)
	assert.Equal(t, DefaultMappingFile, cfg.Mapping.File)
	assert.Equal(t, PlatformTelegram, cfg.Chat.Platform)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9999"

[bot]
mention_tokens = ["@5218123970836", "@209964509446306"]
trigger_keyword = "SEMSA"

[automation]
mention_url = "https://hook.example.com/mention"

[tracker]
signature_secret = "s3cret"

[chat]
platform = "whatsapp"

[chat.whatsapp]
access_token = "tok"
phone_number_id = "123"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, []string{"@5218123970836", "@209964509446306"}, cfg.Bot.MentionTokens)
	assert.Equal(t, "SEMSA", cfg.Bot.TriggerKeyword)
	assert.Equal(t, "s3cret", cfg.Tracker.SignatureSecret)
	require.NoError(t, cfg.Validate())
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRequiredSettings(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	missingTokens := validConfig()
	missingTokens.Bot.MentionTokens = nil
	assert.Error(t, missingTokens.Validate())

	missingURL := validConfig()
	missingURL.Automation.MentionURL = "  "
	assert.Error(t, missingURL.Validate())

	missingToken := validConfig()
	missingToken.Chat.Telegram.BotToken = ""
	assert.Error(t, missingToken.Validate())

	badPlatform := validConfig()
	badPlatform.Chat.Platform = "irc"
	assert.Error(t, badPlatform.Validate())

	whatsapp := validConfig()
	whatsapp.Chat.Platform = PlatformWhatsApp
	assert.Error(t, whatsapp.Validate())
	whatsapp.Chat.WhatsApp.AccessToken = "tok"
	whatsapp.Chat.WhatsApp.PhoneNumberID = "123"
	require.NoError(t, whatsapp.Validate())
}
