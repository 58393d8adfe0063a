package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath      = "config.toml"
	DefaultHTTPAddr        = ":3000"
	DefaultWebhookPath     = "/webhook"
	DefaultSignatureHeader = "X-Signature"
	DefaultMappingFile     = "company_channels.json"

	PlatformTelegram = "telegram"
	PlatformWhatsApp = "whatsapp"
)

type Config struct {
	Log        LogConfig        `toml:"log"`
	Server     ServerConfig     `toml:"server"`
	Bot        BotConfig        `toml:"bot"`
	Automation AutomationConfig `toml:"automation"`
	Tracker    TrackerConfig    `toml:"tracker"`
	Mapping    MappingConfig    `toml:"mapping"`
	Chat       ChatConfig       `toml:"chat"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// BotConfig drives inbound message classification.
type BotConfig struct {
	// MentionTokens are the literal forms of the bot identity detected in
	// group messages, the canonical @<number> plus any alternate
	// serializations.
	MentionTokens []string `toml:"mention_tokens"`
	// TriggerKeyword activates the direct-message route.
	TriggerKeyword string `toml:"trigger_keyword"`
}

// AutomationConfig names the endpoints events are forwarded to. MentionURL
// is required; DirectURL is optional and its absence turns the direct route
// into a logged no-op.
type AutomationConfig struct {
	MentionURL string `toml:"mention_url"`
	DirectURL  string `toml:"direct_url"`
}

// TrackerConfig governs inbound completion webhooks. An empty
// SignatureSecret accepts all webhooks unauthenticated; that is an explicit
// operator opt-in, not a default-secure posture.
type TrackerConfig struct {
	WebhookPath     string `toml:"webhook_path"`
	SignatureSecret string `toml:"signature_secret"`
	SignatureHeader string `toml:"signature_header"`
}

type MappingConfig struct {
	File string `toml:"file"`
}

type ChatConfig struct {
	Platform string         `toml:"platform"`
	Telegram TelegramConfig `toml:"telegram"`
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
}

type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
}

type WhatsAppConfig struct {
	AccessToken   string `toml:"access_token"`
	PhoneNumberID string `toml:"phone_number_id"`
	VerifyToken   string `toml:"verify_token"`
	AppSecret     string `toml:"app_secret"`
	WebhookPath   string `toml:"webhook_path"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Tracker: TrackerConfig{
			WebhookPath:     DefaultWebhookPath,
			SignatureHeader: DefaultSignatureHeader,
		},
		Mapping: MappingConfig{
			File: DefaultMappingFile,
		},
		Chat: ChatConfig{
			Platform: PlatformTelegram,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate enforces the settings the process cannot run without. A failure
// here is fatal at startup: running with an undefined forward target or an
// unidentifiable bot is worse than refusing to start.
func (c Config) Validate() error {
	if len(c.Bot.MentionTokens) == 0 {
		return fmt.Errorf("bot.mention_tokens must contain at least one token")
	}
	if strings.TrimSpace(c.Automation.MentionURL) == "" {
		return fmt.Errorf("automation.mention_url is required")
	}
	switch c.Chat.Platform {
	case PlatformTelegram:
		if strings.TrimSpace(c.Chat.Telegram.BotToken) == "" {
			return fmt.Errorf("chat.telegram.bot_token is required for platform %q", PlatformTelegram)
		}
	case PlatformWhatsApp:
		if strings.TrimSpace(c.Chat.WhatsApp.AccessToken) == "" {
			return fmt.Errorf("chat.whatsapp.access_token is required for platform %q", PlatformWhatsApp)
		}
		if strings.TrimSpace(c.Chat.WhatsApp.PhoneNumberID) == "" {
			return fmt.Errorf("chat.whatsapp.phone_number_id is required for platform %q", PlatformWhatsApp)
		}
	default:
		return fmt.Errorf("chat.platform must be %q or %q, got %q", PlatformTelegram, PlatformWhatsApp, c.Chat.Platform)
	}
	return nil
}
