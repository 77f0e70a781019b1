package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Discord  DiscordConfig
	Airtable AirtableConfig
	OTel     OTelConfig
	Env      string
	Port     string
}

type DiscordConfig struct {
	Token        string
	AppID        string
	GuildID      string
	CategoryID   string
	EmojiID      string
	CuratorRoles string
}

type AirtableConfig struct {
	APIKey          string
	BaseID          string
	SupplementTable string
	SharersTable    string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// Load loads configuration from environment variables.
// In development it also reads a local .env file when one exists.
func Load() (Config, error) {
	if getEnv("BOT_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:  getEnv("BOT_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		Discord: DiscordConfig{
			Token:        getEnv("DISCORD_TOKEN", ""),
			AppID:        getEnv("DISCORD_APP_ID", ""),
			GuildID:      getEnv("DISCORD_GUILD_ID", ""),
			CategoryID:   getEnv("DISCORD_CATEGORY_ID", ""),
			EmojiID:      getEnv("DISCORD_EMOJI_ID", ""),
			CuratorRoles: getEnv("DISCORD_CURATOR_ROLES", "*"),
		},
		Airtable: AirtableConfig{
			APIKey:          getEnv("AIRTABLE_API_KEY", ""),
			BaseID:          getEnv("AIRTABLE_BASE_ID", ""),
			SupplementTable: getEnv("AIRTABLE_SUPPLEMENT_TABLE", "Supplement"),
			SharersTable:    getEnv("AIRTABLE_SHARERS_TABLE", "Sharers"),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "supplement-bot"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
	}

	if cfg.Discord.Token == "" {
		return Config{}, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.Discord.GuildID == "" || cfg.Discord.CategoryID == "" {
		return Config{}, fmt.Errorf("DISCORD_GUILD_ID and DISCORD_CATEGORY_ID are required")
	}
	if cfg.Discord.EmojiID == "" {
		return Config{}, fmt.Errorf("DISCORD_EMOJI_ID is required")
	}
	if cfg.Airtable.APIKey == "" || cfg.Airtable.BaseID == "" {
		return Config{}, fmt.Errorf("AIRTABLE_API_KEY and AIRTABLE_BASE_ID are required")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
