package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

const (
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"

	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

var (
	ErrMissingToken     = errors.New("missing token")
	ErrUnknownPlatform  = errors.New("unknown platform")
	ErrUnknownBackend   = errors.New("unknown store backend")
	ErrMissingDatabase  = errors.New("DATABASE_URL is required for the postgres store")
	ErrInvalidHistory   = errors.New("HISTORY_LIMIT must be positive")
	ErrInvalidMaxTokens = errors.New("MAX_TOKENS must not be negative")
)

// Config holds all configuration from environment variables.
type Config struct {
	Platform      string `envconfig:"PLATFORM" default:"discord"`
	DiscordToken  string `envconfig:"DISCORD_TOKEN"`
	TelegramToken string `envconfig:"TELEGRAM_API_TOKEN"`

	APIKey            string        `envconfig:"OPENROUTER_API_KEY" required:"true"`
	BaseURL           string        `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
	Model             string        `envconfig:"OPENROUTER_MODEL" default:"anthropic/claude-3.5-sonnet"`
	MaxTokens         int           `envconfig:"MAX_TOKENS" default:"500"`
	Temperature       float64       `envconfig:"TEMPERATURE" default:"1.0"`
	CompletionTimeout time.Duration `envconfig:"COMPLETION_TIMEOUT" default:"0s"`

	HistoryLimit int    `envconfig:"HISTORY_LIMIT" default:"5"`
	ErrorReply   string `envconfig:"ERROR_REPLY" default:"❌ Error generating response."`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"memory"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	BoltPath     string `envconfig:"BOLT_PATH" default:"sanga.db"`

	// Port enables the liveness endpoint when set.
	Port string `envconfig:"PORT"`

	// Path to config.toml file
	ConfigFile string `envconfig:"CONFIG_FILE" default:"config.toml"`

	// Path to context directory containing .md files appended to the persona
	ContextDir string `envconfig:"CONTEXT_DIR" default:".context"`

	// Prompts loaded from config.toml
	Prompts Prompts

	// Context loaded from .context/*.md files
	Context string
}

// Prompts holds system prompts loaded from config.toml.
type Prompts struct {
	Persona string `toml:"persona"`
}

// FileConfig represents the structure of config.toml.
type FileConfig struct {
	Prompts Prompts `toml:"prompts"`
}

// DefaultPrompts provides fallback prompts if config.toml is not found.
var DefaultPrompts = Prompts{
	Persona: DefaultPersona,
}

// DefaultPersona is the Krishna-conscious directive the bot answers with.
const DefaultPersona = `You are a Krishna-conscious assistant. Always reply from a Krishna-conscious point of view.
Begin with or include the greeting "Hare Kṛṣṇa" and ask for obeisances. Be humble and polite.
Answer short, precise, friendly (2–12 sentences), and not like a search engine.
Use Krishna-conscious teachings and real-world examples when helpful.
If you cannot answer succinctly from Krishna-conscious perspective, say you cannot answer.
Do not invent sources or long encyclopedic replies. Also use actual Sanskrit verses for references.

When quoting verses:
- Quote the Sanskrit verse in bold.
- Provide proper IAST transliteration below it.
- If helpful, briefly explain its meaning in simple terms.
- Only cite verses found in ISKCON-verified or Gaudiya Vaishnava–authentic sources.
- Do not fabricate verses.

For reference and doctrinal consistency, prioritize content from:
https://bhaktivinodainstitute.org/
https://gosai.com/
https://www.rupanugabhajanashram.com/
https://purebhaktibase.com/

Also refer to the following authorized texts when relevant:
Jiva_Goswami_Brahma_Samhita_Commentary
Baladeva_Vidyabhusana_Sri_Vedanta_Syamantaka
Baladeva_Vidyabhusana_Prameya_Ratnavali
Jiva_Goswami_Sri_Bhagavat_Sandarbha
Sri Sarasvati Samlapa
TheChaitanyaVaishnavaVedanta
Jiva_Goswami_Sri_Paramatma_Sandarbha
Prabodhananda_Sarasvati_Sri_Caitanya_Candramrta
Baladeva_Vidyabhusana_Sri_Vedanta-sutra
Jiva_Goswami_Sri_Priti_Sandarbha
Jiva_Goswami_Sri_Bhakti_Sandarbha
Jiva_Goswami_Sri_Tattva_Sandarbha
Jiva_Goswami_Sri_Krishna_Sandarbha
The-Lives-of-the-Vaisnava-Saints_Steven-Rosen
Sectarianism - Party Spirit and the true Sri Gauranga Samaja

Do not reference speculative, non-Gaudiya, or non-ISKCON sources.
If authentic verification is not possible, state that clearly instead of guessing.`

// LoadDotEnv loads variables from .env files without overwriting ones
// already present in the environment. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadEnv loads the configuration from environment variables.
func (c Config) LoadEnv() (Config, error) {
	cfg := c

	if err := envconfig.Process("", &cfg); err != nil {
		return c, err
	}

	return cfg, nil
}

// LoadFile loads prompts from config.toml file.
func (c *Config) LoadFile() error {
	configPath := c.ConfigFile
	if !filepath.IsAbs(configPath) {
		// Try current directory first, then the executable's directory
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			execPath, err := os.Executable()
			if err == nil {
				configPath = filepath.Join(filepath.Dir(execPath), c.ConfigFile)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		c.Prompts = DefaultPrompts
		return nil
	}

	var fileConfig FileConfig
	if _, err := toml.DecodeFile(configPath, &fileConfig); err != nil {
		return fmt.Errorf("failed to decode %s: %w", configPath, err)
	}

	c.Prompts = fileConfig.Prompts
	if strings.TrimSpace(c.Prompts.Persona) == "" {
		c.Prompts.Persona = DefaultPrompts.Persona
	}

	return nil
}

// LoadContext loads all .md files from the context directory and concatenates them.
func (c *Config) LoadContext() error {
	if _, err := os.Stat(c.ContextDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.ContextDir, "*.md"))
	if err != nil {
		return fmt.Errorf("failed to glob context files: %w", err)
	}

	if len(files) == 0 {
		return nil
	}

	var parts []string
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read context file %s: %w", file, err)
		}
		parts = append(parts, string(content))
	}

	c.Context = strings.Join(parts, "\n\n---\n\n")

	return nil
}

// Validate checks the settings that depend on each other.
func (c *Config) Validate() error {
	switch c.Platform {
	case PlatformDiscord:
		if c.DiscordToken == "" {
			return fmt.Errorf("%w: DISCORD_TOKEN", ErrMissingToken)
		}
	case PlatformTelegram:
		if c.TelegramToken == "" {
			return fmt.Errorf("%w: TELEGRAM_API_TOKEN", ErrMissingToken)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, c.Platform)
	}

	switch c.StoreBackend {
	case BackendMemory, BackendBolt:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabase
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.StoreBackend)
	}

	if c.HistoryLimit <= 0 {
		return ErrInvalidHistory
	}
	if c.MaxTokens < 0 {
		return ErrInvalidMaxTokens
	}

	return nil
}

// Persona returns the persona prompt with reference context appended.
func (c *Config) Persona() string {
	persona := c.Prompts.Persona
	if persona == "" {
		persona = DefaultPersona
	}
	if c.Context == "" {
		return persona
	}
	return persona + "\n\n## Reference Material\n\n" + c.Context
}

func NewConfig() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	var cfg Config
	loadedCfg, err := cfg.LoadEnv()
	if err != nil {
		return nil, err
	}

	if err := loadedCfg.LoadFile(); err != nil {
		return nil, err
	}

	if err := loadedCfg.LoadContext(); err != nil {
		return nil, err
	}

	if err := loadedCfg.Validate(); err != nil {
		return nil, err
	}

	return &loadedCfg, nil
}

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(
			NewConfig,
		),
	)
}
