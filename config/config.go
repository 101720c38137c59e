package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/classchat/classchat/globals"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultHistoryPageSize = 50
	defaultSearchPageSize  = 20
	defaultBotTimeoutSecs  = 15
	defaultLastOnlineCron  = "@every 1m"
)

// Config is the global configuration object which is filled via the
// configuration file, environment variables (CLASSCHAT_ prefix) and flags.
type Config struct {
	HistoryConfig     HistoryConfig     `mapstructure:"history"`
	AuthConfig        AuthConfig        `mapstructure:"auth"`
	OIDCConfigs       []OIDCConfig      `mapstructure:"oidc"`
	PersistenceConfig PersistenceConfig `mapstructure:"persistence"`
	BotConfig         BotConfig         `mapstructure:"bot"`
	PresenceConfig    PresenceConfig    `mapstructure:"presence"`
	LogLevel          string            `mapstructure:"log_level"`
}

// HistoryConfig configures the page sizes of the cursor-paginated history
// that is sent to newly joined sessions and served via the HTTP API.
type HistoryConfig struct {
	PageSize       int `mapstructure:"page_size"`
	SearchPageSize int `mapstructure:"search_page_size"`
}

// AuthConfig configures the bearer token verification. If JWTSecret is set,
// tokens are verified as HS256-signed JWTs. Otherwise the OIDC providers
// configured in OIDCConfigs are used.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// An OIDCConfig object configures an OpenID Connect provider that is used to
// authenticate users. Users provide an ID token and the name of the provider,
// the authentication is then performed via verification of the token.
type OIDCConfig struct {
	Name        string `mapstructure:"name"`
	ClientId    string `mapstructure:"client_id"`
	ProviderUrl string `mapstructure:"provider_url"`
}

// PersistenceConfig configures the relational store. Type is either
// "postgres" or "sqlite", DSN is passed to the respective driver.
type PersistenceConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`
}

// BotConfig configures the automated responder. Provider is "openai" (any
// chat-completions compatible endpoint) or "ollama"; an empty APIKey for the
// openai provider marks the responder unavailable.
type BotConfig struct {
	Provider       string `mapstructure:"provider"`
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PresenceConfig configures the periodic sweep that stamps last_online for
// all currently connected users.
type PresenceConfig struct {
	LastOnlineCron string `mapstructure:"last_online_cron"`
}

func GetFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("configuration", pflag.ContinueOnError)
	flagSet.String("log-level", "", "log level (TRACE/DEBUG/INFO/WARN/ERROR)")
	return flagSet
}

// wordSepNormalizeFunc allows for normalization of the flag names (which use - as a separator)
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.Replace(name, "-", "_", -1)
	return pflag.NormalizedName(name)
}

// ReadConfiguration reads and parses the configuration located at configPath,
// which can either point to a single TOML file or to a directory, in which
// case all *.toml files in this directory are concatenated. It returns a
// Config object.
func ReadConfiguration(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	cfg := Config{}
	flagSet.SetNormalizeFunc(wordSepNormalizeFunc)
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("history.page_size", defaultHistoryPageSize)
	viper.SetDefault("history.search_page_size", defaultSearchPageSize)
	viper.SetDefault("bot.timeout_seconds", defaultBotTimeoutSecs)
	viper.SetDefault("presence.last_online_cron", defaultLastOnlineCron)
	err := viper.BindPFlags(flagSet)
	if err != nil {
		globals.AppLogger.Error("could not bind flags (ignored)", "error", err)
	}
	viper.SetEnvPrefix("CLASSCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if configPath != "" {
		fi, err := os.Stat(configPath)
		if err != nil {
			return nil, err
		}
		contents := make([]byte, 0)
		files := []string{configPath}
		if fi.IsDir() {
			files, err = filepath.Glob(filepath.Join(configPath, "*.toml"))
			if err != nil {
				return nil, err
			}
		}
		for _, configFile := range files {
			fileContents, err := os.ReadFile(configFile)
			if err != nil {
				return nil, err
			}
			contents = append(contents, fileContents...)
			contents = append(contents, '\n')
		}
		viper.SetConfigType("toml")
		err = viper.ReadConfig(bytes.NewBuffer(contents))
		if err != nil {
			globals.AppLogger.Error("could not read config:", "error", err)
		}
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		globals.AppLogger.Error("could not unmarshal config:", "error", err)
	}

	return &cfg, nil
}
