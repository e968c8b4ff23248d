package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"devbills/internal/backend"
)

// EnvPrefix prefixes every environment override of the command line client.
const EnvPrefix = "DEVBILLS"

// Settings configures devbills-cli. Values come from flags, then
// DEVBILLS_* environment variables, then the optional config file.
type Settings struct {
	APIURL     string
	APITimeout time.Duration
	Backend    string
	DataDir    string

	CredentialsFile string

	FirebaseAPIKey     string
	FirebaseAuthDomain string
	FirebaseProjectID  string
	FirebaseAppID      string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

// BindFlags declares the global flags on fs and binds them to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("api-url", "http://localhost:3333", "Transactions API base URL")
	fs.Duration("api-timeout", 10*time.Second, "Timeout of each API call")
	fs.String("backend", string(backend.APIBackend), "Finance backend: "+strings.Join(backend.GetBackendTypeStrings(), "|"))
	fs.String("data-dir", "data", "Seed directory of the memory backend")
	fs.String("credentials", DefaultCredentialsFile(), "File holding the tokens saved by 'login'")
	fs.String("firebase-api-key", "", "Firebase web API key, used to refresh ID tokens")
	fs.String("firebase-auth-domain", "", "Firebase auth domain")
	fs.String("firebase-project-id", "", "Firebase project ID")
	fs.String("firebase-app-id", "", "Firebase app ID")
	fs.String("amqp-url", "", "AMQP broker URL for activity events")
	fs.String("amqp-exchange", "devbills", "AMQP exchange")
	fs.String("amqp-queue", "devbills.activity", "AMQP queue")
	fs.String("log-level", "warn", "Log level: debug|info|warn|error")
	fs.String("config", "", "Config file (default $HOME/.config/devbills/config.toml)")

	return v.BindPFlags(fs)
}

// NewViper returns a viper instance reading DEVBILLS_* variables, with
// dashes in keys mapped to underscores.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings reads the config file, when there is one, and returns the
// merged settings. A missing default config file is not an error.
func LoadSettings(v *viper.Viper) (Settings, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "devbills"))
		v.SetConfigName("config")
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	s := Settings{
		APIURL:             v.GetString("api-url"),
		APITimeout:         v.GetDuration("api-timeout"),
		Backend:            strings.ToLower(v.GetString("backend")),
		DataDir:            v.GetString("data-dir"),
		CredentialsFile:    v.GetString("credentials"),
		FirebaseAPIKey:     v.GetString("firebase-api-key"),
		FirebaseAuthDomain: v.GetString("firebase-auth-domain"),
		FirebaseProjectID:  v.GetString("firebase-project-id"),
		FirebaseAppID:      v.GetString("firebase-app-id"),
		AMQPURL:            v.GetString("amqp-url"),
		AMQPExchange:       v.GetString("amqp-exchange"),
		AMQPQueue:          v.GetString("amqp-queue"),
		LogLevel:           strings.ToLower(v.GetString("log-level")),
	}
	return s, nil
}

// BackendConfig maps the settings onto the finance backend factory.
func (s Settings) BackendConfig() backend.Config {
	return backend.Config{
		Type:          backend.BackendType(s.Backend),
		APIURL:        s.APIURL,
		APITimeout:    s.APITimeout,
		DataDirectory: s.DataDir,
	}
}

// DefaultCredentialsFile is $HOME/.config/devbills/credentials.json, or a
// file in the working directory when there is no home directory.
func DefaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "devbills-credentials.json"
	}
	return filepath.Join(home, ".config", "devbills", "credentials.json")
}
