package backend

import (
	"fmt"

	"devbills/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.APIBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.APIBackend)
	}

	return Config{
		Type:          backendType,
		APIURL:        appConfig.APIURL,
		APITimeout:    appConfig.APITimeout,
		DataDirectory: appConfig.DataDir,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type == APIBackend && c.APIURL == "" {
		return fmt.Errorf("API URL is required for api backend")
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{APIBackend.String(), MemoryBackend.String()}
}
