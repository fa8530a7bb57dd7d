// Package config provides the configuration schema, loader, file registry
// and change watcher for the sprachlog voice-entry assistant.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration document, loaded from YAML.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Files     []FileEntry     `yaml:"files"`
	Backup    BackupConfig    `yaml:"backup"`
	Glossar   GlossarConfig   `yaml:"glossar"`
}

// ServerConfig holds process-wide settings.
type ServerConfig struct {
	// LogLevel selects the slog verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint. Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// ProvidersConfig selects and configures the external service providers.
type ProvidersConfig struct {
	// STT configures the speech-to-text provider.
	STT ProviderEntry `yaml:"stt"`

	// Parser configures the LLM that turns transcripts into activity records.
	Parser ProviderEntry `yaml:"parser"`
}

// ProviderEntry configures one external provider.
type ProviderEntry struct {
	// Name identifies the provider implementation, e.g. "openai".
	Name string `yaml:"name"`

	// APIKey authenticates against the provider. Prefer supplying it via
	// the provider's environment variable instead of the config file.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model"`
}

// FileEntry registers one client/year-scoped workbook file.
type FileEntry struct {
	// Client is the client name this workbook belongs to.
	Client string `yaml:"client"`

	// Year scopes the workbook to one calendar year.
	Year int `yaml:"year"`

	// Path is the absolute filesystem location of the workbook.
	Path string `yaml:"path"`

	// Active marks the workbook as the current one for (Client, Year).
	// At most one entry per (Client, Year) pair may be active.
	Active bool `yaml:"active"`
}

// BackupConfig tunes the backup manager.
type BackupConfig struct {
	// Retention caps how many timestamped backups are kept per file.
	// Zero means the default of 50.
	Retention int `yaml:"retention"`
}

// GlossarConfig tunes term normalization and bootstrapping.
type GlossarConfig struct {
	// FuzzyThreshold is the minimum normalized Levenshtein similarity for a
	// fuzzy match, in (0, 1]. Zero means the default of 0.75. The same value
	// drives clustering during glossar bootstrap.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
}
