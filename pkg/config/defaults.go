// Package config defines default configuration and loads overrides through viper.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultFormat     = "text"
	DefaultConfigName = ".filealloc"
	EnvPrefix         = "FILEALLOC"
)

// Keys shared by flags, config files and environment variables.
const (
	KeyFiles         = "files"
	KeyNodes         = "nodes"
	KeyOutput        = "output"
	KeyFormat        = "format"
	KeySummary       = "summary"
	KeyHistory       = "history"
	KeyVerbose       = "verbose"
	KeyJSONLogs      = "json-logs"
	KeyOtelEndpoint  = "otel-endpoint"
	KeySkipTelemetry = "no-telemetry"
)

// Config holds the settings of a run.
type Config struct {
	// FilesPath and NodesPath are local paths or s3://bucket/key URLs.
	FilesPath string
	NodesPath string
	// OutputPath is where the placement is written. Empty or "-" means stdout.
	OutputPath string
	Format     string
	Summary    bool
	// HistoryPath enables the run ledger when set.
	HistoryPath string

	Verbose       bool
	JSONLogs      bool
	OtelEndpoint  string
	SkipTelemetry bool
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Format: DefaultFormat,
	}
}

// NewViper returns a viper instance with defaults and FILEALLOC_* env lookup.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault(KeyFormat, d.Format)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from v.
func Load(v *viper.Viper) Config {
	return Config{
		FilesPath:     v.GetString(KeyFiles),
		NodesPath:     v.GetString(KeyNodes),
		OutputPath:    v.GetString(KeyOutput),
		Format:        v.GetString(KeyFormat),
		Summary:       v.GetBool(KeySummary),
		HistoryPath:   v.GetString(KeyHistory),
		Verbose:       v.GetBool(KeyVerbose),
		JSONLogs:      v.GetBool(KeyJSONLogs),
		OtelEndpoint:  v.GetString(KeyOtelEndpoint),
		SkipTelemetry: v.GetBool(KeySkipTelemetry),
	}
}

// ReadFile merges a YAML config file into v. A missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}
