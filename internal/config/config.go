// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/quadvote/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "quadvote.config"

const (
	DefaultBlobPlugin          = "badger"
	DefaultMetadataPlugin      = "sqlite"
	DefaultShutdownTimeout     = "30s"
	DefaultProposalPolicy      = "admin"
	DefaultCredits             = 100
	DefaultMaxVotesPerBallot   = 10000
	DefaultExpirySweepInterval = "1m"
	DefaultConflictRetries     = 3
)

// ErrPluginListRequested is returned when the user asks for the list of
// available plugins instead of a plugin name
var ErrPluginListRequested = errors.New("plugin list requested")

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config   *yaml.Node                `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	BlobPlugin          string   `yaml:"blobPlugin"          envconfig:"QUADVOTE_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin      string   `yaml:"metadataPlugin"      envconfig:"QUADVOTE_DATABASE_METADATA_PLUGIN"`
	DatabasePath        string   `yaml:"databasePath"        split_words:"true"`
	BindAddr            string   `yaml:"bindAddr"            split_words:"true"`
	ApiPort             uint     `yaml:"apiPort"             split_words:"true"`
	CorsOrigins         []string `yaml:"corsOrigins"         split_words:"true"`
	MetricsPort         uint     `yaml:"metricsPort"         split_words:"true"`
	ShutdownTimeout     string   `yaml:"shutdownTimeout"     split_words:"true"`
	ProposalPolicy      string   `yaml:"proposalPolicy"      split_words:"true"`
	DefaultCredits      uint64   `yaml:"defaultCredits"      split_words:"true"`
	MaxVotesPerBallot   uint64   `yaml:"maxVotesPerBallot"   split_words:"true"`
	VotingPeriod        string   `yaml:"votingPeriod"        split_words:"true"`
	ExpirySweepInterval string   `yaml:"expirySweepInterval" split_words:"true"`
	ConflictRetries     int      `yaml:"conflictRetries"     split_words:"true"`
	TracingEnabled      bool     `yaml:"tracingEnabled"      split_words:"true"`
	TracingStdout       bool     `yaml:"tracingStdout"       split_words:"true"`
}

// Durations parses the duration-valued settings. An empty voting period
// means proposals never expire
func (c *Config) Durations() (votingPeriod, sweepInterval, shutdownTimeout time.Duration, err error) {
	if c.VotingPeriod != "" {
		votingPeriod, err = time.ParseDuration(c.VotingPeriod)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid votingPeriod: %w", err)
		}
		if votingPeriod < 0 {
			return 0, 0, 0, fmt.Errorf("invalid votingPeriod: %s", c.VotingPeriod)
		}
	}
	sweepInterval, err = time.ParseDuration(c.ExpirySweepInterval)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid expirySweepInterval: %w", err)
	}
	shutdownTimeout, err = time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid shutdownTimeout: %w", err)
	}
	return votingPeriod, sweepInterval, shutdownTimeout, nil
}

// ListPlugins prints the available plugins when the blob or metadata plugin
// name is "list". It returns ErrPluginListRequested when it printed anything
func (c *Config) ListPlugins() error {
	listed := false
	if c.BlobPlugin == "list" {
		fmt.Println("Available blob plugins:")
		for _, p := range plugin.GetPlugins(plugin.PluginTypeBlob) {
			fmt.Printf("  %s: %s\n", p.Name, p.Description)
		}
		listed = true
	}
	if c.MetadataPlugin == "list" {
		fmt.Println("Available metadata plugins:")
		for _, p := range plugin.GetPlugins(plugin.PluginTypeMetadata) {
			fmt.Printf("  %s: %s\n", p.Name, p.Description)
		}
		listed = true
	}
	if listed {
		return ErrPluginListRequested
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		BlobPlugin:          DefaultBlobPlugin,
		MetadataPlugin:      DefaultMetadataPlugin,
		DatabasePath:        ".quadvote",
		BindAddr:            "0.0.0.0",
		ApiPort:             8080,
		MetricsPort:         12799,
		ShutdownTimeout:     DefaultShutdownTimeout,
		ProposalPolicy:      DefaultProposalPolicy,
		DefaultCredits:      DefaultCredits,
		MaxVotesPerBallot:   DefaultMaxVotesPerBallot,
		ExpirySweepInterval: DefaultExpirySweepInterval,
		ConflictRetries:     DefaultConflictRetries,
	}
}

var globalConfig = defaultConfig()

// findConfigFile returns the first config file found in the user and system
// search paths, or an empty string
func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".quadvote", "quadvote.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/quadvote/quadvote.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}
	// Environment overrides the config file
	if err := envconfig.Process("quadvote", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	switch globalConfig.ProposalPolicy {
	case "":
		globalConfig.ProposalPolicy = DefaultProposalPolicy
	case "admin", "open":
	default:
		return nil, fmt.Errorf(
			"invalid proposalPolicy: %q (must be 'admin' or 'open')",
			globalConfig.ProposalPolicy,
		)
	}
	if globalConfig.ConflictRetries < 0 {
		return nil, fmt.Errorf(
			"invalid conflictRetries: %d",
			globalConfig.ConflictRetries,
		)
	}
	if _, _, _, err := globalConfig.Durations(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// Plugin sections live beside the main config, so parse into a wrapper first
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Config != nil {
		// Overlay the config section onto the defaults. Keys the section
		// leaves out keep their current values
		if err := tempCfg.Config.Decode(globalConfig); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else {
		// Flat file with top-level settings
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}

	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			name, section := splitPluginSection("blob", tempCfg.Database.Blob)
			if name != "" {
				globalConfig.BlobPlugin = name
			}
			mergePluginSection(pluginConfig, "blob", section)
		}
		if tempCfg.Database.Metadata != nil {
			name, section := splitPluginSection(
				"metadata",
				tempCfg.Database.Metadata,
			)
			if name != "" {
				globalConfig.MetadataPlugin = name
			}
			mergePluginSection(pluginConfig, "metadata", section)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// splitPluginSection pulls the selected plugin name out of a database.blob
// or database.metadata section and returns the per-plugin option maps
func splitPluginSection(
	pluginType string,
	section map[string]any,
) (string, map[string]map[string]any) {
	var name string
	if pluginVal, ok := section["plugin"].(string); ok {
		name = pluginVal
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			converted := make(map[string]any, len(val))
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					converted[keyStr] = vv
				}
			}
			ret[k] = converted
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				pluginType,
				k,
				v,
			)
		}
	}
	return name, ret
}

func mergePluginSection(
	pluginConfig map[string]map[string]map[string]any,
	pluginType string,
	section map[string]map[string]any,
) {
	if pluginConfig[pluginType] == nil {
		pluginConfig[pluginType] = section
		return
	}
	maps.Copy(pluginConfig[pluginType], section)
}

func GetConfig() *Config {
	return globalConfig
}
