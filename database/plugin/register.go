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

package plugin

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob     PluginType = 1
	PluginTypeMetadata PluginType = 2
)

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return ""
	}
}

// PluginEntry describes a registered storage plugin
type PluginEntry struct {
	Type               PluginType
	Name               string
	Description        string
	NewFromOptionsFunc func() Plugin
	Options            []PluginOption
}

var pluginEntries []PluginEntry

// Register adds a plugin entry to the registry. It is meant to be called
// from the init() function of each plugin package
func Register(pluginEntry PluginEntry) {
	pluginEntries = append(pluginEntries, pluginEntry)
}

// PopulateCmdlineOptions adds a flag for every registered plugin option
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, pluginEntry := range pluginEntries {
		for _, option := range pluginEntry.Options {
			if err := option.AddToFlagSet(fs, PluginTypeName(pluginEntry.Type), pluginEntry.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options from the environment. Variables
// are named QUADVOTE_<TYPE>_<PLUGIN>_<OPTION>, with dashes replaced by
// underscores, and take precedence over an option's custom variable
func ProcessEnvVars() error {
	for _, pluginEntry := range pluginEntries {
		envVarPrefix := fmt.Sprintf(
			"%s_%s_%s_",
			envVarBasePrefix,
			strings.ToUpper(PluginTypeName(pluginEntry.Type)),
			strings.ToUpper(strings.ReplaceAll(pluginEntry.Name, "-", "_")),
		)
		for _, option := range pluginEntry.Options {
			envVarName := envVarPrefix + strings.ToUpper(
				strings.ReplaceAll(option.Name, "-", "_"),
			)
			for _, name := range []string{option.CustomEnvVar, envVarName} {
				if name == "" {
					continue
				}
				if value, ok := os.LookupEnv(name); ok {
					if err := option.ProcessEnvVar(value); err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
				}
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from a parsed config file. The map is
// keyed by plugin type name, then plugin name, then option name
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for _, pluginEntry := range pluginEntries {
		pluginTypeData, ok := pluginConfig[PluginTypeName(pluginEntry.Type)]
		if !ok {
			continue
		}
		pluginData, ok := pluginTypeData[pluginEntry.Name]
		if !ok {
			continue
		}
		for _, option := range pluginEntry.Options {
			optionData, ok := pluginData[option.Name]
			if !ok {
				continue
			}
			if err := option.ProcessConfig(optionData); err != nil {
				return fmt.Errorf(
					"%s.%s.%s: %w",
					PluginTypeName(pluginEntry.Type),
					pluginEntry.Name,
					option.Name,
					err,
				)
			}
		}
	}
	return nil
}

// GetPlugins returns the registered plugin entries of the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	ret := []PluginEntry{}
	for _, pluginEntry := range pluginEntries {
		if pluginEntry.Type == pluginType {
			ret = append(ret, pluginEntry)
		}
	}
	return ret
}

// GetPlugin returns a new instance of the named plugin, or nil if no such
// plugin is registered
func GetPlugin(pluginType PluginType, name string) Plugin {
	for _, pluginEntry := range pluginEntries {
		if pluginEntry.Type == pluginType && pluginEntry.Name == name {
			return pluginEntry.NewFromOptionsFunc()
		}
	}
	return nil
}
