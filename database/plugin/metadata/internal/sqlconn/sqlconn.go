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

// Package sqlconn holds the connection settings shared by the metadata
// plugins that talk to a SQL server over the network
package sqlconn

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blinklabs-io/quadvote/database/plugin"
)

// Settings describes how to reach a SQL server. A non-empty DSN replaces
// every other field when connecting
type Settings struct {
	Host     string
	Port     uint64
	User     string
	Password string
	Database string
	SSLMode  string
	TimeZone string
	DSN      string
}

// WithDefaults returns a copy of s with empty fields taken from defaults.
// The password is never defaulted
func (s Settings) WithDefaults(defaults Settings) Settings {
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&s.Host, defaults.Host)
	fill(&s.User, defaults.User)
	fill(&s.Database, defaults.Database)
	fill(&s.SSLMode, defaults.SSLMode)
	fill(&s.TimeZone, defaults.TimeZone)
	if s.Port == 0 {
		s.Port = defaults.Port
	}
	return s
}

// Addr returns host:port
func (s Settings) Addr() string {
	return s.Host + ":" + strconv.FormatUint(s.Port, 10)
}

// ExplicitDSN returns the configured DSN with surrounding space removed
func (s Settings) ExplicitDSN() string {
	return strings.TrimSpace(s.DSN)
}

// Registration binds a Settings value to the command line flags and
// environment variables of one registered plugin
type Registration struct {
	mu       sync.RWMutex
	settings Settings
}

// Options resets the bound settings to defaults and returns the plugin
// options that write into them. env maps an option name to an extra
// environment variable read for it, such as PGHOST
func (r *Registration) Options(
	product string,
	defaults Settings,
	env map[string]string,
) []plugin.PluginOption {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = defaults
	str := func(name, desc string, dest *string, def string) plugin.PluginOption {
		return plugin.PluginOption{
			Name:         name,
			Type:         plugin.PluginOptionTypeString,
			Description:  fmt.Sprintf(desc, product),
			DefaultValue: def,
			CustomEnvVar: env[name],
			Dest:         dest,
		}
	}
	return []plugin.PluginOption{
		str("host", "%s host", &r.settings.Host, defaults.Host),
		{
			Name:         "port",
			Type:         plugin.PluginOptionTypeUint,
			Description:  product + " port",
			DefaultValue: defaults.Port,
			CustomEnvVar: env["port"],
			Dest:         &r.settings.Port,
		},
		str("user", "%s user", &r.settings.User, defaults.User),
		str("password", "%s password", &r.settings.Password, ""),
		str("database", "%s database name", &r.settings.Database, defaults.Database),
		str("ssl-mode", "%s TLS mode", &r.settings.SSLMode, defaults.SSLMode),
		str("timezone", "%s session time zone", &r.settings.TimeZone, defaults.TimeZone),
		str("dsn", "full %s DSN, replaces the other connection options", &r.settings.DSN, ""),
	}
}

// Snapshot returns the current bound settings
func (r *Registration) Snapshot() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}
