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
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
)

const envVarBasePrefix = "QUADVOTE"

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = 1
	PluginOptionTypeBool   PluginOptionType = 2
	PluginOptionTypeInt    PluginOptionType = 3
	PluginOptionTypeUint   PluginOptionType = 4
)

var ErrInvalidOptionDest = errors.New("invalid destination for plugin option")

type PluginOption struct {
	Name         string
	Type         PluginOptionType
	Description  string
	DefaultValue any
	// CustomEnvVar is an additional environment variable, outside the
	// QUADVOTE_ namespace, that sets the option
	CustomEnvVar string
	Dest         any
}

// AddToFlagSet registers the option as a flag named
// <type>-<plugin>-<option>, bound directly to the option destination
func (p *PluginOption) AddToFlagSet(
	fs *pflag.FlagSet,
	pluginType string,
	pluginName string,
) error {
	flagName := fmt.Sprintf("%s-%s-%s", pluginType, pluginName, p.Name)
	switch p.Type {
	case PluginOptionTypeString:
		dest, ok := p.Dest.(*string)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidOptionDest, flagName)
		}
		defVal, _ := p.DefaultValue.(string)
		fs.StringVar(dest, flagName, defVal, p.Description)
	case PluginOptionTypeBool:
		dest, ok := p.Dest.(*bool)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidOptionDest, flagName)
		}
		defVal, _ := p.DefaultValue.(bool)
		fs.BoolVar(dest, flagName, defVal, p.Description)
	case PluginOptionTypeInt:
		dest, ok := p.Dest.(*int)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidOptionDest, flagName)
		}
		defVal, _ := p.DefaultValue.(int)
		fs.IntVar(dest, flagName, defVal, p.Description)
	case PluginOptionTypeUint:
		dest, ok := p.Dest.(*uint64)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidOptionDest, flagName)
		}
		defVal, _ := p.DefaultValue.(uint64)
		fs.Uint64Var(dest, flagName, defVal, p.Description)
	default:
		return fmt.Errorf("unknown plugin option type %d for %s", p.Type, flagName)
	}
	return nil
}

// ProcessEnvVar parses a string value from the environment into the option
// destination
func (p *PluginOption) ProcessEnvVar(value string) error {
	switch p.Type {
	case PluginOptionTypeString:
		return p.set(value)
	case PluginOptionTypeBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		return p.set(v)
	case PluginOptionTypeInt:
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		return p.set(v)
	case PluginOptionTypeUint:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		return p.set(v)
	default:
		return fmt.Errorf("unknown plugin option type %d", p.Type)
	}
}

// ProcessConfig applies a value decoded from YAML. Numbers arrive as int
// from the YAML decoder
func (p *PluginOption) ProcessConfig(value any) error {
	return p.set(value)
}

// set performs a type-checked assignment into the option destination
func (p *PluginOption) set(value any) error {
	if p.Dest == nil {
		return fmt.Errorf("nil destination for option %s", p.Name)
	}
	switch p.Type {
	case PluginOptionTypeString:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("invalid type for option %s: expected string", p.Name)
		}
		return assign(p, v)
	case PluginOptionTypeBool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("invalid type for option %s: expected bool", p.Name)
		}
		return assign(p, v)
	case PluginOptionTypeInt:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("invalid type for option %s: expected int", p.Name)
		}
		return assign(p, v)
	case PluginOptionTypeUint:
		switch tv := value.(type) {
		case uint64:
			return assign(p, tv)
		case uint:
			return assign(p, uint64(tv))
		case int:
			if tv < 0 {
				return fmt.Errorf("invalid value for option %s: negative int", p.Name)
			}
			return assign(p, uint64(tv))
		default:
			return fmt.Errorf("invalid type for option %s: expected uint64 or int", p.Name)
		}
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			p.Type,
			p.Name,
		)
	}
}

func assign[T any](p *PluginOption, v T) error {
	dest, ok := p.Dest.(*T)
	if !ok {
		return fmt.Errorf(
			"invalid destination type for option %s: expected %T",
			p.Name,
			dest,
		)
	}
	if dest == nil {
		return fmt.Errorf("nil destination pointer for option %s", p.Name)
	}
	*dest = v
	return nil
}
