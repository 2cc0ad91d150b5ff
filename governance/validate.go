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

package governance

import (
	"fmt"
	"unicode/utf8"
)

const (
	MaxNameLength        = 32
	MaxCallerLength      = 128
	MaxMetadataLength    = 256
	MaxOptionLabelLength = 64
	MinOptions           = 2
	MaxOptions           = 16
)

func validateCaller(caller string) error {
	if caller == "" || len(caller) > MaxCallerLength {
		return fmt.Errorf(
			"%w: must be 1-%d bytes, got %d",
			ErrInvalidCaller,
			MaxCallerLength,
			len(caller),
		)
	}
	return nil
}

func validateName(name string) error {
	if name == "" || len(name) > MaxNameLength {
		return fmt.Errorf(
			"%w: must be 1-%d bytes, got %d",
			ErrInvalidName,
			MaxNameLength,
			len(name),
		)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidName)
	}
	return nil
}

func validateMetadata(metadata string) error {
	if metadata == "" || len(metadata) > MaxMetadataLength {
		return fmt.Errorf(
			"%w: must be 1-%d bytes, got %d",
			ErrInvalidMetadata,
			MaxMetadataLength,
			len(metadata),
		)
	}
	return nil
}

// validateOptions checks custom option labels. An empty list selects the
// default labels and is always valid
func validateOptions(labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	if len(labels) < MinOptions || len(labels) > MaxOptions {
		return fmt.Errorf(
			"%w: need %d-%d labels, got %d",
			ErrInvalidOptions,
			MinOptions,
			MaxOptions,
			len(labels),
		)
	}
	seen := make(map[string]struct{}, len(labels))
	for i, label := range labels {
		if label == "" || len(label) > MaxOptionLabelLength {
			return fmt.Errorf(
				"%w: label %d must be 1-%d bytes",
				ErrInvalidOptions,
				i,
				MaxOptionLabelLength,
			)
		}
		if _, ok := seen[label]; ok {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidOptions, label)
		}
		seen[label] = struct{}{}
	}
	return nil
}
