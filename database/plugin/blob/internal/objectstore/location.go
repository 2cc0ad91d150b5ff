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

package objectstore

import (
	"fmt"
	"strings"
)

// Location is a bucket plus an optional key prefix, written as
// scheme://bucket[/prefix]
type Location struct {
	Bucket string
	Prefix string
}

// ParseLocation parses s for the given URL scheme. The returned prefix is
// empty or ends in a single slash
func ParseLocation(scheme, s string) (Location, error) {
	path, ok := strings.CutPrefix(s, scheme+"://")
	if !ok {
		return Location{}, fmt.Errorf(
			"%s location %q: expected %s://<bucket>[/prefix]",
			scheme,
			s,
			scheme,
		)
	}
	bucket, prefix, _ := strings.Cut(path, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("%s location %q: bucket not set", scheme, s)
	}
	return Location{Bucket: bucket, Prefix: NormalizePrefix(prefix)}, nil
}

// NormalizePrefix trims slashes from prefix and appends one, so that
// prefix+key is always a valid object name
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func (l Location) String(scheme string) string {
	return scheme + "://" + l.Bucket + "/" + l.Prefix
}
