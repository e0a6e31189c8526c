/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The GigaGrid Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rows

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const pathSep = "\x1f"

// Key identifies a row within a tree: the sector path plus, for detail rows,
// the record ID. Keys are comparable and survive re-rasterization.
type Key struct {
	Depth    int
	Path     string
	DetailID int // -1 for subtotal rows
}

// SubtotalKey returns the key of the subtotal row at path.
func SubtotalKey(path []string) Key {
	return Key{Depth: len(path), Path: strings.Join(path, pathSep), DetailID: -1}
}

// DetailKey returns the key of detail row id under path.
func DetailKey(path []string, id int) Key {
	k := SubtotalKey(path)
	k.DetailID = id
	return k
}

// RootKey is the key of the grand total row.
var RootKey = SubtotalKey(nil)

func (k Key) IsDetail() bool { return k.DetailID >= 0 }

// Segments returns the sector path of the key.
func (k Key) Segments() []string {
	if k.Depth == 0 {
		return nil
	}
	return strings.Split(k.Path, pathSep)
}

// String encodes the key as "/A/B" for subtotal rows and "/A/B#7" for detail
// rows. Segments are path-escaped.
func (k Key) String() string {
	var sb strings.Builder
	for _, s := range k.Segments() {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(s))
	}
	if k.IsDetail() {
		sb.WriteByte('#')
		sb.WriteString(strconv.Itoa(k.DetailID))
	}
	return sb.String()
}

// ParseKey parses the output of Key.String.
func ParseKey(s string) (Key, error) {
	id := -1
	if i := strings.LastIndexByte(s, '#'); i >= 0 {
		n, err := strconv.Atoi(s[i+1:])
		if err != nil || n < 0 {
			return Key{}, fmt.Errorf("invalid detail id in row key %q", s)
		}
		id = n
		s = s[:i]
	}
	var path []string
	if s != "" {
		if !strings.HasPrefix(s, "/") {
			return Key{}, fmt.Errorf("row key %q must start with '/'", s)
		}
		for _, seg := range strings.Split(s[1:], "/") {
			unescaped, err := url.PathUnescape(seg)
			if err != nil {
				return Key{}, fmt.Errorf("invalid row key segment %q: %w", seg, err)
			}
			path = append(path, unescaped)
		}
	}
	if id >= 0 {
		return DetailKey(path, id), nil
	}
	return SubtotalKey(path), nil
}
