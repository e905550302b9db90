/*
 * Copyright 2025 The Monbridge Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package mapping matches inventory objects against mapping rules and
// resolves dotted attribute paths for tag and inventory projection.
package mapping

import (
	"fmt"
	"strings"

	"github.com/monbridge/monbridge/pkg/models"
)

// Resolve walks a dotted attribute path over an inventory object, one
// segment at a time. A nil intermediate or an unknown attribute resolves to
// nil rather than an error; projections treat nil as "no value".
func Resolve(obj *models.InventoryObject, path string) interface{} {
	if obj == nil || path == "" {
		return nil
	}

	var current interface{} = obj

	for _, segment := range strings.Split(path, ".") {
		if current == nil {
			return nil
		}

		switch node := current.(type) {
		case models.AttrResolver:
			value, ok := node.Attr(segment)
			if !ok {
				return nil
			}

			current = value
		case map[string]interface{}:
			// Nested custom-field documents.
			value, ok := node[segment]
			if !ok {
				return nil
			}

			current = value
		default:
			// Terminal value with path segments left over.
			return nil
		}
	}

	return current
}

// ResolveString resolves a path and renders the value as a string. Nil and
// unresolvable paths render as the empty string.
func ResolveString(obj *models.InventoryObject, path string) string {
	value := Resolve(obj, path)
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FirstNonEmpty resolves an ordered fallback chain of paths and returns the
// first non-empty value, or the empty string when none resolves.
func FirstNonEmpty(obj *models.InventoryObject, paths []string) string {
	for _, path := range paths {
		if v := ResolveString(obj, path); v != "" {
			return v
		}
	}

	return ""
}
