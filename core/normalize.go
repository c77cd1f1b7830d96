// Copyright 2025 Poiesic Systems
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


package core

import (
	"regexp"
	"strings"
)

// controlIDPattern matches a family token, a number with optional leading
// zeros, and an optional parenthetical enhancement.
var controlIDPattern = regexp.MustCompile(`^([A-Za-z]{2})-0*([0-9]+)(?:\(([A-Za-z0-9]+)\))?$`)

// NormalizeControlID canonicalizes a control id: uppercase family, number
// without leading zeros, lowercase enhancement token.
//
//	NormalizeControlID("AC-01")     == "AC-1"
//	NormalizeControlID("CM-07(5)")  == "CM-7(5)"
//
// Strings that do not look like control ids are returned trimmed but
// otherwise unchanged. Normalization is idempotent.
func NormalizeControlID(id string) string {
	trimmed := strings.TrimSpace(id)
	m := controlIDPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return trimmed
	}
	normalized := strings.ToUpper(m[1]) + "-" + m[2]
	if m[3] != "" {
		normalized += "(" + strings.ToLower(m[3]) + ")"
	}
	return normalized
}

// IsControlID reports whether the string is a well-formed control id,
// normalized or not.
func IsControlID(id string) bool {
	return controlIDPattern.MatchString(strings.TrimSpace(id))
}
