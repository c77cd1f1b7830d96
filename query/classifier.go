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


package query

import (
	"regexp"
	"strings"

	"github.com/poiesic/compliq/core"
)

// Kind identifies what a query is asking for.
type Kind int

const (
	// KindUnrecognized means no control id and no keyword trigger matched.
	KindUnrecognized Kind = iota
	// KindListStigs lists known technologies, optionally keyword-filtered.
	KindListStigs
	// KindCciLookup maps a CCI identifier to its control.
	KindCciLookup
	// KindReverseCciLookup lists the CCI identifiers mapped to a control.
	KindReverseCciLookup
	// KindCciSummary summarizes the CCI mapping table.
	KindCciSummary
	// KindControlSummary describes a single control.
	KindControlSummary
	// KindAssessControl asks how to assess or audit one or more controls.
	KindAssessControl
	// KindImplementControl asks how to implement one or more controls.
	KindImplementControl
	// KindGenericLookup is the fallback for any query naming a control.
	KindGenericLookup
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindListStigs:
		return "list-stigs"
	case KindCciLookup:
		return "cci-lookup"
	case KindReverseCciLookup:
		return "reverse-cci-lookup"
	case KindCciSummary:
		return "cci-summary"
	case KindControlSummary:
		return "control-summary"
	case KindAssessControl:
		return "assess-control"
	case KindImplementControl:
		return "implement-control"
	case KindGenericLookup:
		return "generic-lookup"
	default:
		return "unrecognized"
	}
}

// Intent is the structured form of a free-text query.
type Intent struct {
	Kind Kind

	// ControlIDs are the normalized control ids in first-occurrence order.
	// Duplicates are preserved.
	ControlIDs []string

	// TechnologyHint is the lowercased trailing "for <words>" or
	// "on <words>" clause, if any. For KindListStigs it is the keyword
	// used to filter the technology list.
	TechnologyHint string

	// CCIID is the canonical CCI identifier for KindCciLookup.
	CCIID string
}

var (
	// The trailing \b sits before the optional enhancement so that
	// "CM-7(5)" captures the parenthetical rather than stopping at "CM-7".
	controlTokenPattern = regexp.MustCompile(`\b([A-Z]{2}-[0-9]{1,2})\b(?:\s*\(([A-Z0-9]+)\))?`)

	cciPattern = regexp.MustCompile(`(?i)\b(CCI-[0-9]+)\b`)

	hintPattern = regexp.MustCompile(`(?i)^.*\b(?:for|on)\s+(.+?)\s*\??\s*$`)

	whatIsPattern = regexp.MustCompile(`(?i)^\s*what\s+is\b`)
)

// Classify parses a free-text query into an Intent. Triggers are checked
// in a fixed order, first match wins: list-stigs, CCI lookup, CCI
// mappings, control summary, assess, implement, generic lookup. A query
// matching none of these with no control id is unrecognized.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	controlIDs := ExtractControlIDs(text)
	hint := extractTrailingHint(text)

	if strings.Contains(lower, "list stigs") {
		return Intent{Kind: KindListStigs, TechnologyHint: hint}
	}

	if m := cciPattern.FindStringSubmatch(text); m != nil {
		return Intent{Kind: KindCciLookup, CCIID: strings.ToUpper(m[1])}
	}

	if strings.Contains(lower, "cci mapping") {
		if len(controlIDs) > 0 {
			return Intent{Kind: KindReverseCciLookup, ControlIDs: controlIDs}
		}
		return Intent{Kind: KindCciSummary}
	}

	if whatIsPattern.MatchString(text) && len(controlIDs) > 0 {
		return Intent{Kind: KindControlSummary, ControlIDs: controlIDs}
	}

	if (strings.Contains(lower, "assess") || strings.Contains(lower, "audit")) && len(controlIDs) > 0 {
		return Intent{Kind: KindAssessControl, ControlIDs: controlIDs, TechnologyHint: hint}
	}

	if strings.Contains(lower, "implement") && len(controlIDs) > 0 {
		return Intent{Kind: KindImplementControl, ControlIDs: controlIDs, TechnologyHint: hint}
	}

	if len(controlIDs) > 0 {
		return Intent{Kind: KindGenericLookup, ControlIDs: controlIDs}
	}

	return Intent{Kind: KindUnrecognized}
}

// ExtractControlIDs scans text for control id tokens, normalizes each,
// and returns them in first-occurrence order without deduplication.
func ExtractControlIDs(text string) []string {
	upper := strings.ToUpper(text)
	matches := controlTokenPattern.FindAllStringSubmatch(upper, -1)
	if len(matches) == 0 {
		return nil
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		raw := m[1]
		if m[2] != "" {
			raw += "(" + m[2] + ")"
		}
		ids = append(ids, core.NormalizeControlID(raw))
	}
	return ids
}

// extractTrailingHint pulls the last "for <words>" or "on <words>"
// clause from the query, lowercased with any trailing question mark
// removed. An absent clause yields an empty string.
func extractTrailingHint(text string) string {
	m := hintPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(m[1]))
}
