package core

import "strings"

// Severity classifies the impact of a hardening rule.
// The zero value is Medium, the default STIG benchmarks assume when a rule
// carries no severity attribute.
type Severity int

const (
	// SeverityMedium is the default severity.
	SeverityMedium Severity = iota
	// SeverityLow marks low-impact rules.
	SeverityLow
	// SeverityHigh marks the highest-impact rules.
	SeverityHigh
)

// String returns the display form of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityHigh:
		return "High"
	default:
		return "Medium"
	}
}

// ParseSeverity maps severity text onto a Severity.
// Unknown or empty values fall back to Medium.
func ParseSeverity(text string) Severity {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "low":
		return SeverityLow
	case "high":
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// Parameter is one assignable value slot on a control, in catalog order.
type Parameter struct {
	ID    string
	Label string
}

// Control is a single NIST 800-53 requirement.
// Controls are created once by ingestion and never mutated afterwards.
type Control struct {
	ID              string // normalized, e.g. "AC-2" or "CM-7(5)"
	Title           string
	Description     string
	Parameters      []Parameter
	RelatedControls []string // normalized ids
	Guidance        string   // supplemental guidance prose, may be empty
}

// HardeningRule is one STIG rule belonging to exactly one technology.
type HardeningRule struct {
	RuleID   string
	Title    string
	FixText  string
	Severity Severity
}

// Technology is a named platform with its control-to-rule index.
// RulesByControl is keyed by normalized control id; it is the applicability
// index built once at ingestion time and queried by exact key per request.
type Technology struct {
	Name           string
	Title          string
	BenchmarkID    string
	Version        string
	RulesByControl map[string][]HardeningRule
}

// AddRule associates a rule with a control id, preserving insertion order.
// Within one control bucket rule ids are unique; re-adding an existing
// rule id is a no-op.
func (t *Technology) AddRule(controlID string, rule HardeningRule) {
	if t.RulesByControl == nil {
		t.RulesByControl = make(map[string][]HardeningRule)
	}
	id := NormalizeControlID(controlID)
	for _, existing := range t.RulesByControl[id] {
		if existing.RuleID == rule.RuleID {
			return
		}
	}
	t.RulesByControl[id] = append(t.RulesByControl[id], rule)
}

// RulesFor returns the rules mapped to a control id, or nil.
func (t *Technology) RulesFor(controlID string) []HardeningRule {
	return t.RulesByControl[NormalizeControlID(controlID)]
}

// SourceKind identifies the provenance of a retrievable snippet.
type SourceKind int

const (
	// SourceCatalog marks snippets generated from catalog control text.
	SourceCatalog SourceKind = iota + 1
	// SourceAssessment marks snippets generated from assessment guidance.
	SourceAssessment
	// SourceHighBaseline marks baseline membership snippets.
	SourceHighBaseline
	// SourceSupplementalGuidance marks supplemental guidance snippets.
	SourceSupplementalGuidance
)

// String returns the display form of the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceCatalog:
		return "Catalog"
	case SourceAssessment:
		return "Assessment"
	case SourceHighBaseline:
		return "High Baseline"
	case SourceSupplementalGuidance:
		return "Supplemental Guidance"
	default:
		return "Unknown"
	}
}

// DocumentSnippet is a provenance-tagged unit of retrievable text.
// The ordered snippet sequence generated at index-build time defines the
// stable integer handles used by the embedding index.
type DocumentSnippet struct {
	Kind      SourceKind
	ControlID string // normalized; empty when the snippet is not control-bound
	Text      string
}

// StatusPending is the initial status of every exported checklist row.
const StatusPending = "Pending"

// ChecklistRecord is one row of an exported evidence-tracking checklist.
// Records are created on explicit user request and never mutated after write.
type ChecklistRecord struct {
	Source      string // "NIST <control>" or "STIG <technology>"
	ItemID      string // rule id or synthetic step id
	Action      string
	Description string
	Severity    string // display form; "N/A" for NIST procedure steps
	Evidence    string
	Status      string
}
