package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity(t *testing.T) {
	t.Run("zero value is Medium", func(t *testing.T) {
		var s Severity
		assert.Equal(t, "Medium", s.String())
	})

	t.Run("parse round trips display names", func(t *testing.T) {
		for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh} {
			assert.Equal(t, s, ParseSeverity(s.String()))
		}
	})

	t.Run("unknown text defaults to Medium", func(t *testing.T) {
		assert.Equal(t, SeverityMedium, ParseSeverity("catastrophic"))
		assert.Equal(t, SeverityMedium, ParseSeverity(""))
	})
}

func TestTechnologyAddRule(t *testing.T) {
	tech := &Technology{Name: "Windows 10"}

	tech.AddRule("AU-02", HardeningRule{RuleID: "WN10-AU-000010", Title: "Audit logon events"})
	tech.AddRule("AU-2", HardeningRule{RuleID: "WN10-AU-000010", Title: "Audit logon events"})
	tech.AddRule("AU-2", HardeningRule{RuleID: "WN10-AU-000020", Title: "Audit account management"})

	rules := tech.RulesFor("AU-2")
	assert.Len(t, rules, 2, "duplicate rule ids must be deduplicated per control bucket")
	assert.Equal(t, "WN10-AU-000010", rules[0].RuleID)
	assert.Equal(t, "WN10-AU-000020", rules[1].RuleID)

	t.Run("lookup normalizes the key", func(t *testing.T) {
		assert.Len(t, tech.RulesFor("AU-02"), 2)
	})

	t.Run("unmapped control yields nil", func(t *testing.T) {
		assert.Nil(t, tech.RulesFor("SC-13"))
	})
}

func TestSourceKindString(t *testing.T) {
	assert.Equal(t, "Catalog", SourceCatalog.String())
	assert.Equal(t, "Assessment", SourceAssessment.String())
	assert.Equal(t, "High Baseline", SourceHighBaseline.String())
	assert.Equal(t, "Supplemental Guidance", SourceSupplementalGuidance.String())
	assert.Equal(t, "Unknown", SourceKind(0).String())
}
