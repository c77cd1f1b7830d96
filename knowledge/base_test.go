package knowledge

import (
	"testing"

	"github.com/poiesic/compliq/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBase(t *testing.T) *Base {
	t.Helper()
	base := NewBase()

	require.NoError(t, base.AddControl(&core.Control{
		ID:          "AU-2",
		Title:       "Event Logging",
		Description: "Identify the types of events that the system is capable of logging. Review the event types.",
		Parameters:  []core.Parameter{{ID: "au-2_prm_1", Label: "organization-defined event types"}},
	}))
	require.NoError(t, base.AddControl(&core.Control{
		ID:          "AC-1",
		Title:       "Policy and Procedures",
		Description: "Develop, document, and disseminate an access control policy.",
		Guidance:    "Access control policy addresses purpose, scope, roles and responsibilities.",
	}))

	base.AddBaselineMember(HighBaseline, "AU-02")
	base.SetProcedure("AU-2", []string{"Examine audit policy.", "Interview personnel.", "Test logging."})
	base.AddCCIMapping("CCI-000130", "AU-3")
	base.AddCCIMapping("CCI-000172", "AU-12")

	win := &core.Technology{Name: "Windows 10", Title: "Windows 10 STIG", Version: "V2R8"}
	win.AddRule("AU-2", core.HardeningRule{RuleID: "WN10-AU-000010", Severity: core.SeverityHigh})
	require.NoError(t, base.AddTechnology(win))

	rhel := &core.Technology{Name: "Red Hat 9", Title: "RHEL 9 STIG", Version: "V1R3"}
	rhel.AddRule("AC-1", core.HardeningRule{RuleID: "RHEL-09-000001"})
	require.NoError(t, base.AddTechnology(rhel))

	return base
}

func TestBaseLookups(t *testing.T) {
	base := testBase(t)

	t.Run("control lookup normalizes", func(t *testing.T) {
		ctrl, ok := base.Control("AU-02")
		require.True(t, ok)
		assert.Equal(t, "Event Logging", ctrl.Title)
	})

	t.Run("unknown control", func(t *testing.T) {
		_, ok := base.Control("XX-99")
		assert.False(t, ok)
	})

	t.Run("baseline membership normalizes", func(t *testing.T) {
		assert.True(t, base.InBaseline(HighBaseline, "AU-2"))
		assert.False(t, base.InBaseline(HighBaseline, "AC-1"))
	})

	t.Run("procedure absence is not an error", func(t *testing.T) {
		_, ok := base.Procedure("AC-1")
		assert.False(t, ok)

		steps, ok := base.Procedure("AU-02")
		require.True(t, ok)
		assert.Len(t, steps, 3)
	})
}

func TestApplicableTechnologies(t *testing.T) {
	base := testBase(t)

	t.Run("exact key match only", func(t *testing.T) {
		techs := base.ApplicableTechnologies([]string{"AU-2"})
		require.Len(t, techs, 1)
		assert.Equal(t, "Windows 10", techs[0].Name)
	})

	t.Run("multiple controls union", func(t *testing.T) {
		techs := base.ApplicableTechnologies([]string{"AU-2", "AC-1"})
		assert.Len(t, techs, 2)
	})

	t.Run("no applicable technologies", func(t *testing.T) {
		assert.Empty(t, base.ApplicableTechnologies([]string{"SC-13"}))
	})
}

func TestCCIMappings(t *testing.T) {
	base := testBase(t)

	t.Run("lookup", func(t *testing.T) {
		id, ok := base.CCIControl("CCI-000130")
		require.True(t, ok)
		assert.Equal(t, "AU-3", id)
	})

	t.Run("ordered as ingested", func(t *testing.T) {
		mappings := base.CCIMappings()
		require.Len(t, mappings, 2)
		assert.Equal(t, "CCI-000130", mappings[0].CCI)
		assert.Equal(t, "CCI-000172", mappings[1].CCI)
	})

	t.Run("reverse lookup under normalization", func(t *testing.T) {
		base.AddCCIMapping("CCI-999999", "AU-03")
		ccis := base.CCIsForControl("AU-3")
		assert.Equal(t, []string{"CCI-000130", "CCI-999999"}, ccis)
	})

	t.Run("first mapping wins on duplicate CCI", func(t *testing.T) {
		base.AddCCIMapping("CCI-000130", "SC-13")
		id, _ := base.CCIControl("CCI-000130")
		assert.Equal(t, "AU-3", id)
	})
}

func TestSnippets(t *testing.T) {
	base := testBase(t)
	snippets := base.Snippets()

	// 2 catalog + 2 assessment + 1 high baseline + 1 supplemental guidance
	require.Len(t, snippets, 6)

	t.Run("stable section order", func(t *testing.T) {
		assert.Equal(t, core.SourceCatalog, snippets[0].Kind)
		assert.Equal(t, "AU-2", snippets[0].ControlID)
		assert.Equal(t, core.SourceCatalog, snippets[1].Kind)
		assert.Equal(t, core.SourceAssessment, snippets[2].Kind)
		assert.Equal(t, core.SourceAssessment, snippets[3].Kind)
		assert.Equal(t, core.SourceHighBaseline, snippets[4].Kind)
		assert.Equal(t, core.SourceSupplementalGuidance, snippets[5].Kind)
		assert.Equal(t, "AC-1", snippets[5].ControlID)
	})

	t.Run("assessment snippet carries parameters", func(t *testing.T) {
		assert.Contains(t, snippets[2].Text, "To assess this control")
		assert.Contains(t, snippets[2].Text, "au-2_prm_1: organization-defined event types")
	})

	t.Run("control without parameters", func(t *testing.T) {
		assert.Contains(t, snippets[3].Text, "none specified")
	})

	t.Run("baseline snippet is control bound", func(t *testing.T) {
		assert.Equal(t, "AU-2", snippets[4].ControlID)
		assert.Contains(t, snippets[4].Text, "Included in High baseline")
	})

	t.Run("generation is deterministic", func(t *testing.T) {
		assert.Equal(t, snippets, base.Snippets())
	})
}

func TestDuplicateHandling(t *testing.T) {
	base := NewBase()
	require.NoError(t, base.AddControl(&core.Control{ID: "AU-2", Title: "Event Logging"}))
	require.NoError(t, base.AddControl(&core.Control{ID: "AU-2", Title: "Replacement"}))

	ctrl, ok := base.Control("AU-2")
	require.True(t, ok)
	assert.Equal(t, "Event Logging", ctrl.Title, "first ingested control wins")

	err := base.AddTechnology(&core.Technology{Name: "Windows 10"})
	require.NoError(t, err)
	assert.Error(t, base.AddTechnology(&core.Technology{Name: "Windows 10"}))
}
