package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/compliq/core"
	"github.com/poiesic/compliq/knowledge"
)

func testBase(t *testing.T) *knowledge.Base {
	t.Helper()
	base := knowledge.NewBase()

	windows := &core.Technology{
		Name:        "Windows 10",
		Title:       "Microsoft Windows 10 STIG",
		BenchmarkID: "MS_Windows_10_STIG",
		Version:     "V2R8",
	}
	windows.AddRule("AU-3", core.HardeningRule{RuleID: "WN10-AU-000030", Title: "Audit content", Severity: core.SeverityMedium})
	require.NoError(t, base.AddTechnology(windows))

	redhat := &core.Technology{
		Name:        "Red Hat 9",
		Title:       "Red Hat Enterprise Linux 9 STIG",
		BenchmarkID: "RHEL_9_STIG",
		Version:     "V1R3",
	}
	redhat.AddRule("AU-3", core.HardeningRule{RuleID: "RHEL-09-653030", Title: "Audit content", Severity: core.SeverityMedium})
	require.NoError(t, base.AddTechnology(redhat))

	ubuntu := &core.Technology{
		Name:        "Ubuntu 22.04",
		Title:       "Canonical Ubuntu 22.04 LTS STIG",
		BenchmarkID: "Ubuntu_22_STIG",
		Version:     "V1R1",
	}
	ubuntu.AddRule("SC-13", core.HardeningRule{RuleID: "UBTU-22-671010", Title: "FIPS mode", Severity: core.SeverityHigh})
	require.NoError(t, base.AddTechnology(ubuntu))

	return base
}

func names(techs []*core.Technology) []string {
	out := make([]string, len(techs))
	for i, tech := range techs {
		out[i] = tech.Name
	}
	return out
}

func TestResolve_SingleCandidate(t *testing.T) {
	base := testBase(t)

	techs, request, err := Resolve(base, []string{"AU-3"}, "windows 10", nil)
	require.NoError(t, err)
	assert.Nil(t, request)
	assert.Equal(t, []string{"Windows 10"}, names(techs))
}

func TestResolve_Disambiguation(t *testing.T) {
	base := testBase(t)

	techs, request, err := Resolve(base, []string{"AU-3"}, "", nil)
	require.NoError(t, err)
	assert.Nil(t, techs)
	require.NotNil(t, request)
	require.Len(t, request.Candidates, 2)
	assert.Equal(t, "Red Hat 9", request.Candidates[0].Name)
	assert.Equal(t, "V1R3", request.Candidates[0].Version)
	assert.Equal(t, "Windows 10", request.Candidates[1].Name)
}

func TestResolve_Selection(t *testing.T) {
	base := testBase(t)

	t.Run("zero selects all", func(t *testing.T) {
		sel := 0
		techs, request, err := Resolve(base, []string{"AU-3"}, "", &sel)
		require.NoError(t, err)
		assert.Nil(t, request)
		assert.Equal(t, []string{"Red Hat 9", "Windows 10"}, names(techs))
	})

	t.Run("positive index selects sorted candidate", func(t *testing.T) {
		sel := 1
		techs, _, err := Resolve(base, []string{"AU-3"}, "", &sel)
		require.NoError(t, err)
		assert.Equal(t, []string{"Red Hat 9"}, names(techs))

		sel = 2
		techs, _, err = Resolve(base, []string{"AU-3"}, "", &sel)
		require.NoError(t, err)
		assert.Equal(t, []string{"Windows 10"}, names(techs))
	})

	t.Run("out of range", func(t *testing.T) {
		sel := 3
		_, _, err := Resolve(base, []string{"AU-3"}, "", &sel)
		assert.ErrorIs(t, err, ErrInvalidSelection)

		sel = -1
		_, _, err = Resolve(base, []string{"AU-3"}, "", &sel)
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})
}

func TestResolve_HintNarrowsApplicable(t *testing.T) {
	base := testBase(t)

	techs, request, err := Resolve(base, []string{"AU-3"}, "red hat", nil)
	require.NoError(t, err)
	assert.Nil(t, request)
	assert.Equal(t, []string{"Red Hat 9"}, names(techs))
}

func TestResolve_HintOutsideApplicable(t *testing.T) {
	base := testBase(t)

	// Ubuntu has no AU-3 rules; the hinted set still wins over the
	// applicable set when the intersection is empty.
	techs, request, err := Resolve(base, []string{"AU-3"}, "ubuntu", nil)
	require.NoError(t, err)
	assert.Nil(t, request)
	assert.Equal(t, []string{"Ubuntu 22.04"}, names(techs))
}

func TestResolve_NoHintFallsBackToApplicable(t *testing.T) {
	base := testBase(t)

	techs, request, err := Resolve(base, []string{"SC-13"}, "", nil)
	require.NoError(t, err)
	assert.Nil(t, request)
	assert.Equal(t, []string{"Ubuntu 22.04"}, names(techs))
}

func TestResolve_EmptyCandidatesIsValid(t *testing.T) {
	base := testBase(t)

	techs, request, err := Resolve(base, []string{"PE-3"}, "", nil)
	require.NoError(t, err)
	assert.Nil(t, request)
	assert.Empty(t, techs)
}

func TestResolve_HintMatchesNothing(t *testing.T) {
	base := testBase(t)

	// An unmatched hint falls all the way back to the applicable set.
	techs, request, err := Resolve(base, []string{"SC-13"}, "solaris", nil)
	require.NoError(t, err)
	assert.Nil(t, request)
	assert.Equal(t, []string{"Ubuntu 22.04"}, names(techs))
}
