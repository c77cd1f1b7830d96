package response

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/compliq/ai"
	"github.com/poiesic/compliq/checklist"
	"github.com/poiesic/compliq/core"
	"github.com/poiesic/compliq/index"
	"github.com/poiesic/compliq/knowledge"
)

type stubSearcher struct {
	hits []index.SearchHit
	err  error
}

func (s *stubSearcher) Search(ctx context.Context, query string, k int) ([]index.SearchHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > k {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

func testBase(t *testing.T) *knowledge.Base {
	t.Helper()
	base := knowledge.NewBase()

	require.NoError(t, base.AddControl(&core.Control{
		ID:          "AU-2",
		Title:       "Event Logging",
		Description: "Identify the types of events that the system is capable of logging. Review the event types selected for logging.",
		Parameters:  []core.Parameter{{ID: "au-2_prm_1", Label: "event types"}},
	}))
	require.NoError(t, base.AddControl(&core.Control{
		ID:              "AC-1",
		Title:           "Policy and Procedures",
		Description:     "Develop, document, and disseminate access control policy. Review and update the policy.",
		RelatedControls: []string{"PM-9"},
	}))
	require.NoError(t, base.AddControl(&core.Control{
		ID:          "AC-17",
		Title:       "Remote Access",
		Description: "Establish usage restrictions for remote access.",
	}))
	require.NoError(t, base.AddControl(&core.Control{
		ID:          "SC-2",
		Title:       "Separation of System and User Functionality",
		Description: "[Withdrawn: Incorporated into SC-39.]",
	}))

	base.AddBaselineMember(knowledge.HighBaseline, "AU-2")
	base.SetProcedure("AC-1", []string{
		"Examine access control policy documentation.",
		"Interview organizational personnel.",
	})
	base.AddCCIMapping("CCI-000130", "AU-3")
	base.AddCCIMapping("CCI-000048", "AC-7")

	windows := &core.Technology{
		Name:        "Windows 10",
		Title:       "Microsoft Windows 10 STIG",
		BenchmarkID: "MS_Windows_10_STIG",
		Version:     "V2R8",
	}
	windows.AddRule("AU-2", core.HardeningRule{
		RuleID:   "WN10-AU-000010",
		Title:    "Audit Credential Validation",
		FixText:  "Configure the audit policy.",
		Severity: core.SeverityHigh,
	})
	require.NoError(t, base.AddTechnology(windows))

	redhat := &core.Technology{
		Name:        "Red Hat 9",
		Title:       "Red Hat Enterprise Linux 9 STIG",
		BenchmarkID: "RHEL_9_STIG",
		Version:     "V1R3",
	}
	redhat.AddRule("AU-2", core.HardeningRule{
		RuleID:   "RHEL-09-653010",
		Title:    "Enable auditd",
		FixText:  "Enable the auditd service.",
		Severity: core.SeverityMedium,
	})
	require.NoError(t, base.AddTechnology(redhat))

	return base
}

func newTestCompiler(t *testing.T, base *knowledge.Base, searcher Searcher, opts ...Option) *Compiler {
	t.Helper()
	if searcher == nil {
		searcher = &stubSearcher{}
	}
	opts = append(opts, WithExporter(checklist.NewExporter(t.TempDir())))
	compiler, err := NewCompiler(base, searcher, opts...)
	require.NoError(t, err)
	return compiler
}

func TestCompile_EndToEnd(t *testing.T) {
	compiler := newTestCompiler(t, testBase(t), nil)

	outcome, err := compiler.Compile(context.Background(), "How should AU-2 be implemented on Windows 10?", nil, false)
	require.NoError(t, err)
	require.Nil(t, outcome.Disambiguation, "single hinted candidate needs no disambiguation")

	assert.Contains(t, outcome.Text, "Event Logging")
	assert.Contains(t, outcome.Text, "WN10-AU-000010")
	assert.Contains(t, outcome.Text, "High")
	assert.NotContains(t, outcome.Text, "RHEL-09-653010")
}

func TestCompile_Disambiguation(t *testing.T) {
	compiler := newTestCompiler(t, testBase(t), nil)
	ctx := context.Background()

	outcome, err := compiler.Compile(ctx, "How do I assess AU-2?", nil, false)
	require.NoError(t, err)
	require.NotNil(t, outcome.Disambiguation)
	require.Len(t, outcome.Disambiguation.Candidates, 2)
	assert.Equal(t, "Red Hat 9", outcome.Disambiguation.Candidates[0].Name)
	assert.Equal(t, "Windows 10", outcome.Disambiguation.Candidates[1].Name)
	assert.Empty(t, outcome.Text, "no partial output before disambiguation")

	t.Run("selection picks one", func(t *testing.T) {
		sel := 2
		outcome, err := compiler.Compile(ctx, "How do I assess AU-2?", &sel, false)
		require.NoError(t, err)
		require.Nil(t, outcome.Disambiguation)
		assert.Contains(t, outcome.Text, "WN10-AU-000010")
		assert.NotContains(t, outcome.Text, "RHEL-09-653010")
	})

	t.Run("zero selects all", func(t *testing.T) {
		sel := 0
		outcome, err := compiler.Compile(ctx, "How do I assess AU-2?", &sel, false)
		require.NoError(t, err)
		require.Nil(t, outcome.Disambiguation)
		assert.Contains(t, outcome.Text, "WN10-AU-000010")
		assert.Contains(t, outcome.Text, "RHEL-09-653010")
	})
}

func TestCompile_ExactSnippetBinding(t *testing.T) {
	searcher := &stubSearcher{hits: []index.SearchHit{
		{Snippet: core.DocumentSnippet{Kind: core.SourceAssessment, ControlID: "AC-17", Text: "Assessment guidance for remote access."}, Distance: 0.1},
		{Snippet: core.DocumentSnippet{Kind: core.SourceAssessment, ControlID: "AC-1", Text: "Assessment guidance for policy."}, Distance: 0.2},
	}}

	base := knowledge.NewBase()
	require.NoError(t, base.AddControl(&core.Control{
		ID:          "AC-1",
		Title:       "Policy and Procedures",
		Description: "Develop and document policy.",
	}))
	compiler := newTestCompiler(t, base, searcher)

	outcome, err := compiler.Compile(context.Background(), "How do I assess AC-1?", nil, false)
	require.NoError(t, err)
	assert.Contains(t, outcome.Text, "Assessment guidance for policy.")
	assert.NotContains(t, outcome.Text, "Assessment guidance for remote access.")
}

func TestCompile_StepSourcePreference(t *testing.T) {
	ctx := context.Background()

	t.Run("structured procedure wins", func(t *testing.T) {
		compiler := newTestCompiler(t, testBase(t), &stubSearcher{hits: []index.SearchHit{
			{Snippet: core.DocumentSnippet{Kind: core.SourceAssessment, ControlID: "AC-1", Text: "Retrieved assessment text."}},
		}})

		outcome, err := compiler.Compile(ctx, "assess AC-1", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "Examine access control policy documentation.")
		assert.NotContains(t, outcome.Text, "Retrieved assessment text.")
	})

	t.Run("snippets when no procedure", func(t *testing.T) {
		compiler := newTestCompiler(t, testBase(t), &stubSearcher{hits: []index.SearchHit{
			{Snippet: core.DocumentSnippet{Kind: core.SourceAssessment, ControlID: "AU-2", Text: "Retrieved AU-2 assessment text."}},
		}})

		sel := 0
		outcome, err := compiler.Compile(ctx, "assess AU-2", &sel, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "Retrieved AU-2 assessment text.")
	})

	t.Run("extractor as last resort", func(t *testing.T) {
		compiler := newTestCompiler(t, testBase(t), nil)

		sel := 0
		outcome, err := compiler.Compile(ctx, "assess AU-2", &sel, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "review the event types selected for logging")
		assert.Contains(t, outcome.Text, "Check parameters: event types")
	})
}

func TestCompile_UnknownControl(t *testing.T) {
	compiler := newTestCompiler(t, testBase(t), nil)

	outcome, err := compiler.Compile(context.Background(), "assess XX-99", nil, false)
	require.NoError(t, err)
	assert.Contains(t, outcome.Text, "Not found in the catalog")
}

func TestCompile_EmbeddingUnavailable(t *testing.T) {
	compiler := newTestCompiler(t, testBase(t), &stubSearcher{err: ai.ErrEmbeddingUnavailable})

	_, err := compiler.Compile(context.Background(), "assess AU-2", nil, false)
	assert.ErrorIs(t, err, ai.ErrEmbeddingUnavailable)
}

func TestCompile_ListStigs(t *testing.T) {
	compiler := newTestCompiler(t, testBase(t), nil)
	ctx := context.Background()

	t.Run("all", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "list stigs", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "Windows 10")
		assert.Contains(t, outcome.Text, "Red Hat 9")
		assert.Contains(t, outcome.Text, "V2R8")
	})

	t.Run("keyword filter", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "list stigs for red hat", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "Red Hat 9")
		assert.NotContains(t, outcome.Text, "Windows 10")
	})

	t.Run("no match is graceful", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "list stigs for nonexistent-xyz", nil, false)
		require.NoError(t, err)
		assert.NotEmpty(t, outcome.Text)
		assert.Contains(t, outcome.Text, "No STIGs found for nonexistent-xyz")
	})
}

func TestCompile_CciIntents(t *testing.T) {
	compiler := newTestCompiler(t, testBase(t), nil)
	ctx := context.Background()

	t.Run("lookup mapped", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "What is CCI-000130?", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "AU-3")
	})

	t.Run("lookup unmapped", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "What is CCI-999999?", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "Not mapped")
	})

	t.Run("reverse lookup", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "show cci mappings for AC-7", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "CCI-000048")
	})

	t.Run("reverse lookup empty", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "show cci mappings for PE-3", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "No CCI mappings found for PE-3")
	})

	t.Run("summary", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "show cci mappings", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "2 CCI mappings loaded")
		assert.Contains(t, outcome.Text, "CCI-000130 -> AU-3")
	})
}

func TestCompile_ControlSummary(t *testing.T) {
	compiler := newTestCompiler(t, testBase(t), nil)
	ctx := context.Background()

	t.Run("full detail", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "What is AC-1?", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "Policy and Procedures")
		assert.Contains(t, outcome.Text, "PM-9")
		assert.Contains(t, outcome.Text, "None specified")
	})

	t.Run("baseline membership", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "What is AU-2?", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "Included in the High baseline")
	})

	t.Run("withdrawn", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "What is SC-2?", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "withdrawn")
		assert.Contains(t, outcome.Text, "Incorporated into SC-39")
		assert.NotContains(t, outcome.Text, "Parameters")
	})

	t.Run("unknown", func(t *testing.T) {
		outcome, err := compiler.Compile(ctx, "What is ZZ-9?", nil, false)
		require.NoError(t, err)
		assert.Contains(t, outcome.Text, "Not found in the catalog")
	})
}

func TestCompile_GenericLookup(t *testing.T) {
	hits := make([]index.SearchHit, 0, 8)
	for _, text := range []string{"one", "two", "three", "four", "five", "six", "seven", "eight"} {
		hits = append(hits, index.SearchHit{Snippet: core.DocumentSnippet{Kind: core.SourceCatalog, ControlID: "AU-2", Text: text}})
	}
	compiler := newTestCompiler(t, testBase(t), &stubSearcher{hits: hits})

	outcome, err := compiler.Compile(context.Background(), "tell me about AU-2", nil, false)
	require.NoError(t, err)
	assert.Contains(t, outcome.Text, "five")
	assert.NotContains(t, outcome.Text, "six")
}

func TestCompile_Unrecognized(t *testing.T) {
	compiler := newTestCompiler(t, testBase(t), nil)

	outcome, err := compiler.Compile(context.Background(), "how do I make coffee", nil, false)
	require.NoError(t, err)
	assert.Contains(t, outcome.Text, "No NIST controls detected")
}

func TestCompile_ChecklistExport(t *testing.T) {
	dir := t.TempDir()
	exporter := checklist.NewExporter(dir, checklist.WithClock(func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	}))
	compiler, err := NewCompiler(testBase(t), &stubSearcher{}, WithExporter(exporter))
	require.NoError(t, err)

	sel := 2
	outcome, err := compiler.Compile(context.Background(), "assess AU-2", &sel, true)
	require.NoError(t, err)
	require.Len(t, outcome.ChecklistPaths, 1)
	assert.Contains(t, outcome.Text, outcome.ChecklistPaths[0])

	file, err := os.Open(outcome.ChecklistPaths[0])
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(rows), 1)
	for _, row := range rows[1:] {
		assert.Equal(t, core.StatusPending, row[6])
	}
}

func TestCompile_ChecklistFailureKeepsAnswer(t *testing.T) {
	blocked := t.TempDir() + "/blocked"
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0644))

	compiler, err := NewCompiler(testBase(t), &stubSearcher{}, WithExporter(checklist.NewExporter(blocked)))
	require.NoError(t, err)

	sel := 2
	outcome, err := compiler.Compile(context.Background(), "assess AU-2", &sel, true)
	require.NoError(t, err)
	assert.Empty(t, outcome.ChecklistPaths)
	assert.Contains(t, outcome.Text, "Checklist export failed")
	assert.Contains(t, outcome.Text, "Event Logging", "answer text survives the export failure")
}
