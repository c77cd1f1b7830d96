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


package response

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/compliq/checklist"
	"github.com/poiesic/compliq/core"
	"github.com/poiesic/compliq/index"
	"github.com/poiesic/compliq/knowledge"
	"github.com/poiesic/compliq/query"
	"github.com/poiesic/compliq/resolve"
)

const (
	controlReferenceURL = "https://csrc.nist.gov/publications/detail/sp/800-53/rev-5/final"
	stigReferenceURL    = "https://public.cyber.mil/stigs/"
)

// Searcher supplies ranked corpus snippets for a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]index.SearchHit, error)
}

// Outcome is the result of compiling one query. Exactly one of Text or
// Disambiguation is meaningful: a non-nil Disambiguation means the
// caller must obtain a selection and compile again.
type Outcome struct {
	Text           string
	Disambiguation *resolve.DisambiguationRequest
	ChecklistPaths []string
}

// Compiler turns classified queries into formatted answers by merging
// knowledge base facts with retrieved snippets.
type Compiler struct {
	base     *knowledge.Base
	searcher Searcher
	exporter *checklist.Exporter
	steps    StepExtractor
	topK     int
	logger   *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler) error

// WithStepExtractor replaces the heuristic step extractor.
func WithStepExtractor(extractor StepExtractor) Option {
	return func(c *Compiler) error {
		if extractor == nil {
			extractor = HeuristicExtractor{}
		}
		c.steps = extractor
		return nil
	}
}

// WithExporter replaces the default checklist exporter.
func WithExporter(exporter *checklist.Exporter) Option {
	return func(c *Compiler) error {
		if exporter == nil {
			return ErrExporterRequired
		}
		c.exporter = exporter
		return nil
	}
}

// WithTopK sets how many snippets are retrieved per query.
// Default is index.DefaultTopK.
func WithTopK(k int) Option {
	return func(c *Compiler) error {
		if k < 1 {
			k = index.DefaultTopK
		}
		c.topK = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCompiler creates a compiler over the given knowledge base and
// searcher.
func NewCompiler(base *knowledge.Base, searcher Searcher, opts ...Option) (*Compiler, error) {
	if base == nil {
		return nil, ErrKnowledgeBaseRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	c := &Compiler{
		base:     base,
		searcher: searcher,
		exporter: checklist.NewExporter(""),
		steps:    HeuristicExtractor{},
		topK:     index.DefaultTopK,
		logger:   slog.Default().With("component", "compiler"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Compile answers one query. A nil selection with an ambiguous
// technology scope yields an Outcome carrying a DisambiguationRequest;
// the caller re-invokes Compile with the user's selection. Checklist
// export happens only when generateChecklist is set and the intent
// assembles steps.
func (c *Compiler) Compile(ctx context.Context, text string, selection *int, generateChecklist bool) (*Outcome, error) {
	intent := query.Classify(text)
	c.logger.Debug("classified query", "kind", intent.Kind.String(), "controls", intent.ControlIDs)

	switch intent.Kind {
	case query.KindListStigs:
		return c.listStigs(intent.TechnologyHint), nil
	case query.KindCciLookup:
		return c.cciLookup(intent.CCIID), nil
	case query.KindReverseCciLookup:
		return c.reverseCciLookup(intent.ControlIDs[0]), nil
	case query.KindCciSummary:
		return c.cciSummary(), nil
	case query.KindControlSummary:
		return c.controlSummary(intent.ControlIDs[0]), nil
	case query.KindAssessControl:
		return c.assessOrImplement(ctx, text, intent, selection, generateChecklist, false)
	case query.KindImplementControl:
		return c.assessOrImplement(ctx, text, intent, selection, generateChecklist, true)
	case query.KindGenericLookup:
		return c.genericLookup(ctx, text, intent.ControlIDs)
	default:
		return &Outcome{Text: notice("No NIST controls detected.") + " Try including a control ID like 'AU-3'."}, nil
	}
}

func (c *Compiler) listStigs(keyword string) *Outcome {
	var matched []*core.Technology
	for _, tech := range c.base.Technologies() {
		if keyword == "" ||
			strings.Contains(strings.ToLower(tech.Name), keyword) ||
			strings.Contains(strings.ToLower(tech.Title), keyword) {
			matched = append(matched, tech)
		}
	}

	if len(matched) == 0 {
		suffix := "."
		if keyword != "" {
			suffix = " for " + keyword + "."
		}
		return &Outcome{Text: "No STIGs found" + suffix}
	}
	return &Outcome{Text: strings.Join(stigTable(matched), "\n")}
}

func (c *Compiler) cciLookup(cciID string) *Outcome {
	controlID, ok := c.base.CCIControl(cciID)
	if !ok {
		return &Outcome{Text: header("CCI Lookup: "+cciID) + "\n- Status: Not mapped to a NIST control."}
	}

	controlID = core.NormalizeControlID(controlID)
	lines := []string{
		header("CCI Lookup: " + cciID),
		"- " + label("Maps to") + controlID,
	}
	if control, found := c.base.Control(controlID); found {
		lines = append(lines,
			"- "+label("Title")+control.Title,
			"- "+label("Description")+control.Description)
	} else {
		lines = append(lines, "- Status: "+controlID+" not found in the catalog.")
	}
	return &Outcome{Text: strings.Join(lines, "\n")}
}

func (c *Compiler) reverseCciLookup(controlID string) *Outcome {
	ccis := c.base.CCIsForControl(controlID)
	if len(ccis) == 0 {
		return &Outcome{Text: "No CCI mappings found for " + controlID + "."}
	}

	lines := []string{header("CCI Mappings for " + controlID)}
	for _, cci := range ccis {
		lines = append(lines, "- "+cci)
	}
	return &Outcome{Text: strings.Join(lines, "\n")}
}

func (c *Compiler) cciSummary() *Outcome {
	mappings := c.base.CCIMappings()
	lines := []string{
		header("CCI Mapping Summary"),
		fmt.Sprintf("- %d CCI mappings loaded.", len(mappings)),
	}

	shown := mappings
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, m := range shown {
		lines = append(lines, fmt.Sprintf("- %s -> %s", m.CCI, m.ControlID))
	}
	return &Outcome{Text: strings.Join(lines, "\n")}
}

var withdrawalSuccessorPattern = regexp.MustCompile(`(?i)incorporated into\s+([A-Za-z]{2}-[0-9]+(?:\([A-Za-z0-9]+\))?)`)

func (c *Compiler) controlSummary(controlID string) *Outcome {
	control, ok := c.base.Control(controlID)
	if !ok {
		return &Outcome{Text: header("Control: "+controlID) + "\n- Status: Not found in the catalog."}
	}

	lines := []string{header("Control: " + controlID)}

	if strings.Contains(strings.ToLower(control.Description), "[withdrawn:") {
		lines = append(lines, "- "+notice("This control has been withdrawn."))
		if m := withdrawalSuccessorPattern.FindStringSubmatch(control.Description); m != nil {
			lines = append(lines, "- Incorporated into "+core.NormalizeControlID(m[1])+".")
		}
		return &Outcome{Text: strings.Join(lines, "\n")}
	}

	lines = append(lines, "- "+label("Title")+control.Title)
	if summary := firstSentence(control.Description); summary != "" {
		lines = append(lines, "- "+label("In short")+summary)
	}
	if control.Description != "" {
		lines = append(lines, "- "+label("Description")+control.Description)
	}
	lines = append(lines,
		"- "+label("Parameters")+joinOr(parameterLabels(control), "None specified"),
		"- "+label("Related Controls")+joinOr(control.RelatedControls, "None"))
	if c.base.InBaseline(knowledge.HighBaseline, controlID) {
		lines = append(lines, "- "+label("Baseline")+"Included in the High baseline")
	}
	lines = append(lines, "- Learn more: "+controlReferenceURL)
	return &Outcome{Text: strings.Join(lines, "\n")}
}

func (c *Compiler) genericLookup(ctx context.Context, text string, controlIDs []string) (*Outcome, error) {
	hits, err := c.searcher.Search(ctx, text, 5)
	if err != nil {
		return nil, err
	}

	lines := []string{
		header("Relevant Information"),
		"- " + label("Controls Covered") + strings.Join(dedupe(controlIDs), ", "),
	}
	if len(hits) == 0 {
		lines = append(lines, "- No relevant documents found.")
	}
	for _, hit := range hits {
		lines = append(lines, "- "+hit.Snippet.Text)
	}
	return &Outcome{Text: strings.Join(lines, "\n")}, nil
}

func (c *Compiler) assessOrImplement(ctx context.Context, text string, intent query.Intent, selection *int, generateChecklist bool, implement bool) (*Outcome, error) {
	hits, err := c.searcher.Search(ctx, text, c.topK)
	if err != nil {
		return nil, err
	}

	techs, request, err := resolve.Resolve(c.base, intent.ControlIDs, intent.TechnologyHint, selection)
	if err != nil {
		return nil, err
	}
	if request != nil {
		return &Outcome{Disambiguation: request}, nil
	}

	outcome := &Outcome{}
	var lines []string
	for _, controlID := range dedupe(intent.ControlIDs) {
		lines = append(lines, c.renderControlGuidance(controlID, hits, techs, intent.TechnologyHint, generateChecklist, implement, outcome)...)
	}
	outcome.Text = strings.Join(lines, "\n")
	return outcome, nil
}

func (c *Compiler) renderControlGuidance(controlID string, hits []index.SearchHit, techs []*core.Technology, hint string, generateChecklist, implement bool, outcome *Outcome) []string {
	lines := []string{header("Control: " + controlID)}

	control, ok := c.base.Control(controlID)
	if !ok {
		return append(lines, "- Status: Not found in the catalog.")
	}

	lines = append(lines,
		"- "+label("Title")+control.Title,
		"- "+label("Description")+control.Description)
	if c.base.InBaseline(knowledge.HighBaseline, controlID) {
		lines = append(lines, "- "+label("Baseline")+"Included in the High baseline")
	}

	verb := "Assess"
	if implement {
		verb = "Implement"
	}
	lines = append(lines, "", subheader("How to "+verb+" "+controlID))

	steps := c.assembleSteps(controlID, control, hits, &lines)

	if implement {
		lines = append(lines, "", subheader("NIST Guidance"))
		guidance := snippetsFor(hits, controlID, false)
		if len(guidance) == 0 {
			lines = append(lines, "- No specific NIST guidance found.")
		}
		for _, text := range guidance {
			lines = append(lines, "- "+text)
		}
	}

	var techRules []checklist.TechnologyRules
	if len(techs) == 0 {
		suffix := "."
		if hint != "" {
			suffix = " for " + hint + "."
		}
		lines = append(lines, "", "- No STIG guidance found"+suffix)
	}
	for _, tech := range techs {
		rules := tech.RulesFor(controlID)
		lines = append(lines, "", subheader(fmt.Sprintf("STIG Rules for %s (%s)", tech.Name, controlID)))
		if len(rules) == 0 {
			lines = append(lines, fmt.Sprintf("- No %s rules found for %s.", tech.Name, controlID))
			continue
		}
		techRules = append(techRules, checklist.TechnologyRules{Technology: tech.Name, Rules: rules})
		for _, rule := range rules {
			lines = append(lines, ruleLines(rule, !implement)...)
		}
	}
	lines = append(lines, "- STIG library: "+stigReferenceURL)

	if generateChecklist {
		path, err := c.exporter.Export(controlID, steps, techRules)
		if err != nil {
			c.logger.Error("checklist export failed", "control", controlID, "err", err)
			lines = append(lines, "", notice("Checklist export failed: "+err.Error()))
		} else {
			outcome.ChecklistPaths = append(outcome.ChecklistPaths, path)
			lines = append(lines, "", "- "+label("Checklist Generated")+path)
		}
	}

	return lines
}

// assembleSteps appends the step section and returns the raw steps for
// checklist export. Sources in preference order: structured 800-53A
// procedure, retrieved Assessment snippets bound to this exact control
// id, heuristic extraction over the description.
func (c *Compiler) assembleSteps(controlID string, control *core.Control, hits []index.SearchHit, lines *[]string) []string {
	if procedure, ok := c.base.Procedure(controlID); ok {
		*lines = append(*lines, "- "+label("NIST SP 800-53A Assessment Steps"))
		for _, step := range procedure {
			*lines = append(*lines, "  - "+step)
		}
		return procedure
	}

	*lines = append(*lines, "- "+label("Steps to Verify"))
	if snippets := snippetsFor(hits, controlID, true); len(snippets) > 0 {
		for _, text := range snippets {
			*lines = append(*lines, "  - "+text)
		}
		return snippets
	}

	steps := c.steps.Extract(control.Description)
	if len(control.Parameters) > 0 {
		steps = append(steps, "Check parameters: "+joinOr(parameterLabels(control), ""))
	}
	for _, step := range steps {
		*lines = append(*lines, "  - "+step)
	}
	return steps
}

// snippetsFor selects retrieved snippet texts bound to exactly the given
// control id. Binding is identifier equality after normalization, never
// substring containment, so AC-1 guidance cannot leak into AC-17.
func snippetsFor(hits []index.SearchHit, controlID string, assessment bool) []string {
	id := core.NormalizeControlID(controlID)
	var texts []string
	for _, hit := range hits {
		if hit.Snippet.ControlID != id {
			continue
		}
		isAssessment := hit.Snippet.Kind == core.SourceAssessment
		if isAssessment == assessment {
			texts = append(texts, hit.Snippet.Text)
		}
	}
	return texts
}

func parameterLabels(control *core.Control) []string {
	labels := make([]string, 0, len(control.Parameters))
	for _, p := range control.Parameters {
		if p.Label != "" {
			labels = append(labels, p.Label)
		} else {
			labels = append(labels, p.ID)
		}
	}
	return labels
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
