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


package knowledge

import (
	"fmt"
	"strings"

	"github.com/poiesic/compliq/core"
)

// HighBaseline is the baseline name used for High impact membership.
const HighBaseline = "High"

// CCIMapping is one ordered CCI-to-control entry.
type CCIMapping struct {
	CCI       string
	ControlID string
}

// Base is the aggregate of controls, baseline memberships, assessment
// procedures, technologies and the CCI mapping for one session.
// It is built once from ingestion outputs and read-only afterwards.
type Base struct {
	controls     map[string]*core.Control
	controlOrder []string

	baselineSets  map[string]map[string]bool
	baselineOrder map[string][]string

	procedures map[string][]string

	technologies map[string]*core.Technology
	techOrder    []string

	cciToControl map[string]string
	cciOrder     []string
}

// NewBase creates an empty knowledge base.
func NewBase() *Base {
	return &Base{
		controls:      make(map[string]*core.Control),
		baselineSets:  make(map[string]map[string]bool),
		baselineOrder: make(map[string][]string),
		procedures:    make(map[string][]string),
		technologies:  make(map[string]*core.Technology),
		cciToControl:  make(map[string]string),
	}
}

// AddControl validates and registers a control. Re-adding an id replaces
// nothing: the first ingested record wins.
func (b *Base) AddControl(control *core.Control) error {
	if err := core.ValidateControl(control); err != nil {
		return err
	}
	if _, ok := b.controls[control.ID]; ok {
		return nil
	}
	b.controls[control.ID] = control
	b.controlOrder = append(b.controlOrder, control.ID)
	return nil
}

// AddBaselineMember marks a control id as a member of the named baseline.
func (b *Base) AddBaselineMember(baseline, controlID string) {
	id := core.NormalizeControlID(controlID)
	set := b.baselineSets[baseline]
	if set == nil {
		set = make(map[string]bool)
		b.baselineSets[baseline] = set
	}
	if set[id] {
		return
	}
	set[id] = true
	b.baselineOrder[baseline] = append(b.baselineOrder[baseline], id)
}

// SetProcedure records the ordered assessment procedure for a control.
// Absence of a procedure is a valid state, not an error.
func (b *Base) SetProcedure(controlID string, steps []string) {
	b.procedures[core.NormalizeControlID(controlID)] = steps
}

// AddTechnology validates and registers a technology by name.
func (b *Base) AddTechnology(tech *core.Technology) error {
	if err := core.ValidateTechnology(tech); err != nil {
		return err
	}
	if _, ok := b.technologies[tech.Name]; ok {
		return fmt.Errorf("%w: duplicate technology %q", core.ErrInvalidTechnology, tech.Name)
	}
	b.technologies[tech.Name] = tech
	b.techOrder = append(b.techOrder, tech.Name)
	return nil
}

// AddCCIMapping records one CCI-to-control entry, preserving ingestion
// order. The mapped control id is normalized; re-adding a CCI id keeps the
// first mapping.
func (b *Base) AddCCIMapping(cci, controlID string) {
	if _, ok := b.cciToControl[cci]; ok {
		return
	}
	b.cciToControl[cci] = core.NormalizeControlID(controlID)
	b.cciOrder = append(b.cciOrder, cci)
}

// Control looks up a control by id (normalized before lookup).
func (b *Base) Control(id string) (*core.Control, bool) {
	control, ok := b.controls[core.NormalizeControlID(id)]
	return control, ok
}

// ControlCount returns the number of registered controls.
func (b *Base) ControlCount() int {
	return len(b.controls)
}

// InBaseline reports whether a control belongs to the named baseline.
func (b *Base) InBaseline(baseline, controlID string) bool {
	return b.baselineSets[baseline][core.NormalizeControlID(controlID)]
}

// Procedure returns the ordered assessment procedure for a control, if one
// was ingested.
func (b *Base) Procedure(controlID string) ([]string, bool) {
	steps, ok := b.procedures[core.NormalizeControlID(controlID)]
	return steps, ok
}

// Technology looks up a technology by exact name.
func (b *Base) Technology(name string) (*core.Technology, bool) {
	tech, ok := b.technologies[name]
	return tech, ok
}

// Technologies returns all technologies in ingestion order.
func (b *Base) Technologies() []*core.Technology {
	out := make([]*core.Technology, 0, len(b.techOrder))
	for _, name := range b.techOrder {
		out = append(out, b.technologies[name])
	}
	return out
}

// ApplicableTechnologies returns, in ingestion order, the technologies that
// carry at least one hardening rule for any of the given control ids.
// Lookup is by exact normalized key, never by substring.
func (b *Base) ApplicableTechnologies(controlIDs []string) []*core.Technology {
	var out []*core.Technology
	for _, name := range b.techOrder {
		tech := b.technologies[name]
		for _, id := range controlIDs {
			if len(tech.RulesFor(id)) > 0 {
				out = append(out, tech)
				break
			}
		}
	}
	return out
}

// CCIControl resolves a CCI id to its mapped control id.
func (b *Base) CCIControl(cci string) (string, bool) {
	id, ok := b.cciToControl[cci]
	return id, ok
}

// CCIMappings returns all CCI mappings in ingestion order.
func (b *Base) CCIMappings() []CCIMapping {
	out := make([]CCIMapping, 0, len(b.cciOrder))
	for _, cci := range b.cciOrder {
		out = append(out, CCIMapping{CCI: cci, ControlID: b.cciToControl[cci]})
	}
	return out
}

// CCIsForControl returns, in ingestion order, every CCI id mapped to the
// given control. The match is value equality under normalization.
func (b *Base) CCIsForControl(controlID string) []string {
	target := core.NormalizeControlID(controlID)
	var out []string
	for _, cci := range b.cciOrder {
		if b.cciToControl[cci] == target {
			out = append(out, cci)
		}
	}
	return out
}

// Snippets generates the retrieval corpus in a stable order: one catalog
// snippet per control, one synthesized assessment snippet per control,
// one membership snippet per High baseline member, then one supplemental
// guidance snippet per control that carries guidance prose. The resulting
// sequence order defines the integer handles used by the embedding index.
func (b *Base) Snippets() []core.DocumentSnippet {
	var snippets []core.DocumentSnippet

	for _, id := range b.controlOrder {
		ctrl := b.controls[id]
		snippets = append(snippets, core.DocumentSnippet{
			Kind:      core.SourceCatalog,
			ControlID: id,
			Text:      fmt.Sprintf("NIST 800-53 Rev 5 Catalog, %s: %s %s", id, ctrl.Title, ctrl.Description),
		})
	}

	for _, id := range b.controlOrder {
		ctrl := b.controls[id]
		snippets = append(snippets, core.DocumentSnippet{
			Kind:      core.SourceAssessment,
			ControlID: id,
			Text: fmt.Sprintf(
				"NIST 800-53 Rev 5 Assessment, %s: To assess this control, verify %s Check parameters: %s.",
				id, strings.ToLower(ctrl.Description), parameterList(ctrl.Parameters),
			),
		})
	}

	for _, id := range b.baselineOrder[HighBaseline] {
		snippets = append(snippets, core.DocumentSnippet{
			Kind:      core.SourceHighBaseline,
			ControlID: id,
			Text:      fmt.Sprintf("NIST 800-53 Rev 5 High Baseline, %s: Included in High baseline.", id),
		})
	}

	for _, id := range b.controlOrder {
		ctrl := b.controls[id]
		if ctrl.Guidance == "" {
			continue
		}
		snippets = append(snippets, core.DocumentSnippet{
			Kind:      core.SourceSupplementalGuidance,
			ControlID: id,
			Text:      fmt.Sprintf("NIST 800-53 Rev 5 Supplemental Guidance, %s: %s", id, ctrl.Guidance),
		})
	}

	return snippets
}

func parameterList(params []core.Parameter) string {
	if len(params) == 0 {
		return "none specified"
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.ID != "" {
			parts = append(parts, p.ID+": "+p.Label)
		} else {
			parts = append(parts, p.Label)
		}
	}
	return strings.Join(parts, ", ")
}
