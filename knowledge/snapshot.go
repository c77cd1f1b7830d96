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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/compliq/core"
)

// defaultCCISeed is the fallback mapping used when ingestion supplied no
// CCI entries, so CCI lookups stay answerable in a minimal deployment.
var defaultCCISeed = []CCIMapping{
	{CCI: "CCI-000196", ControlID: "IA-5"},
	{CCI: "CCI-000048", ControlID: "AC-7"},
	{CCI: "CCI-002450", ControlID: "SC-13"},
	{CCI: "CCI-000130", ControlID: "AU-3"},
	{CCI: "CCI-000366", ControlID: "CM-6"},
	{CCI: "CCI-001764", ControlID: "CM-7(5)"},
}

// snapshot is the on-disk shape of ingestion outputs. The ingestion stage
// (catalog, baseline, 800-53A, CCI and XCCDF parsing) runs out of process
// and hands the session this plain-data snapshot.
type snapshot struct {
	Controls             []snapshotControl     `json:"controls"`
	Baselines            map[string][]string   `json:"baselines"`
	AssessmentProcedures map[string][]string   `json:"assessment_procedures"`
	CCIMappings          []snapshotCCIMapping  `json:"cci_mappings"`
	Technologies         []snapshotTechnology  `json:"technologies"`
}

type snapshotControl struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Parameters      []snapshotParameter `json:"parameters,omitempty"`
	RelatedControls []string            `json:"related_controls,omitempty"`
	Guidance        string              `json:"guidance,omitempty"`
}

type snapshotParameter struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type snapshotCCIMapping struct {
	CCI       string `json:"cci"`
	ControlID string `json:"control_id"`
}

type snapshotTechnology struct {
	Name        string                    `json:"name"`
	Title       string                    `json:"title"`
	BenchmarkID string                    `json:"benchmark_id"`
	Version     string                    `json:"version"`
	Rules       map[string][]snapshotRule `json:"rules"` // control id -> rules
}

type snapshotRule struct {
	RuleID   string `json:"rule_id"`
	Title    string `json:"title"`
	FixText  string `json:"fix_text"`
	Severity string `json:"severity,omitempty"`
}

// LoadSnapshot reads an ingestion snapshot file and builds the session
// knowledge base. Records failing validation are skipped with a warning
// rather than aborting the session.
func LoadSnapshot(path string, logger *slog.Logger) (*Base, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "knowledge")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding knowledge snapshot %s: %w", path, err)
	}

	return buildBase(&snap, logger), nil
}

func buildBase(snap *snapshot, logger *slog.Logger) *Base {
	base := NewBase()

	for _, sc := range snap.Controls {
		control := &core.Control{
			ID:          core.NormalizeControlID(sc.ID),
			Title:       sc.Title,
			Description: sc.Description,
			Guidance:    sc.Guidance,
		}
		for _, p := range sc.Parameters {
			control.Parameters = append(control.Parameters, core.Parameter{ID: p.ID, Label: p.Label})
		}
		for _, related := range sc.RelatedControls {
			control.RelatedControls = append(control.RelatedControls, core.NormalizeControlID(related))
		}
		if err := base.AddControl(control); err != nil {
			logger.Warn("skipping invalid control", "id", sc.ID, "err", err)
		}
	}
	logger.Info("loaded controls", "count", base.ControlCount())

	for baseline, members := range snap.Baselines {
		for _, id := range members {
			base.AddBaselineMember(baseline, id)
		}
	}

	for controlID, steps := range snap.AssessmentProcedures {
		base.SetProcedure(controlID, steps)
	}

	for _, m := range snap.CCIMappings {
		base.AddCCIMapping(m.CCI, m.ControlID)
	}
	if len(snap.CCIMappings) == 0 {
		logger.Warn("no CCI mappings in snapshot, using fallback seed", "count", len(defaultCCISeed))
		for _, m := range defaultCCISeed {
			base.AddCCIMapping(m.CCI, m.ControlID)
		}
	}

	for _, st := range snap.Technologies {
		tech := &core.Technology{
			Name:        st.Name,
			Title:       st.Title,
			BenchmarkID: st.BenchmarkID,
			Version:     st.Version,
		}
		for controlID, rules := range st.Rules {
			for _, r := range rules {
				tech.AddRule(controlID, core.HardeningRule{
					RuleID:   r.RuleID,
					Title:    r.Title,
					FixText:  r.FixText,
					Severity: core.ParseSeverity(r.Severity),
				})
			}
		}
		if err := base.AddTechnology(tech); err != nil {
			logger.Warn("skipping invalid technology", "name", st.Name, "err", err)
		}
	}
	logger.Info("loaded technologies", "count", len(base.Technologies()))

	return base
}
