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


package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/poiesic/compliq/core"
	"github.com/poiesic/compliq/knowledge"
)

// Candidate is the display metadata for one technology awaiting user
// selection.
type Candidate struct {
	Name    string
	Version string
	Title   string
}

// DisambiguationRequest asks the caller to pick from multiple matching
// technologies. Candidates are sorted lexicographically by name; the
// user answers with 0 for all of them or 1..N for a single candidate,
// and the caller re-invokes Resolve with that selection.
type DisambiguationRequest struct {
	Candidates []Candidate
}

// Resolve determines which technologies apply to the given controls.
//
// Applicable technologies are those with at least one hardening rule for
// any of the controls. A hint narrows that set by case-insensitive
// substring match on technology name; a hint matching nothing applicable
// falls back to the hinted set, then to the applicable set. One
// candidate resolves immediately. Multiple candidates without a
// selection return a DisambiguationRequest. An empty candidate set is a
// valid resolution, not an error.
func Resolve(base *knowledge.Base, controlIDs []string, hint string, selection *int) ([]*core.Technology, *DisambiguationRequest, error) {
	candidates := candidateTechnologies(base, controlIDs, hint)

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name < candidates[j].Name
	})

	if selection != nil {
		return selectCandidates(candidates, *selection)
	}
	if len(candidates) <= 1 {
		return candidates, nil, nil
	}

	request := &DisambiguationRequest{Candidates: make([]Candidate, len(candidates))}
	for i, tech := range candidates {
		request.Candidates[i] = Candidate{
			Name:    tech.Name,
			Version: tech.Version,
			Title:   tech.Title,
		}
	}
	return nil, request, nil
}

func candidateTechnologies(base *knowledge.Base, controlIDs []string, hint string) []*core.Technology {
	applicable := base.ApplicableTechnologies(controlIDs)
	seen := make(map[string]bool, len(applicable))
	for _, tech := range applicable {
		seen[tech.Name] = true
	}

	hint = strings.TrimSpace(strings.ToLower(hint))
	if hint == "" {
		return applicable
	}

	hinted := make([]*core.Technology, 0)
	for _, tech := range base.Technologies() {
		if strings.Contains(strings.ToLower(tech.Name), hint) {
			hinted = append(hinted, tech)
		}
	}

	both := make([]*core.Technology, 0, len(hinted))
	for _, tech := range hinted {
		if seen[tech.Name] {
			both = append(both, tech)
		}
	}

	if len(both) > 0 {
		return both
	}
	if len(hinted) > 0 {
		return hinted
	}
	return applicable
}

func selectCandidates(candidates []*core.Technology, selection int) ([]*core.Technology, *DisambiguationRequest, error) {
	if selection == 0 {
		return candidates, nil, nil
	}
	if selection < 0 || selection > len(candidates) {
		return nil, nil, fmt.Errorf("%w: %d is not in range 0..%d",
			ErrInvalidSelection, selection, len(candidates))
	}
	return candidates[selection-1 : selection], nil, nil
}
