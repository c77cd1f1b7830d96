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


package core

import "fmt"

// ValidateControl validates a Control at the ingestion boundary.
//
// Validation rules:
//   - ID must be a well-formed, canonical control id
//   - Title must not be empty
//
// NOT validated:
//   - Description, Parameters, RelatedControls, Guidance (all may be empty;
//     the response path renders their absence gracefully)
func ValidateControl(control *Control) error {
	if control == nil {
		return fmt.Errorf("%w: control is nil", ErrInvalidControl)
	}

	if !IsControlID(control.ID) || NormalizeControlID(control.ID) != control.ID {
		return fmt.Errorf("%w: %w: %q", ErrInvalidControl, ErrInvalidControlID, control.ID)
	}

	if control.Title == "" {
		return fmt.Errorf("%w: title cannot be empty for %s", ErrInvalidControl, control.ID)
	}

	return nil
}

// ValidateHardeningRule validates a HardeningRule at the ingestion boundary.
func ValidateHardeningRule(rule *HardeningRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is nil", ErrInvalidRule)
	}

	if rule.RuleID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRule, ErrEmptyRuleID)
	}

	return nil
}

// ValidateTechnology validates a Technology at the ingestion boundary.
func ValidateTechnology(tech *Technology) error {
	if tech == nil {
		return fmt.Errorf("%w: technology is nil", ErrInvalidTechnology)
	}

	if tech.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTechnology, ErrEmptyTechnologyName)
	}

	for controlID, rules := range tech.RulesByControl {
		if NormalizeControlID(controlID) != controlID {
			return fmt.Errorf("%w: rule bucket key %q is not normalized", ErrInvalidTechnology, controlID)
		}
		for i := range rules {
			if err := ValidateHardeningRule(&rules[i]); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidTechnology, tech.Name, err)
			}
		}
	}

	return nil
}

// ValidateSnippet validates a DocumentSnippet before indexing.
func ValidateSnippet(snippet *DocumentSnippet) error {
	if snippet == nil {
		return fmt.Errorf("%w: snippet is nil", ErrInvalidSnippet)
	}

	if snippet.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSnippet, ErrEmptySnippetText)
	}

	if snippet.ControlID != "" && NormalizeControlID(snippet.ControlID) != snippet.ControlID {
		return fmt.Errorf("%w: %w: %q", ErrInvalidSnippet, ErrInvalidControlID, snippet.ControlID)
	}

	return nil
}
