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

import "errors"

// Domain validation errors
var (
	// ErrInvalidControl indicates a Control failed validation.
	ErrInvalidControl = errors.New("invalid control")

	// ErrInvalidControlID indicates a control id is not in canonical form.
	ErrInvalidControlID = errors.New("invalid control id")

	// ErrInvalidRule indicates a HardeningRule failed validation.
	ErrInvalidRule = errors.New("invalid hardening rule")

	// ErrEmptyRuleID indicates the RuleID field is empty.
	ErrEmptyRuleID = errors.New("rule id cannot be empty")

	// ErrInvalidTechnology indicates a Technology failed validation.
	ErrInvalidTechnology = errors.New("invalid technology")

	// ErrEmptyTechnologyName indicates the technology Name field is empty.
	ErrEmptyTechnologyName = errors.New("technology name cannot be empty")

	// ErrInvalidSnippet indicates a DocumentSnippet failed validation.
	ErrInvalidSnippet = errors.New("invalid document snippet")

	// ErrEmptySnippetText indicates the snippet Text field is empty.
	ErrEmptySnippetText = errors.New("snippet text cannot be empty")
)
