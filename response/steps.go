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

import "strings"

// StepExtractor derives actionable verification steps from control
// description prose. It is the last-resort step source, used only when a
// control has neither a structured assessment procedure nor retrievable
// assessment snippets.
type StepExtractor interface {
	Extract(description string) []string
}

// actionVerbs are the verbs that open an actionable clause.
var actionVerbs = map[string]bool{
	"verify":  true,
	"ensure":  true,
	"check":   true,
	"review":  true,
	"confirm": true,
	"examine": true,
}

// HeuristicExtractor extracts steps by scanning sentences for action
// verbs and emitting the clause from the verb to the sentence end. A
// description with no actionable clause yields a single "verify <first
// sentence>" step.
type HeuristicExtractor struct{}

var _ StepExtractor = HeuristicExtractor{}

// Extract implements StepExtractor.
func (HeuristicExtractor) Extract(description string) []string {
	sentences := splitSentences(strings.ToLower(description))

	var steps []string
	for _, sentence := range sentences {
		words := strings.Fields(sentence)
		for i, word := range words {
			if actionVerbs[strings.Trim(word, ",;:")] && i < len(words)-1 {
				steps = append(steps, strings.Join(words[i:], " "))
				break
			}
		}
	}

	if len(steps) == 0 && len(sentences) > 0 {
		return []string{"verify " + sentences[0]}
	}
	return steps
}

func splitSentences(text string) []string {
	var sentences []string
	for _, part := range strings.Split(text, ".") {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}
