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
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/poiesic/compliq/core"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	severityHighStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))

	severityMediumStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("226"))

	severityLowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("46"))
)

func header(text string) string {
	return headerStyle.Render("### " + text)
}

func subheader(text string) string {
	return headerStyle.Render("#### " + text)
}

func label(name string) string {
	return labelStyle.Render(name+":") + " "
}

func notice(text string) string {
	return noticeStyle.Render(text)
}

func severityText(s core.Severity) string {
	text := "Severity: " + s.String()
	switch s {
	case core.SeverityHigh:
		return severityHighStyle.Render(text)
	case core.SeverityLow:
		return severityLowStyle.Render(text)
	default:
		return severityMediumStyle.Render(text)
	}
}

func ruleLines(rule core.HardeningRule, verifyPhrasing bool) []string {
	title := rule.Title
	if title == "" {
		title = rule.RuleID
	}

	lines := []string{
		fmt.Sprintf("- Rule %s - %s (%s)", rule.RuleID, title, severityText(rule.Severity)),
	}
	if rule.FixText != "" {
		if verifyPhrasing {
			lines = append(lines, "  - Check: Verify the fix is applied: "+rule.FixText)
		} else {
			lines = append(lines, "  - Fix: "+rule.FixText)
		}
	}
	return lines
}

func stigTable(techs []*core.Technology) []string {
	lines := []string{
		header("Available STIGs"),
		fmt.Sprintf("%-30s %-45s %-10s", "Technology", "Title", "Version"),
		strings.Repeat("-", 87),
	}
	for _, tech := range techs {
		title := tech.Title
		if title == "" {
			title = tech.Name + " STIG"
		}
		lines = append(lines, fmt.Sprintf("%-30s %-45s %-10s", tech.Name, title, tech.Version))
	}
	return lines
}

// firstSentence returns the text up to and including the first period,
// or the whole text when it has none.
func firstSentence(text string) string {
	if i := strings.Index(text, "."); i >= 0 {
		return strings.TrimSpace(text[:i+1])
	}
	return strings.TrimSpace(text)
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
