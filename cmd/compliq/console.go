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


package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/poiesic/compliq"
	"github.com/poiesic/compliq/query"
	"github.com/poiesic/compliq/resolve"
	"github.com/poiesic/compliq/response"
)

// console runs the interactive read-answer loop. Query failures are
// printed and the loop continues; only EOF or an exit command ends the
// session.
type console struct {
	assistant *compliq.Assistant
	scanner   *bufio.Scanner
	out       io.Writer
}

func newConsole(assistant *compliq.Assistant, in io.Reader, out io.Writer) *console {
	return &console{
		assistant: assistant,
		scanner:   bufio.NewScanner(in),
		out:       out,
	}
}

func (c *console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Ask about NIST 800-53 controls and STIG hardening. Type 'help' for examples, 'exit' to quit.")

	for {
		line, ok := c.readLine("compliq> ")
		if !ok {
			return nil
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(c.out, "Goodbye.")
			return nil
		case "help":
			c.printHelp()
			continue
		}

		c.answer(ctx, line)
	}
}

func (c *console) answer(ctx context.Context, text string) {
	generateChecklist := false
	intent := query.Classify(text)
	if intent.Kind == query.KindAssessControl || intent.Kind == query.KindImplementControl {
		generateChecklist = c.confirm("Generate an assessment checklist for this query? (y/n) ")
	}

	outcome, err := c.assistant.Ask(ctx, text, nil, generateChecklist)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}

	for outcome.Disambiguation != nil {
		outcome, err = c.disambiguate(ctx, text, outcome.Disambiguation, generateChecklist)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			return
		}
		if outcome == nil {
			return
		}
	}

	fmt.Fprintln(c.out, outcome.Text)
}

// disambiguate prompts for a technology selection and retries the query.
// Returns nil, nil when input ends before a selection is made.
func (c *console) disambiguate(ctx context.Context, text string, request *resolve.DisambiguationRequest, generateChecklist bool) (*response.Outcome, error) {
	fmt.Fprintln(c.out, "Multiple technologies match this query:")
	fmt.Fprintln(c.out, "  0. All of the below")
	for i, candidate := range request.Candidates {
		fmt.Fprintf(c.out, "  %d. %s (%s)\n", i+1, candidate.Name, candidate.Version)
	}

	for {
		line, ok := c.readLine(fmt.Sprintf("Select 0-%d: ", len(request.Candidates)))
		if !ok {
			return nil, nil
		}

		selection, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintln(c.out, "Enter a number from the list above.")
			continue
		}

		outcome, err := c.assistant.Ask(ctx, text, &selection, generateChecklist)
		if err != nil {
			if errors.Is(err, resolve.ErrInvalidSelection) {
				fmt.Fprintln(c.out, "Enter a number from the list above.")
				continue
			}
			return nil, err
		}
		return outcome, nil
	}
}

func (c *console) confirm(prompt string) bool {
	line, ok := c.readLine(prompt)
	if !ok {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (c *console) readLine(prompt string) (string, bool) {
	fmt.Fprint(c.out, prompt)
	if !c.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.scanner.Text()), true
}

func (c *console) printHelp() {
	fmt.Fprintln(c.out, `Example questions:
  What is AU-2?
  How do I assess AC-17?
  How should AU-2 be implemented on Windows 10?
  What control does CCI-000130 map to?
  What are the CCI mappings for AC-7?
  List STIGs
  List STIGs for Windows

Commands:
  help    Show this message
  exit    End the session`)
}
