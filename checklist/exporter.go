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


package checklist

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/compliq/core"
)

// DefaultDir is where exported checklists land when no directory is
// configured.
const DefaultDir = "assessment_checklists"

// TechnologyRules pairs a technology name with the hardening rules it
// contributes to an export.
type TechnologyRules struct {
	Technology string
	Rules      []core.HardeningRule
}

// Exporter writes assessment checklists as CSV files. Every invocation
// creates a new timestamped file; existing files are never touched.
type Exporter struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

// NewExporter creates an exporter writing into dir, which is created on
// first export if absent. An empty dir uses DefaultDir.
func NewExporter(dir string, opts ...Option) *Exporter {
	if dir == "" {
		dir = DefaultDir
	}
	e := &Exporter{
		dir:    dir,
		logger: slog.Default().With("component", "checklist"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Records assembles the checklist rows for a control: one row per
// assessment step, then one row per hardening rule of each technology,
// all with status Pending. Procedure steps carry severity "N/A" since
// severity is a property of STIG rules only.
func Records(controlID string, steps []string, techRules []TechnologyRules) []core.ChecklistRecord {
	id := core.NormalizeControlID(controlID)

	records := make([]core.ChecklistRecord, 0, len(steps))
	for i, step := range steps {
		records = append(records, core.ChecklistRecord{
			Source:      "NIST " + id,
			ItemID:      fmt.Sprintf("%s-step-%d", id, i+1),
			Action:      "Verify " + id,
			Description: step,
			Severity:    "N/A",
			Status:      core.StatusPending,
		})
	}

	for _, tr := range techRules {
		for _, rule := range tr.Rules {
			records = append(records, core.ChecklistRecord{
				Source:      "STIG " + tr.Technology,
				ItemID:      rule.RuleID,
				Action:      rule.Title,
				Description: rule.FixText,
				Severity:    rule.Severity.String(),
				Status:      core.StatusPending,
			})
		}
	}

	return records
}

// Export writes the checklist for a control and returns the created file
// path. File names embed a second-resolution timestamp; a collision
// within the same second falls back to a numbered suffix.
func (e *Exporter) Export(controlID string, steps []string, techRules []TechnologyRules) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	id := core.NormalizeControlID(controlID)
	stamp := e.now().Format("20060102_150405")

	file, path, err := e.createUnique(id, stamp)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Source", "Step", "Action", "Description", "Severity", "Evidence", "Status"}); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	for _, record := range Records(id, steps, techRules) {
		row := []string{
			record.Source,
			record.ItemID,
			record.Action,
			record.Description,
			record.Severity,
			record.Evidence,
			record.Status,
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	e.logger.Info("exported checklist", "control", id, "path", path)
	return path, nil
}

func (e *Exporter) createUnique(id, stamp string) (*os.File, string, error) {
	base := fmt.Sprintf("checklist_%s_%s", id, stamp)
	for attempt := 0; ; attempt++ {
		name := base + ".csv"
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d.csv", base, attempt)
		}
		path := filepath.Join(e.dir, name)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !os.IsExist(err) || attempt >= 10 {
			return nil, "", err
		}
	}
}
