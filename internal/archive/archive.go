// Package archive persists immutable session and break records as
// line-delimited JSON, one file per calendar month. Records are only
// ever appended; each line is self-contained so a month can be
// replayed or aggregated without any other state.
package archive

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// WorkRecord is the archived form of a finished work session.
type WorkRecord struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Goal            string    `json:"goal,omitempty"`
	Project         string    `json:"project,omitempty"`
	PomodoroCount   int       `json:"pomodoro_count"`
	PlannedDuration int       `json:"planned_duration_seconds"`
	Duration        int       `json:"duration_seconds"`
	EarlyStop       bool      `json:"early_stop"`
	Reason          string    `json:"termination_reason,omitempty"`
}

// BreakRecord is the archived form of a finished break.
type BreakRecord struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Type            string    `json:"type"`
	PlannedDuration int       `json:"planned_duration_seconds"`
	Duration        int       `json:"duration_seconds"`
	CompletedFully  bool      `json:"completed_fully"`
}

// Archive appends and reads the monthly record logs in one directory.
type Archive struct {
	dir string
}

// New creates an archive rooted at the given directory.
func New(dir string) *Archive {
	return &Archive{dir: dir}
}

// Month identifies one calendar-month partition, formatted 2006-01.
type Month string

// MonthOf returns the partition a timestamp belongs to.
func MonthOf(t time.Time) Month {
	return Month(t.Format("2006-01"))
}

// ParseMonth validates a YYYY-MM string.
func ParseMonth(value string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("archive: invalid month %q (want YYYY-MM)", value)
	}
	return MonthOf(t), nil
}

func (a *Archive) workPath(m Month) string {
	return filepath.Join(a.dir, fmt.Sprintf("work-%s.jsonl", m))
}

func (a *Archive) breakPath(m Month) string {
	return filepath.Join(a.dir, fmt.Sprintf("breaks-%s.jsonl", m))
}

// AppendWork writes one work record to the partition of its end time.
// The append is a single O_APPEND write, so concurrent appenders
// interleave whole lines rather than corrupting each other.
func (a *Archive) AppendWork(record WorkRecord) error {
	return a.appendLine(a.workPath(MonthOf(record.EndTime)), record)
}

// AppendBreak writes one break record to the partition of its end time.
func (a *Archive) AppendBreak(record BreakRecord) error {
	return a.appendLine(a.breakPath(MonthOf(record.EndTime)), record)
}

func (a *Archive) appendLine(path string, v any) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("archive: ensure archive dir: %w", err)
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("archive: encode record: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", path, err)
	}
	defer file.Close()
	if _, err := file.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("archive: append to %s: %w", path, err)
	}
	return nil
}

// WorkRecords reads every work record in a month, oldest first. A
// missing partition yields an empty slice.
func (a *Archive) WorkRecords(m Month) ([]WorkRecord, error) {
	var records []WorkRecord
	err := readLines(a.workPath(m), func(line []byte) error {
		var record WorkRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

// BreakRecords reads every break record in a month, oldest first.
func (a *Archive) BreakRecords(m Month) ([]BreakRecord, error) {
	var records []BreakRecord
	err := readLines(a.breakPath(m), func(line []byte) error {
		var record BreakRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

// Months lists the partitions present on disk, oldest first.
func (a *Archive) Months() ([]Month, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: list %s: %w", a.dir, err)
	}
	seen := map[Month]bool{}
	for _, entry := range entries {
		name := entry.Name()
		for _, prefix := range []string{"work-", "breaks-"} {
			if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".jsonl") {
				raw := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".jsonl")
				if m, err := ParseMonth(raw); err == nil {
					seen[m] = true
				}
			}
		}
	}
	months := make([]Month, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
	return months, nil
}

func readLines(path string, fn func([]byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("archive: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn([]byte(line)); err != nil {
			return fmt.Errorf("archive: %s line %d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("archive: scan %s: %w", path, err)
	}
	return nil
}
