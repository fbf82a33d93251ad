package verifier

import (
	"fmt"
	"io"
	"log/slog"
)

// Severity grades a finding
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Metric is what a finding measured
type Metric string

const (
	MetricLines Metric = "lines"
	MetricBytes Metric = "bytes"
	MetricFile  Metric = "file"
)

// Finding is one comparison between a current file and its previous version
type Finding struct {
	File     string
	Metric   Metric
	Previous int64
	Current  int64
	Severity Severity
	Message  string
}

// Report collects the findings of one verification
type Report struct {
	Findings []Finding
}

// HasErrors reports whether any finding is an error
func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Count returns the number of findings with severity s
func (r *Report) Count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// Verifier compares two sets of file stats
type Verifier struct {
	threshold float64
	logger    *slog.Logger
}

// New creates a verifier. A drop of threshold (a fraction, e.g. 0.05) or
// more in lines or bytes is an error.
func New(threshold float64, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Verifier{threshold: threshold, logger: logger}
}

// Compare checks every current file against the previous file of the same
// name. Files only present in previous are reported as warnings.
func (v *Verifier) Compare(current, previous map[string]FileStat) *Report {
	report := &Report{}
	for _, name := range Names(current) {
		cur := current[name]
		prev, ok := previous[name]
		if !ok {
			report.Findings = append(report.Findings, Finding{
				File:     name,
				Metric:   MetricFile,
				Current:  cur.Lines,
				Severity: SeverityInfo,
				Message:  "no previous version",
			})
			continue
		}
		report.Findings = append(report.Findings,
			v.check(name, MetricLines, prev.Lines, cur.Lines),
			v.check(name, MetricBytes, prev.Bytes, cur.Bytes),
		)
	}

	for _, name := range Names(previous) {
		if _, ok := current[name]; !ok {
			report.Findings = append(report.Findings, Finding{
				File:     name,
				Metric:   MetricFile,
				Previous: previous[name].Lines,
				Severity: SeverityWarning,
				Message:  "missing from current release",
			})
		}
	}

	v.logger.Info("verification finished",
		"files", len(current),
		"errors", report.Count(SeverityError),
		"warnings", report.Count(SeverityWarning),
	)
	return report
}

func (v *Verifier) check(name string, metric Metric, previous, current int64) Finding {
	f := Finding{File: name, Metric: metric, Previous: previous, Current: current, Severity: SeverityInfo}
	if v.significantDrop(previous, current) {
		f.Severity = SeverityError
		f.Message = fmt.Sprintf("significantly fewer %s than previous release (%d vs. %d), difference: %d", metric, current, previous, previous-current)
		return f
	}
	f.Message = fmt.Sprintf("%d vs. %d %s, difference: %d", current, previous, metric, current-previous)
	return f
}

func (v *Verifier) significantDrop(previous, current int64) bool {
	if previous <= 0 {
		return false
	}
	return float64(previous-current)/float64(previous) >= v.threshold
}
