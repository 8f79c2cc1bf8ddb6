// Package result defines validation findings and the per-validator collector
// that accumulates them.
package result

import (
	"fmt"
	"strings"
)

// Level distinguishes counted errors from advisory warnings.
type Level string

const (
	LevelError   Level = "ERROR"
	LevelWarning Level = "WARNING"
)

// Severity classifies an error by impact. Warnings are always NonCritical.
type Severity int

const (
	NonCritical Severity = iota
	Critical
)

// Response-time SLA in minutes, derived from Severity.
const (
	CriticalResponseMinutes    = 15
	NonCriticalResponseMinutes = 60
)

// String returns the boundary spelling used in documents and reports.
func (s Severity) String() string {
	if s == Critical {
		return "critical"
	}
	return "non-critical"
}

// ResponseMinutes returns the SLA ceiling for the severity.
func (s Severity) ResponseMinutes() int {
	if s == Critical {
		return CriticalResponseMinutes
	}
	return NonCriticalResponseMinutes
}

// MarshalText lets Severity appear as its string form in JSON and YAML.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the boundary spelling.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity converts "critical" / "non-critical" (case-insensitive;
// "non_critical" and "noncritical" are accepted) to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return Critical, nil
	case "non-critical", "non_critical", "noncritical":
		return NonCritical, nil
	default:
		return NonCritical, fmt.Errorf("unknown severity %q", s)
	}
}

// Result is one validation finding. Values are never mutated after creation.
type Result struct {
	Level        Level    `json:"level"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	File         string   `json:"file,omitempty"`
	ResponseTime int      `json:"response_time"` // minutes
}

func newResult(level Level, file, message string, severity Severity) Result {
	return Result{
		Level:        level,
		Severity:     severity,
		Message:      message,
		File:         file,
		ResponseTime: severity.ResponseMinutes(),
	}
}

// IsCritical reports whether r is a critical error.
func (r Result) IsCritical() bool {
	return r.Level == LevelError && r.Severity == Critical
}

func (r Result) String() string {
	if r.Level == LevelWarning {
		return fmt.Sprintf("[%s] %s", r.Level, r.Message)
	}
	return fmt.Sprintf("[%s][%s] %s", r.Level, r.Severity, r.Message)
}
