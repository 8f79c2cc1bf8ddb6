// Package scenario runs regression scenarios: directories holding a complete
// standard tree plus an expect.yaml describing what a validation run over
// that tree must report.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ExpectFile is the expectation file of a scenario directory.
const ExpectFile = "expect.yaml"

// Expectation lists the assertions for one scenario. All fields are
// optional; omitted fields are not asserted.
//
// Count fields accept an exact number ("3"), a comparison (">0", "<=2") or a
// /regex/. Entries of MustContain and MustNotContain are substrings of a
// finding message, or a /regex/ matched against it.
type Expectation struct {
	ExpectedSuccess  *bool    `yaml:"expected_success,omitempty"  json:"expected_success,omitempty"`
	ExpectedFinished *bool    `yaml:"expected_finished,omitempty" json:"expected_finished,omitempty"`
	ExpectedErrors   string   `yaml:"expected_errors,omitempty"   json:"expected_errors,omitempty"`
	ExpectedWarnings string   `yaml:"expected_warnings,omitempty" json:"expected_warnings,omitempty"`
	ExpectedCritical string   `yaml:"expected_critical,omitempty" json:"expected_critical,omitempty"`
	MustContain      []string `yaml:"must_contain,omitempty"      json:"must_contain,omitempty"`
	MustNotContain   []string `yaml:"must_not_contain,omitempty"  json:"must_not_contain,omitempty"`
	Description      string   `yaml:"description,omitempty"       json:"description,omitempty"`
	Tags             []string `yaml:"tags,omitempty"              json:"tags,omitempty"`
}

// LoadExpectation reads and parses an expect.yaml file.
func LoadExpectation(path string) (*Expectation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expectation: %w", err)
	}
	return ParseExpectation(data)
}

// ParseExpectation strictly parses an Expectation from raw YAML bytes.
func ParseExpectation(data []byte) (*Expectation, error) {
	var exp Expectation
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&exp); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse expectation: %w", err)
	}
	return &exp, nil
}

// HasTag reports whether the scenario carries tag.
func (e *Expectation) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
