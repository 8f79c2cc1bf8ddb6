package scenario

import (
	"testing"
)

func TestParseExpectationFull(t *testing.T) {
	data := []byte(`
description: broken error codes
tags: [schema, smoke]
expected_success: false
expected_finished: true
expected_errors: ">0"
expected_warnings: "0"
expected_critical: "1"
must_contain:
  - error code out of range
must_not_contain:
  - /circular reference/
`)
	exp, err := ParseExpectation(data)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if exp.ExpectedSuccess == nil || *exp.ExpectedSuccess {
		t.Errorf("expected_success = %v, want false", exp.ExpectedSuccess)
	}
	if exp.ExpectedFinished == nil || !*exp.ExpectedFinished {
		t.Errorf("expected_finished = %v, want true", exp.ExpectedFinished)
	}
	if exp.ExpectedErrors != ">0" || exp.ExpectedWarnings != "0" || exp.ExpectedCritical != "1" {
		t.Errorf("counts = %q %q %q", exp.ExpectedErrors, exp.ExpectedWarnings, exp.ExpectedCritical)
	}
	if len(exp.MustContain) != 1 || len(exp.MustNotContain) != 1 {
		t.Errorf("must_contain = %v, must_not_contain = %v", exp.MustContain, exp.MustNotContain)
	}
	if !exp.HasTag("smoke") || exp.HasTag("layout") {
		t.Errorf("tags = %v", exp.Tags)
	}
}

func TestParseExpectationEmpty(t *testing.T) {
	exp, err := ParseExpectation(nil)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got := Evaluate(exp, &Observed{}); len(got) != 0 {
		t.Errorf("empty expectation produced %d assertions", len(got))
	}
}

func TestParseExpectationUnknownField(t *testing.T) {
	if _, err := ParseExpectation([]byte("expected_sucess: true\n")); err == nil {
		t.Fatal("misspelled field should be rejected")
	}
}

func TestCompareValue(t *testing.T) {
	tests := []struct {
		expected, actual string
		want             bool
	}{
		{"3", "3", true},
		{"3", "4", false},
		{" 0", "0", true},
		{">0", "2", true},
		{">0", "0", false},
		{">=2", "2", true},
		{"<=1", "2", false},
		{"<5", "4", true},
		{"==0", "0", true},
		{"!=0", "0", false},
		{"/^[0-9]$/", "7", true},
		{"/^[0-9]$/", "17", false},
		{">x", "1", false},
		{"/([/", "1", false},
	}
	for _, tt := range tests {
		got, msg := compareValue(tt.expected, tt.actual)
		if got != tt.want {
			t.Errorf("compareValue(%q, %q) = %v (%s), want %v", tt.expected, tt.actual, got, msg, tt.want)
		}
		if !got && msg == "" {
			t.Errorf("compareValue(%q, %q) failed without a message", tt.expected, tt.actual)
		}
	}
}

func TestEvaluate(t *testing.T) {
	yes, no := true, false
	obs := &Observed{
		Success:  false,
		Finished: true,
		Errors:   2,
		Warnings: 1,
		Critical: 2,
		Messages: []string{
			"error code out of range in error_schema.yaml: -32100 (server codes must be in [-32099, -32000])",
			"security warning: certificate pinning not configured in mcp_context.yaml",
		},
	}

	tests := []struct {
		name string
		exp  Expectation
		pass []bool
	}{
		{"success", Expectation{ExpectedSuccess: &no, ExpectedFinished: &yes}, []bool{true, true}},
		{"success mismatch", Expectation{ExpectedSuccess: &yes}, []bool{false}},
		{"counts", Expectation{ExpectedErrors: "2", ExpectedWarnings: ">=1", ExpectedCritical: "<2"}, []bool{true, true, false}},
		{"substring", Expectation{MustContain: []string{"error code out of range", "circular reference"}}, []bool{true, false}},
		{"regex", Expectation{MustContain: []string{`/-32\d{3} \(server/`}}, []bool{true}},
		{"must not contain", Expectation{MustNotContain: []string{"TLS disabled", "/pinning/"}}, []bool{true, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(&tt.exp, obs)
			if len(got) != len(tt.pass) {
				t.Fatalf("got %d assertions, want %d: %+v", len(got), len(tt.pass), got)
			}
			for i, a := range got {
				if a.Passed != tt.pass[i] {
					t.Errorf("assertion %d (%s %s) passed = %v, want %v: %s", i, a.Type, a.Key, a.Passed, tt.pass[i], a.Message)
				}
				if !a.Passed && a.Message == "" {
					t.Errorf("assertion %d failed without a message", i)
				}
			}
		})
	}
}

func TestHasFailures(t *testing.T) {
	if HasFailures(nil) {
		t.Error("no assertions should not fail")
	}
	if HasFailures([]AssertionResult{{Passed: true}}) {
		t.Error("all passed should not fail")
	}
	if !HasFailures([]AssertionResult{{Passed: true}, {Passed: false}}) {
		t.Error("one failure should fail")
	}
}
