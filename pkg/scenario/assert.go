package scenario

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Evaluate runs the assertions of exp against obs. Each field is checked
// independently; omitted fields produce no assertions.
func Evaluate(exp *Expectation, obs *Observed) []AssertionResult {
	var results []AssertionResult

	if exp.ExpectedSuccess != nil {
		results = append(results, evalBool("expected_success", *exp.ExpectedSuccess, obs.Success))
	}
	if exp.ExpectedFinished != nil {
		results = append(results, evalBool("expected_finished", *exp.ExpectedFinished, obs.Finished))
	}
	if exp.ExpectedErrors != "" {
		results = append(results, evalCount("expected_errors", exp.ExpectedErrors, obs.Errors))
	}
	if exp.ExpectedWarnings != "" {
		results = append(results, evalCount("expected_warnings", exp.ExpectedWarnings, obs.Warnings))
	}
	if exp.ExpectedCritical != "" {
		results = append(results, evalCount("expected_critical", exp.ExpectedCritical, obs.Critical))
	}
	for _, pattern := range exp.MustContain {
		results = append(results, evalMustContain(pattern, obs.Messages))
	}
	for _, pattern := range exp.MustNotContain {
		results = append(results, evalMustNotContain(pattern, obs.Messages))
	}
	return results
}

// HasFailures returns true if any assertion in the slice failed.
func HasFailures(results []AssertionResult) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

func evalBool(typ string, expected, actual bool) AssertionResult {
	passed := expected == actual
	msg := ""
	if !passed {
		msg = fmt.Sprintf("%s: expected %t, got %t", typ, expected, actual)
	}
	return AssertionResult{
		Type:     typ,
		Expected: strconv.FormatBool(expected),
		Actual:   strconv.FormatBool(actual),
		Passed:   passed,
		Message:  msg,
	}
}

func evalCount(typ, expected string, actual int) AssertionResult {
	a := strconv.Itoa(actual)
	passed, msg := compareValue(expected, a)
	if msg != "" {
		msg = typ + ": " + msg
	}
	return AssertionResult{
		Type:     typ,
		Expected: expected,
		Actual:   a,
		Passed:   passed,
		Message:  msg,
	}
}

// compareValue determines if an actual string satisfies an expected assertion.
// Supports three forms:
//   - Regex:   "/pattern/"
//   - Numeric: ">0", "<100", ">=1", "<=50", "==0", "!=0"
//   - Exact:   any other string (literal equality)
func compareValue(expected, actual string) (bool, string) {
	if re, ok, err := regexPattern(expected); ok {
		if err != nil {
			return false, err.Error()
		}
		if re.MatchString(actual) {
			return true, ""
		}
		return false, fmt.Sprintf("value %q does not match pattern %s", actual, expected)
	}

	for _, op := range []string{">=", "<=", "!=", "==", ">", "<"} {
		if strings.HasPrefix(expected, op) {
			threshold := strings.TrimSpace(expected[len(op):])
			return compareNumeric(op, threshold, actual)
		}
	}

	if strings.TrimSpace(expected) == actual {
		return true, ""
	}
	return false, fmt.Sprintf("expected %q, got %q", expected, actual)
}

func compareNumeric(op, threshold, actual string) (bool, string) {
	tVal, tErr := strconv.ParseFloat(threshold, 64)
	aVal, aErr := strconv.ParseFloat(actual, 64)
	if tErr != nil || aErr != nil {
		return false, fmt.Sprintf("numeric comparison %s%s failed: cannot parse %q or %q as number", op, threshold, actual, threshold)
	}

	var passed bool
	switch op {
	case ">":
		passed = aVal > tVal
	case "<":
		passed = aVal < tVal
	case ">=":
		passed = aVal >= tVal
	case "<=":
		passed = aVal <= tVal
	case "==":
		passed = aVal == tVal
	case "!=":
		passed = aVal != tVal
	}

	if passed {
		return true, ""
	}
	return false, fmt.Sprintf("expected %s%s, got %s", op, threshold, actual)
}

// regexPattern reports whether s has the /pattern/ form and compiles it.
func regexPattern(s string) (*regexp.Regexp, bool, error) {
	if len(s) < 2 || s[0] != '/' || s[len(s)-1] != '/' {
		return nil, false, nil
	}
	pattern := s[1 : len(s)-1]
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, true, fmt.Errorf("invalid regex %q: %v", pattern, err)
	}
	return re, true, nil
}

// firstMatch returns the first message matching pattern, or "".
func firstMatch(pattern string, messages []string) (string, error) {
	re, isRegex, err := regexPattern(pattern)
	if err != nil {
		return "", err
	}
	for _, m := range messages {
		if isRegex && re.MatchString(m) || !isRegex && strings.Contains(m, pattern) {
			return m, nil
		}
	}
	return "", nil
}

func evalMustContain(pattern string, messages []string) AssertionResult {
	res := AssertionResult{Type: "must_contain", Key: pattern}
	match, err := firstMatch(pattern, messages)
	switch {
	case err != nil:
		res.Message = err.Error()
	case match == "":
		res.Message = fmt.Sprintf("no finding matches %q", pattern)
	default:
		res.Actual = match
		res.Passed = true
	}
	return res
}

func evalMustNotContain(pattern string, messages []string) AssertionResult {
	res := AssertionResult{Type: "must_not_contain", Key: pattern}
	match, err := firstMatch(pattern, messages)
	switch {
	case err != nil:
		res.Message = err.Error()
	case match != "":
		res.Actual = match
		res.Message = fmt.Sprintf("finding %q matches %q but should not", match, pattern)
	default:
		res.Passed = true
	}
	return res
}
