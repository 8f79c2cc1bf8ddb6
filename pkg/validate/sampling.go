package validate

import (
	"math"
	"path/filepath"
	"slices"

	"github.com/ormasoftchile/mcpstd/pkg/document"
)

var (
	samplingModes = []string{"llm", "tool", "prompt"}
	fallbackTypes = []string{"tool", "prompt"}
)

const maxTemperature = 2.0

// ValidateSampling checks the sampling block. A missing enabled, mode or
// fallback stops the remaining sampling checks.
func (v *ContextValidator) ValidateSampling(doc *document.ContextDocument) bool {
	s := doc.Sampling
	if s == nil {
		return true
	}
	file, name := v.rel(doc.Path()), filepath.Base(doc.Path())
	valid := true

	if !s.Enabled.Present() {
		v.col.AddCritical(file, "sampling is missing required field in %s: enabled", name)
		valid = false
	}
	if !s.Mode.Present() {
		v.col.AddCritical(file, "sampling is missing required field in %s: mode", name)
		valid = false
	}
	if s.Fallback == nil {
		v.col.AddCritical(file, "sampling is missing required field in %s: fallback", name)
		valid = false
	}
	if !valid {
		return false
	}

	mode := s.Mode.Text()
	if !s.Mode.IsString() || !slices.Contains(samplingModes, mode) {
		v.col.AddCritical(file, "invalid sampling mode in %s: %s", name, s.Mode.Display())
		valid = false
	}
	if mode == "llm" && !v.validateLLMConfig(file, name, s.LLMConfig) {
		valid = false
	}
	if !v.validateFallback(file, name, s.Fallback) {
		valid = false
	}
	return valid
}

func (v *ContextValidator) validateLLMConfig(file, name string, c *document.LLMConfig) bool {
	if c == nil {
		v.col.AddCritical(file, "LLM config missing in %s", name)
		return false
	}
	valid := true
	for _, f := range []struct {
		key string
		v   document.Value
	}{
		{"model", c.Model},
		{"temperature", c.Temperature},
		{"max_tokens", c.MaxTokens},
	} {
		if !f.v.Present() {
			v.col.AddCritical(file, "LLM config is missing required field in %s: %s", name, f.key)
			valid = false
		}
	}

	if c.Temperature.Present() {
		t, ok := c.Temperature.Float()
		if !ok || math.IsNaN(t) || t < 0 || t > maxTemperature {
			v.col.AddCritical(file, "invalid temperature in %s: %s (must be a number in [0, 2])", name, c.Temperature.Display())
			valid = false
		}
	}
	if c.MaxTokens.Present() {
		n, ok := c.MaxTokens.Int()
		if !ok || n < 1 {
			v.col.AddCritical(file, "invalid max_tokens in %s: %s (must be a positive integer)", name, c.MaxTokens.Display())
			valid = false
		}
	}
	return valid
}

func (v *ContextValidator) validateFallback(file, name string, f *document.Fallback) bool {
	if !f.Type.Present() {
		v.col.AddCritical(file, "fallback type not defined in %s", name)
		return false
	}
	typ := f.Type.Text()
	if !f.Type.IsString() || !slices.Contains(fallbackTypes, typ) {
		v.col.AddCritical(file, "invalid fallback type in %s: %s", name, f.Type.Display())
		return false
	}

	switch typ {
	case "tool":
		if f.ToolConfig == nil {
			v.col.AddCritical(file, "tool config missing in %s", name)
			return false
		}
		valid := true
		if !f.ToolConfig.Name.Present() {
			v.col.AddCritical(file, "tool config is missing required field in %s: name", name)
			valid = false
		}
		if !f.ToolConfig.Parameters.Present() {
			v.col.AddCritical(file, "tool config is missing required field in %s: parameters", name)
			valid = false
		}
		return valid
	case "prompt":
		if !f.PromptTemplate.Present() {
			v.col.AddCritical(file, "prompt template missing in %s", name)
			return false
		}
	}
	return true
}
