package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTemplate() PromptTemplate {
	return PromptTemplate{
		Role:              "You are a test critic.",
		Purpose:           "Audit the draft.",
		Lang:              "English",
		GuidingPrinciples: []string{"Output one JSON object."},
		Instructions:      []string{"Read the draft.", "Score it."},
		Validation:        []string{"Result must parse as JSON."},
		OutputSchema:      Object(map[string]Shape{"score": Number()}),
	}
}

func TestSystemPromptSections(t *testing.T) {
	prompt := sampleTemplate().SystemPrompt()

	assert.Contains(t, prompt, "<role>\nYou are a test critic.\n</role>")
	assert.Contains(t, prompt, "<lang>\nEnglish\n</lang>")
	assert.Contains(t, prompt, "1. Read the draft.")
	assert.Contains(t, prompt, "2. Score it.")
	assert.Contains(t, prompt, "- Output one JSON object.")
	assert.Contains(t, prompt, "<output_schema>")
	assert.Contains(t, prompt, `"score": "number"`)
}

func TestSystemPromptSkipsEmptySections(t *testing.T) {
	tpl := PromptTemplate{Role: "r", OutputSchema: Object(nil)}
	prompt := tpl.SystemPrompt()

	assert.NotContains(t, prompt, "<lang>")
	assert.NotContains(t, prompt, "<instructions>")
}

func TestWithAddendumDoesNotStack(t *testing.T) {
	base := sampleTemplate()
	addendum := []string{"Return only JSON."}

	first := base.WithAddendum(addendum, nil, nil, nil, base.OutputSchema)
	second := base.WithAddendum(addendum, nil, nil, nil, base.OutputSchema)

	// Escalations always derive from the unmodified base.
	assert.Len(t, base.GuidingPrinciples, 1)
	assert.Len(t, first.GuidingPrinciples, 2)
	assert.Len(t, second.GuidingPrinciples, 2)
	assert.Equal(t, 1, strings.Count(second.SystemPrompt(), "Return only JSON."))
}

func TestWithAddendumReplacesSchema(t *testing.T) {
	base := sampleTemplate()
	schema := base.OutputSchema.WithField("extra", String())
	derived := base.WithAddendum(nil, nil, nil, nil, schema)

	assert.Len(t, base.OutputSchema.Fields, 1)
	assert.Len(t, derived.OutputSchema.Fields, 2)
}

func TestUserPromptPreservesFieldOrder(t *testing.T) {
	inst := NewPromptInstance(sampleTemplate(),
		UserField{Tag: "zeta", Value: "first"},
		UserField{Tag: "alpha", Value: "second"},
	)
	prompt := inst.UserPrompt()

	assert.Less(t, strings.Index(prompt, "<zeta>"), strings.Index(prompt, "<alpha>"))
	assert.Contains(t, prompt, "<zeta>\nfirst\n</zeta>")
}

func TestUserPromptSkipsEmptyFields(t *testing.T) {
	inst := NewPromptInstance(sampleTemplate(),
		UserField{Tag: "present", Value: "x"},
		UserField{Tag: "absent", Value: ""},
	)
	assert.NotContains(t, inst.UserPrompt(), "<absent>")
}
