package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PromptTemplate is the fixed system-instruction block of a critic, planner
// or composer call: role, purpose, numbered instructions, validation rules,
// examples and the output schema the answer must match. Templates are values;
// escalated retries derive a fresh template from the base one rather than
// mutating it.
type PromptTemplate struct {
	Role              string
	Purpose           string
	Lang              string
	GuidingPrinciples []string
	Instructions      []string
	Validation        []string
	Examples          []any
	OutputSchema      Shape
}

// WithAddendum returns a copy of the template with extra guiding principles,
// instructions, validation rules and examples appended, and the output schema
// replaced. The receiver is never modified, so repeated escalations always
// start from the same base.
func (t PromptTemplate) WithAddendum(principles, instructions, validation []string, examples []any, schema Shape) PromptTemplate {
	derived := t
	derived.GuidingPrinciples = append(append([]string{}, t.GuidingPrinciples...), principles...)
	derived.Instructions = append(append([]string{}, t.Instructions...), instructions...)
	derived.Validation = append(append([]string{}, t.Validation...), validation...)
	derived.Examples = append(append([]any{}, t.Examples...), examples...)
	derived.OutputSchema = schema
	return derived
}

// SystemPrompt renders the template as a sequence of XML-tagged sections.
func (t PromptTemplate) SystemPrompt() string {
	var sb strings.Builder
	writeSection(&sb, "role", t.Role, false)
	writeSection(&sb, "purpose", t.Purpose, false)
	writeSection(&sb, "lang", t.Lang, false)
	writeListSection(&sb, "guiding_principles", t.GuidingPrinciples, false)
	writeListSection(&sb, "instructions", t.Instructions, true)
	writeListSection(&sb, "validation", t.Validation, false)
	if len(t.Examples) > 0 {
		var parts []string
		for _, ex := range t.Examples {
			parts = append(parts, renderExample(ex))
		}
		writeSection(&sb, "examples", strings.Join(parts, "\n"), false)
	}
	writeSection(&sb, "output_schema", t.OutputSchema.String(), false)
	return strings.TrimSpace(sb.String())
}

// UserField is one named context blob of the user block. Fields keep their
// declaration order when rendered, unlike map iteration.
type UserField struct {
	Tag   string
	Value string
}

// PromptInstance binds a template to the per-call user context fields.
type PromptInstance struct {
	Template PromptTemplate
	Fields   []UserField
}

// NewPromptInstance creates a prompt instance for a single oracle call.
func NewPromptInstance(template PromptTemplate, fields ...UserField) *PromptInstance {
	return &PromptInstance{Template: template, Fields: fields}
}

// SystemPrompt renders the template's system block.
func (p *PromptInstance) SystemPrompt() string {
	return p.Template.SystemPrompt()
}

// UserPrompt renders the user block as tagged sections in field order.
func (p *PromptInstance) UserPrompt() string {
	var sb strings.Builder
	for _, f := range p.Fields {
		writeSection(&sb, f.Tag, f.Value, false)
	}
	return strings.TrimSpace(sb.String())
}

// Schema exposes the template's required output shape.
func (p *PromptInstance) Schema() Shape {
	return p.Template.OutputSchema
}

func writeSection(sb *strings.Builder, tag, content string, _ bool) {
	if content == "" {
		return
	}
	fmt.Fprintf(sb, "<%s>\n%s\n</%s>\n\n", tag, content, tag)
}

func writeListSection(sb *strings.Builder, tag string, items []string, numbered bool) {
	if len(items) == 0 {
		return
	}
	var lines []string
	for i, item := range items {
		if numbered {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
		} else {
			lines = append(lines, "- "+item)
		}
	}
	writeSection(sb, tag, strings.Join(lines, "\n"), false)
}

func renderExample(ex any) string {
	if s, ok := ex.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", ex)
	}
	return string(data)
}
