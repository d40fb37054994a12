package types

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// ExtractionRequest is the input of one extraction call.
type ExtractionRequest struct {
	Transcript  string
	Restriction Restriction
	// Question is the follow-up the user is answering, empty on the first turn.
	Question string
}

func formatFieldsSection(title string, fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString(title)
	buf.WriteString("\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Key", "Field", "Rules")
	for _, f := range fields {
		info, ok := Describe(f)
		if !ok {
			continue
		}
		_ = table.Append(string(info.Field), info.DisplayName, info.Description)
	}
	_ = table.Render()
	return buf.String()
}

func formatRestrictionSection(r Restriction) string {
	switch v := r.(type) {
	case OnlyFields:
		names := make([]string, 0, len(v))
		for _, f := range v {
			names = append(names, string(f))
		}
		return fmt.Sprintf("# Restriction:\nYou are ONLY allowed to fill: %s. All other keys MUST be null. You may infer a value implicitly when the transcript answers the requested field.", strings.Join(names, ", "))
	default:
		return "# Restriction:\nFill as many keys as the transcript supports. A key that is not explicitly present must be null."
	}
}

// FormatExtractionRequest renders req as the user message of an extraction prompt.
func FormatExtractionRequest(req *ExtractionRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("nil extraction request")
	}
	if err := CheckRestriction(req.Restriction); err != nil {
		return "", err
	}
	sections := []string{
		formatRestrictionSection(req.Restriction),
	}
	if s := formatFieldsSection("# Fields to extract:", AllowedFields(req.Restriction)); s != "" {
		sections = append(sections, s)
	}
	if req.Question != "" {
		sections = append(sections, fmt.Sprintf("# Assistant Question:\n%s", req.Question))
	}
	sections = append(sections, fmt.Sprintf("# Transcript:\n%s", req.Transcript))
	return strings.Join(sections, "\n\n"), nil
}
