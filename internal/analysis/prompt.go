package analysis

import (
	"strings"

	"aipm/internal/rules"
)

// DefaultSystemPrompt is sent as the system message with every evaluation.
const DefaultSystemPrompt = "You are an analytical assistant."

// BuildPrompt composes the user prompt asking the model to judge content
// against rule. The content is embedded verbatim.
func BuildPrompt(rule rules.Rule, content string) string {
	var sb strings.Builder

	sb.WriteString("Analyze the following document against the given rule.\n\n")

	sb.WriteString("Document content:\n")
	sb.WriteString(content)
	sb.WriteString("\n\n")

	sb.WriteString("Rule: ")
	sb.WriteString(rule.Name())
	sb.WriteString("\n")
	sb.WriteString("Instruction: ")
	sb.WriteString(rule.Instruction())
	sb.WriteString("\n\n")

	sb.WriteString("Determine whether the document complies with the rule.\n")
	sb.WriteString("Respond with a JSON object containing only these fields:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"decision\": true or false (true if the document complies with the rule),\n")
	sb.WriteString("  \"justification\": \"a brief explanation of your decision\"\n")
	sb.WriteString("}\n")
	sb.WriteString("Do not include any other text.")

	return sb.String()
}
