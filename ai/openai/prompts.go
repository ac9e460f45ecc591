package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/quarry/ai"
)

const classificationResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "intent": {"type": "string"},
    "scope": {"type": "string"},
    "keywords": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z0-9]+( [a-z0-9]+)*$"}
    },
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["intent", "scope", "keywords", "confidence"],
  "additionalProperties": false
}`

const classificationPromptTemplate = `Classify a search query over a corpus of business documents (emails, contracts, memos, reports) and return JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- intent must be exactly one of: %s.
- scope must be exactly one of: %s. Use Narrow for a single fact, Focused for one topic, Broad for several topics, Exhaustive for audits of everything.
- keywords are the 1-5 terms that should be searched for, lowercase, most important first. Keep names of people and companies.
- confidence is a number from 0 to 1 describing how sure you are of the intent.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "who is negotiating the TechCorp acquisition"
Output:
{"intent":"EntityExtraction","scope":"Focused","keywords":["techcorp","acquisition","negotiating"],"confidence":0.85}

Example:
Input: "any GDPR violations in vendor contracts since 2022"
Output:
{"intent":"ComplianceAudit","scope":"Broad","keywords":["gdpr","violation","vendor","contract"],"confidence":0.9}

Example:
Input: "what happened with the merger"
Output:
{"intent":"TimelineAnalysis","scope":"Focused","keywords":["merger"],"confidence":0.6}`

const suggestionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "queries": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["queries"],
  "additionalProperties": false
}`

const suggestionPromptTemplate = `Suggest follow-up search queries for an investigator searching a corpus of business documents and return JSON.

Output ONLY valid JSON which complies with the schema given below. Start your response directly with the opening
brace { and end with the closing brace }. Your output must exactly follow this schema:

%s

Rules:
- Suggest at most %d queries.
- Each query must be a short natural-language question or phrase, different from the original query.
- Prefer queries that follow up on the themes found, such as people, companies, dates and risks.
- Do not number the queries. Do not repeat a query.
- If nothing useful can be suggested, return "queries": [].`

// buildClassificationPrompt creates the classifier system prompt with the label sets embedded.
func buildClassificationPrompt() string {
	return fmt.Sprintf(classificationPromptTemplate,
		classificationResponseSchema,
		strings.Join(ai.IntentLabels, ", "),
		strings.Join(ai.ScopeLabels, ", "))
}

// buildSuggestionPrompt creates the suggester system prompt.
func buildSuggestionPrompt(limit int) string {
	return fmt.Sprintf(suggestionPromptTemplate, suggestionResponseSchema, limit)
}

// buildSuggestionInput renders the query and themes as the user message.
func buildSuggestionInput(query string, themes []string) string {
	var b strings.Builder
	b.WriteString("Original query: ")
	b.WriteString(query)
	if len(themes) > 0 {
		b.WriteString("\nThemes found: ")
		b.WriteString(strings.Join(themes, "; "))
	}
	return b.String()
}
