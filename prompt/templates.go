package prompt

// Built-in template names.
const (
	RefineQuery    = "refine_query"
	ClassifyThemes = "classify_themes"
	AskMissing     = "ask_missing"
)

var builtins = map[string]string{
	RefineQuery: `You refine analytics requests for a social listening dashboard.

User input: {{.input}}
{{if .history}}Conversation so far:
{{.history}}
{{end}}{{if .existing}}Requirements gathered so far (JSON):
{{.existing}}
{{end}}{{if .matches}}Candidate filters from the knowledge base:
{{.matches}}
{{end}}
Extract the products, channels, analysis goals, time period and location the
user wants. Respond with a single JSON object:
{"refined_query": string, "products": [string], "channels": [string],
 "goals": [string], "time_period": string, "location": string,
 "confidence": number}
Leave fields you cannot determine empty. Do not invent values.`,

	ClassifyThemes: `You group social media records into themes for the request:
{{.query}}

Records (JSON array, each has an id):
{{.records}}

Respond with a JSON array of themes:
[{"name": string, "keywords": [string], "relevance": number,
  "member_ids": [string]}]
Every record id must appear in exactly one theme. Relevance is the share of
records in the theme, between 0 and 1.`,

	AskMissing: `I still need a bit more to run this analysis. Please provide: {{.fields}}.`,
}
