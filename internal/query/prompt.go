package query

import "strings"

const (
	queryPlaceholder         = "{{query}}"
	searchResultsPlaceholder = "{{searchResults}}"
)

const promptTemplate = `You are an intelligent assistant helping users make sense of online search results. Your task is to summarize the search results and provide a clear and concise response to the user's query.

User's query:
"{{query}}"

Relevant search results:
{{searchResults}}

Using the information above:
1. Summarize the key points from the search results that are most relevant to the query.
2. Provide a clear and helpful response to the user's query based on the summarized information.
3. If no relevant information is found, suggest next steps or clarify ambiguities in the query.
`

// Compose fills the fixed instruction template with query and searchContext.
// Substitution is a single literal pass: placeholder-looking text inside
// either value ends up in the prompt unchanged.
func Compose(query, searchContext string) string {
	r := strings.NewReplacer(
		queryPlaceholder, query,
		searchResultsPlaceholder, searchContext,
	)
	return r.Replace(promptTemplate)
}
