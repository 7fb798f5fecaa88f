package prompt

import "strings"

// DefaultSystem frames every engine as an answer engine.
const DefaultSystem = "You are a search assistant. Provide direct, comprehensive answers to queries as if you were an AI search engine like ChatGPT, Perplexity, or Gemini. Include specific recommendations when relevant."

// System returns the configured system prompt or DefaultSystem when blank.
func System(configured string) string {
	if s := strings.TrimSpace(configured); s != "" {
		return s
	}
	return DefaultSystem
}

// ForKeyword builds the user message for a tracked keyword. The keyword is sent as-is,
// the way a user would type it into an answer engine.
func ForKeyword(keyword string) string {
	return strings.TrimSpace(keyword)
}
