package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You are an emotion classifier for personal journal entries.
You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON.
The object has these fields:
  "happiness", "sadness", "anger", "fear", "surprise", "disgust": numbers between 0 and 1
  "confidence": number between 0 and 1
  "summary": one short sentence describing the writer's mood
  "keywords": up to five words from the entry that drove the scores`

// cleanMarkdownWrapper strips a ```json fence some models wrap around the
// object, plus any text outside the outermost braces.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// decodeModelContent parses the text a chat model produced.
func decodeModelContent(content string) (any, error) {
	content = cleanMarkdownWrapper(content)
	if content == "" {
		return nil, invalidResponse(fmt.Errorf("empty model response"))
	}
	var payload any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, invalidResponse(fmt.Errorf("failed to parse JSON response: %w", err))
	}
	return payload, nil
}
