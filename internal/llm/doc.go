// Package llm talks to the mood classification service. It supports a plain
// HTTP classification endpoint as well as OpenAI and Anthropic models prompted
// to score emotions, and turns whatever they return into a normalized
// model.MoodAnalysisResult. It never retries; callers own retry policy.
package llm
