// Package evaluation scores coaching records against a rubric.
//
// RubricEvaluator is a local heuristic. LLMEvaluator asks a chat model,
// reached through langchaingo's OpenAI-compatible client, to grade the record
// and return JSON. FallbackEvaluator chains the two.
package evaluation
