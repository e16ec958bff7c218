// Package extractors implements the analysis capability interfaces.
//
// VisionClient and SpeechClient upload media to HTTP model services and share
// rate limiting, retry with exponential backoff and tracing. TextAnalyzer runs
// locally: sentence statistics, filler and confidence cue matching with an
// Aho-Corasick automaton, and language identification.
package extractors
