// Package embeddings turns text into vectors for the exercise catalog.
//
// Two providers are available. The hash provider is a local feature-hashing
// embedder with no network dependency and is the default. The openai provider
// calls any OpenAI-compatible /embeddings endpoint through langchaingo.
package embeddings
