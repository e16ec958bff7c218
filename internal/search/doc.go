// Package search finds practice exercises for coaching weaknesses.
//
// The built-in exercise catalog is embedded into an in-process chromem-go
// collection at startup and queried by semantic similarity.
package search
