// Package analysis defines the per-modality metric records and the sequential
// pipeline that produces them.
//
// Every record embeds an Outcome tag. Extractor failures are stored as the
// zeroed error variant of the same type, so CombinedMetrics always carries
// all three modalities and callers check Failed() instead of probing fields.
package analysis
