// Package orchestrator runs one coaching session end to end.
//
// A session moves through a fixed state machine:
//
//	CREATED → ANALYZING → COACHING → RECORDING → EVALUATING → DONE
//
// with FAILED reachable from every state except DONE. Each state is a phase:
// CREATED runs the media gates, ANALYZING runs the analysis pipeline,
// COACHING runs the coaching stage, RECORDING appends the snapshot to
// progress memory and computes deltas against the prior session, and
// EVALUATING scores the coaching record.
//
// Only three failures end a session early: a media gate reporting a
// critical violation, a coaching stage with no feedback, and context
// cancellation. Modality errors, recommendation search failures, memory
// failures and evaluator failures are carried in the report as warnings.
//
// Capabilities are injected through New; the orchestrator holds no
// per-session state between calls and Run may be called concurrently.
package orchestrator
