// Package coaching turns combined analysis metrics into a coaching record.
//
// Stage.Run fans out to two branches joined with errgroup: the feedback
// aggregator ranks per-metric assessments by impact tier, and the recommender
// maps weaknesses to exercise searches. Recommendation failures degrade to an
// empty list; a feedback failure fails the stage with ErrNoFeedback.
package coaching
