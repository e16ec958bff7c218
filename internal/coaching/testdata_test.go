package coaching

import "github.com/fyrsmithlabs/coachd/internal/analysis"

// mixedMetrics has improvements in every tier but context.
func mixedMetrics() analysis.CombinedMetrics {
	return analysis.CombinedMetrics{
		Vision: analysis.VisualMetrics{
			ExpressionScores: analysis.ExpressionScores{Joy: 0.6},
			EyeContactProxy:  0.45,
			SmileRatio:       0.4,
			FramesAnalyzed:   20,
		}.Normalized(),
		Voice: analysis.VocalMetrics{
			Transcript:      "so um I think I could maybe do the job",
			WPM:             95,
			PitchHz:         140,
			Energy:          0.05,
			FillerCount:     7,
			DurationSeconds: 60,
			WordCount:       95,
		}.Normalized(),
		Language: analysis.LinguisticMetrics{
			GrammarScore:      0.9,
			Confidence:        0.5,
			SentenceCount:     8,
			AvgSentenceLength: 12,
			VocabDiversity:    0.6,
		}.Normalized(),
	}
}

// strongMetrics meets every threshold.
func strongMetrics() analysis.CombinedMetrics {
	return analysis.CombinedMetrics{
		Vision: analysis.VisualMetrics{
			ExpressionScores: analysis.ExpressionScores{Joy: 0.7},
			EyeContactProxy:  0.8,
			SmileRatio:       0.5,
			FramesAnalyzed:   20,
		}.Normalized(),
		Voice: analysis.VocalMetrics{
			WPM:         140,
			PitchHz:     150,
			Energy:      0.06,
			FillerCount: 1,
		}.Normalized(),
		Language: analysis.LinguisticMetrics{
			GrammarScore:      0.95,
			Confidence:        0.8,
			AvgSentenceLength: 14,
			VocabDiversity:    0.7,
		}.Normalized(),
	}
}
