package services

import (
	"fmt"

	"challenge-arena/internal/models"
)

// ResultAggregator recomputes per-member cached scores from a challenge's
// active results.
type ResultAggregator struct{}

// Compute filters the challenge's active results, groups them by member,
// applies the challenge's aggregation strategy per group, and writes each
// member's CachedAggregatedResult in memory. Persisting the mutated
// members is the caller's job and must happen before any end-condition or
// winner evaluation reads these scores.
//
// The returned mapping holds only members with at least one active
// result: a member who never scored does not dilute progress averages or
// enter winner selection, and MAX and MIN never see an empty value set
// here. Such members keep a cached score of 0.
func (ResultAggregator) Compute(challenge *models.Challenge) (map[uint]float64, error) {
	scores := make(map[uint]float64, len(challenge.Members))

	for i := range challenge.Members {
		member := &challenge.Members[i]

		var values []float64
		for j := range member.Results {
			result := &member.Results[j]
			if !challenge.IsResultActive(result) {
				continue
			}
			if challenge.IsEstimationRequired {
				values = append(values, *result.EstimationValue)
			} else {
				values = append(values, result.SubmittedValue)
			}
		}

		if len(values) == 0 {
			member.CachedAggregatedResult = 0
			continue
		}

		score, err := AggregateValues(challenge.ResultsAggregationStrategy, values)
		if err != nil {
			return nil, fmt.Errorf("aggregate member %d: %w", member.ID, err)
		}

		member.CachedAggregatedResult = score
		scores[member.ID] = score
	}

	return scores, nil
}
