package services

import (
	"fmt"

	"challenge-arena/internal/models"
)

// AggregateValues reduces a multiset of result values to a single score
// using the given strategy.
//
// SUM and AVG are total: an empty input yields 0. MAX and MIN have no
// meaningful value for an empty input and return ErrEmptyAggregation;
// callers that tolerate members without results must guard before calling.
func AggregateValues(strategy models.AggregationStrategy, values []float64) (float64, error) {
	switch strategy {
	case models.AggregationSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum, nil

	case models.AggregationAvg:
		if len(values) == 0 {
			return 0, nil
		}
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), nil

	case models.AggregationMax:
		if len(values) == 0 {
			return 0, fmt.Errorf("MAX: %w", models.ErrEmptyAggregation)
		}
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max, nil

	case models.AggregationMin:
		if len(values) == 0 {
			return 0, fmt.Errorf("MIN: %w", models.ErrEmptyAggregation)
		}
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min, nil

	default:
		return 0, fmt.Errorf("unknown aggregation strategy %q", strategy)
	}
}
