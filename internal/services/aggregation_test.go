package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-arena/internal/models"
)

func TestAggregateValues(t *testing.T) {
	tests := []struct {
		name     string
		strategy models.AggregationStrategy
		values   []float64
		want     float64
	}{
		{"sum single", models.AggregationSum, []float64{10}, 10},
		{"sum pair", models.AggregationSum, []float64{10, 380}, 390},
		{"sum empty", models.AggregationSum, nil, 0},
		{"sum negatives", models.AggregationSum, []float64{-5, 5, 3}, 3},
		{"avg pair", models.AggregationAvg, []float64{10, 20}, 15},
		{"avg single", models.AggregationAvg, []float64{42}, 42},
		{"avg empty", models.AggregationAvg, nil, 0},
		{"max", models.AggregationMax, []float64{3, 9, 1}, 9},
		{"max single", models.AggregationMax, []float64{-7}, -7},
		{"min", models.AggregationMin, []float64{3, 9, 1}, 1},
		{"min negatives", models.AggregationMin, []float64{0, -2, 4}, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AggregateValues(tt.strategy, tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregateValuesEmptyExtremes(t *testing.T) {
	for _, strategy := range []models.AggregationStrategy{models.AggregationMax, models.AggregationMin} {
		t.Run(string(strategy), func(t *testing.T) {
			_, err := AggregateValues(strategy, nil)
			assert.ErrorIs(t, err, models.ErrEmptyAggregation)
		})
	}
}

func TestAggregateValuesUnknownStrategy(t *testing.T) {
	_, err := AggregateValues(models.AggregationStrategy("MEDIAN"), []float64{1, 2})
	assert.Error(t, err)
}
