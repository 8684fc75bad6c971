package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-arena/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestComputeGroupsResultsByMember(t *testing.T) {
	challenge := &models.Challenge{
		ResultsAggregationStrategy: models.AggregationSum,
		Members: []models.ChallengeMember{
			{ID: 1, Results: []models.ChallengeResult{
				{SubmittedValue: 10},
				{SubmittedValue: 380},
			}},
			{ID: 2, Results: []models.ChallengeResult{
				{SubmittedValue: 7},
			}},
		},
	}

	scores, err := ResultAggregator{}.Compute(challenge)
	require.NoError(t, err)

	assert.Equal(t, map[uint]float64{1: 390, 2: 7}, scores)
	assert.Equal(t, 390.0, challenge.Members[0].CachedAggregatedResult)
	assert.Equal(t, 7.0, challenge.Members[1].CachedAggregatedResult)
}

func TestComputeSkipsMembersWithoutActiveResults(t *testing.T) {
	challenge := &models.Challenge{
		ResultsAggregationStrategy: models.AggregationMax,
		IsVerificationRequired:     true,
		Members: []models.ChallengeMember{
			{ID: 1, Results: []models.ChallengeResult{
				{SubmittedValue: 50, VerificationValue: floatPtr(45)},
			}},
			{ID: 2, CachedAggregatedResult: 12, Results: []models.ChallengeResult{
				{SubmittedValue: 80}, // unverified, not active
			}},
			{ID: 3},
		},
	}

	scores, err := ResultAggregator{}.Compute(challenge)
	require.NoError(t, err)

	// Members 2 and 3 contribute no active results: they are absent from
	// the mapping and their stale caches reset to 0. MAX never saw an
	// empty group.
	assert.Equal(t, map[uint]float64{1: 50}, scores)
	assert.Equal(t, 0.0, challenge.Members[1].CachedAggregatedResult)
	assert.Equal(t, 0.0, challenge.Members[2].CachedAggregatedResult)
}

func TestComputeUsesEstimationValueWhenRequired(t *testing.T) {
	challenge := &models.Challenge{
		ResultsAggregationStrategy: models.AggregationSum,
		IsEstimationRequired:       true,
		Members: []models.ChallengeMember{
			{ID: 1, Results: []models.ChallengeResult{
				{SubmittedValue: 100, EstimationValue: floatPtr(60)},
				{SubmittedValue: 40}, // unestimated, not active
			}},
		},
	}

	scores, err := ResultAggregator{}.Compute(challenge)
	require.NoError(t, err)

	assert.Equal(t, map[uint]float64{1: 60}, scores)
}

func TestComputeRequiresBothAdjudications(t *testing.T) {
	challenge := &models.Challenge{
		ResultsAggregationStrategy: models.AggregationSum,
		IsEstimationRequired:       true,
		IsVerificationRequired:     true,
		Members: []models.ChallengeMember{
			{ID: 1, Results: []models.ChallengeResult{
				{SubmittedValue: 10, EstimationValue: floatPtr(10)},
				{SubmittedValue: 20, VerificationValue: floatPtr(20)},
				{SubmittedValue: 30, EstimationValue: floatPtr(25), VerificationValue: floatPtr(30)},
			}},
		},
	}

	scores, err := ResultAggregator{}.Compute(challenge)
	require.NoError(t, err)

	// Only the fully adjudicated result counts, at its estimated value.
	assert.Equal(t, map[uint]float64{1: 25}, scores)
}
