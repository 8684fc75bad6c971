package models

import (
	"testing"
	"time"
)

func TestStateAt(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		challenge Challenge
		want      ChallengeState
	}{
		{
			"before start",
			Challenge{StartsAt: now.Add(time.Hour)},
			ChallengeStateScheduled,
		},
		{
			"running",
			Challenge{StartsAt: now.Add(-time.Hour)},
			ChallengeStateActive,
		},
		{
			"running with partial progress",
			Challenge{StartsAt: now.Add(-time.Hour), CachedCurrentProgress: 99},
			ChallengeStateActive,
		},
		{
			"full progress",
			Challenge{StartsAt: now.Add(-time.Hour), CachedCurrentProgress: 100},
			ChallengeStateFinished,
		},
		{
			"starts exactly now",
			Challenge{StartsAt: now},
			ChallengeStateActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.challenge.StateAt(now); got != tt.want {
				t.Errorf("StateAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsResultActive(t *testing.T) {
	value := 10.0

	tests := []struct {
		name      string
		challenge Challenge
		result    ChallengeResult
		want      bool
	}{
		{
			"no adjudication required",
			Challenge{},
			ChallengeResult{SubmittedValue: 5},
			true,
		},
		{
			"estimation required and missing",
			Challenge{IsEstimationRequired: true},
			ChallengeResult{SubmittedValue: 5},
			false,
		},
		{
			"estimation required and present",
			Challenge{IsEstimationRequired: true},
			ChallengeResult{SubmittedValue: 5, EstimationValue: &value},
			true,
		},
		{
			"verification required and missing",
			Challenge{IsVerificationRequired: true},
			ChallengeResult{SubmittedValue: 5},
			false,
		},
		{
			"both required, one missing",
			Challenge{IsEstimationRequired: true, IsVerificationRequired: true},
			ChallengeResult{SubmittedValue: 5, EstimationValue: &value},
			false,
		},
		{
			"both required and present",
			Challenge{IsEstimationRequired: true, IsVerificationRequired: true},
			ChallengeResult{SubmittedValue: 5, EstimationValue: &value, VerificationValue: &value},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.challenge.IsResultActive(&tt.result); got != tt.want {
				t.Errorf("IsResultActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChallengePatchApply(t *testing.T) {
	original := Challenge{
		Name:                       "original",
		Description:                "desc",
		ResultsAggregationStrategy: AggregationSum,
		PrizeDeterminationFn:       SelectionTail,
		PrizeDeterminationArgument: 1,
	}

	name := "renamed"
	strategy := AggregationAvg
	arg := 3.0
	patch := ChallengePatch{
		Name:                       &name,
		ResultsAggregationStrategy: &strategy,
		PrizeDeterminationArgument: &arg,
	}

	patched := original
	patch.Apply(&patched)

	if patched.Name != "renamed" {
		t.Errorf("expected name to change, got %q", patched.Name)
	}
	if patched.ResultsAggregationStrategy != AggregationAvg {
		t.Errorf("expected strategy AVG, got %v", patched.ResultsAggregationStrategy)
	}
	if patched.PrizeDeterminationArgument != 3 {
		t.Errorf("expected argument 3, got %v", patched.PrizeDeterminationArgument)
	}
	// Absent fields stay untouched.
	if patched.Description != "desc" {
		t.Errorf("expected description unchanged, got %q", patched.Description)
	}
	if patched.PrizeDeterminationFn != SelectionTail {
		t.Errorf("expected prize fn unchanged, got %v", patched.PrizeDeterminationFn)
	}
}

func TestActiveResults(t *testing.T) {
	value := 1.0
	challenge := Challenge{
		IsVerificationRequired: true,
		Members: []ChallengeMember{
			{ID: 1, Results: []ChallengeResult{
				{ID: 10, SubmittedValue: 5, VerificationValue: &value},
				{ID: 11, SubmittedValue: 6},
			}},
			{ID: 2, Results: []ChallengeResult{
				{ID: 12, SubmittedValue: 7, VerificationValue: &value},
			}},
		},
	}

	active := challenge.ActiveResults()
	if len(active) != 2 {
		t.Fatalf("expected 2 active results, got %d", len(active))
	}
	if active[0].ID != 10 || active[1].ID != 12 {
		t.Errorf("expected results 10 and 12, got %d and %d", active[0].ID, active[1].ID)
	}
}
