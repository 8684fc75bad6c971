package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"challenge-arena/internal/models"
	"challenge-arena/internal/repository"
)

// LifecycleEngine advances challenges through their lifecycle:
// SCHEDULED -> ACTIVE -> FINISHED, with no back-transitions. The state
// itself is derived from the clock and the cached progress; the engine
// only writes the derived fields (member score caches, progress,
// finalized_at, winner flags).
type LifecycleEngine struct {
	repo       *repository.Repository
	aggregator ResultAggregator
}

func NewLifecycleEngine(repo *repository.Repository) *LifecycleEngine {
	return &LifecycleEngine{repo: repo}
}

// Evaluate runs one evaluation pass for a challenge. It is idempotent and
// safe to call repeatedly and concurrently: every call works on a fresh
// view of the challenge inside its own transaction, and finalization is
// guarded by an atomic claim on finalized_at.
//
// Reaching 100% progress and finalizing never happen within one call: a
// challenge detected as ended has its progress frozen at 100 first, and
// winner selection runs on the next evaluation, when the state is observed
// as FINISHED. A failure rolls back the whole pass.
func (e *LifecycleEngine) Evaluate(ctx context.Context, challengeID uint) error {
	return e.repo.Transaction(ctx, func(r *repository.Repository) error {
		challenge, err := r.GetChallengeByID(ctx, challengeID)
		if err != nil {
			return fmt.Errorf("load challenge %d: %w", challengeID, err)
		}

		now := time.Now()

		switch challenge.StateAt(now) {
		case models.ChallengeStateScheduled:
			return nil
		case models.ChallengeStateActive:
			return e.evaluateActive(ctx, r, challenge, now)
		case models.ChallengeStateFinished:
			return e.finalize(ctx, r, challenge, now)
		}
		return nil
	})
}

// evaluateActive refreshes the cached member scores, checks the end
// condition against them and updates the cached progress.
func (e *LifecycleEngine) evaluateActive(
	ctx context.Context,
	r *repository.Repository,
	challenge *models.Challenge,
	now time.Time,
) error {
	scores, err := e.aggregator.Compute(challenge)
	if err != nil {
		return err
	}
	// Scores must be durable before the end condition reads them.
	if err := r.SaveMemberAggregates(ctx, challenge.Members); err != nil {
		return fmt.Errorf("save member aggregates: %w", err)
	}

	finished, err := e.endConditionMet(challenge, scores, now)
	if err != nil {
		return err
	}

	if finished {
		log.Printf("[LifecycleEngine] Challenge %d reached its end condition", challenge.ID)
		return r.UpdateChallengeProgress(ctx, challenge.ID, 100)
	}

	// A fixed-deadline challenge has no determination function to derive
	// a percentage from; its progress stays where it is until the deadline.
	if challenge.EndsAtConst != nil ||
		challenge.EndsAtDeterminationFn == nil ||
		challenge.EndsAtDeterminationArgument == nil {
		return nil
	}

	values := make([]float64, 0, len(scores))
	for _, score := range scores {
		values = append(values, score)
	}
	progress, err := SelectionProgress(
		*challenge.EndsAtDeterminationFn,
		values,
		*challenge.EndsAtDeterminationArgument,
	)
	if err != nil {
		return err
	}

	return r.UpdateChallengeProgress(ctx, challenge.ID, progress)
}

// endConditionMet decides whether the challenge is over: past the fixed
// deadline when one is set, otherwise when the end-determination selection
// matches at least one member. Any single qualifying member ends the
// challenge for everyone.
func (e *LifecycleEngine) endConditionMet(
	challenge *models.Challenge,
	scores map[uint]float64,
	now time.Time,
) (bool, error) {
	if challenge.EndsAtConst != nil {
		return !now.Before(*challenge.EndsAtConst), nil
	}

	if challenge.EndsAtDeterminationFn == nil || challenge.EndsAtDeterminationArgument == nil {
		return false, nil
	}

	selected, err := SelectMembers(
		*challenge.EndsAtDeterminationFn,
		scores,
		*challenge.EndsAtDeterminationArgument,
	)
	if err != nil {
		return false, err
	}
	return len(selected) > 0, nil
}

// finalize runs the one-time completion of a finished challenge:
// recompute the aggregates, pick the winners with the prize determination
// function, mark them, grant the challenge's achievement when one is
// configured, and stamp finalized_at. All writes share one transaction.
func (e *LifecycleEngine) finalize(
	ctx context.Context,
	r *repository.Repository,
	challenge *models.Challenge,
	now time.Time,
) error {
	if challenge.FinalizedAt != nil {
		return nil
	}

	scores, err := e.aggregator.Compute(challenge)
	if err != nil {
		return err
	}
	if err := r.SaveMemberAggregates(ctx, challenge.Members); err != nil {
		return fmt.Errorf("save member aggregates: %w", err)
	}

	claimed, err := r.ClaimFinalization(ctx, challenge.ID, now)
	if err != nil {
		return fmt.Errorf("claim finalization: %w", err)
	}
	if !claimed {
		// A concurrent evaluation finalized first.
		log.Printf("[LifecycleEngine] Challenge %d already finalized, skipping", challenge.ID)
		return nil
	}

	if err := r.UpdateChallengeProgress(ctx, challenge.ID, 100); err != nil {
		return err
	}

	winnerIDs, err := SelectMembers(
		challenge.PrizeDeterminationFn,
		scores,
		challenge.PrizeDeterminationArgument,
	)
	if err != nil {
		return err
	}

	if err := r.MarkWinners(ctx, winnerIDs); err != nil {
		return fmt.Errorf("mark winners: %w", err)
	}

	if challenge.AchievementID != nil {
		assignations := make([]models.AchievementAssignation, 0, len(winnerIDs))
		for _, memberID := range winnerIDs {
			for i := range challenge.Members {
				if challenge.Members[i].ID == memberID {
					assignations = append(assignations, models.AchievementAssignation{
						UserID:        challenge.Members[i].UserID,
						ChallengeID:   challenge.ID,
						AchievementID: *challenge.AchievementID,
					})
					break
				}
			}
		}
		if err := r.CreateAchievementAssignations(ctx, assignations); err != nil {
			return fmt.Errorf("assign achievements: %w", err)
		}
	}

	log.Printf("[LifecycleEngine] Challenge %d finalized with %d winner(s)", challenge.ID, len(winnerIDs))
	return nil
}
