package repository

import (
	"context"
	"time"

	"challenge-arena/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn with a repository scoped to one database
// transaction. Any error rolls the whole transaction back.
func (r *Repository) Transaction(ctx context.Context, fn func(*Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// GetChallengeByID retrieves a challenge with its members, their users and
// their results fully loaded, so one evaluation never triggers further
// reads on field access.
func (r *Repository) GetChallengeByID(ctx context.Context, challengeID uint) (*models.Challenge, error) {
	var challenge models.Challenge
	err := r.db.WithContext(ctx).
		Preload("Members.User").
		Preload("Members.Results").
		Where("id = ?", challengeID).
		First(&challenge).Error
	if err == gorm.ErrRecordNotFound {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// ListUnfinalizedChallengeIDs returns the IDs of every challenge whose
// finalization has not run yet. Finalized challenges are inert for the
// lifecycle engine and are skipped by the runner.
func (r *Repository) ListUnfinalizedChallengeIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Challenge{}).
		Where("finalized_at IS NULL").
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveMemberAggregates persists the cached aggregated score of each member
func (r *Repository) SaveMemberAggregates(ctx context.Context, members []models.ChallengeMember) error {
	for i := range members {
		member := &members[i]
		err := r.db.WithContext(ctx).
			Model(&models.ChallengeMember{}).
			Where("id = ?", member.ID).
			Update("cached_aggregated_result", member.CachedAggregatedResult).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateChallengeProgress persists the cached progress percentage
func (r *Repository) UpdateChallengeProgress(ctx context.Context, challengeID uint, progress int) error {
	return r.db.WithContext(ctx).
		Model(&models.Challenge{}).
		Where("id = ?", challengeID).
		Update("cached_current_progress", progress).Error
}

// ClaimFinalization atomically stamps finalized_at, but only if no other
// finalizer got there first. Returns true when this caller won the claim.
// The conditional update is what makes concurrent finalization attempts
// degrade to no-ops instead of double-awarding winners.
func (r *Repository) ClaimFinalization(ctx context.Context, challengeID uint, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Challenge{}).
		Where("id = ? AND finalized_at IS NULL", challengeID).
		Update("finalized_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkWinners sets is_winner for the selected members. The flag is never
// unset.
func (r *Repository) MarkWinners(ctx context.Context, memberIDs []uint) error {
	if len(memberIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ChallengeMember{}).
		Where("id IN ?", memberIDs).
		Update("is_winner", true).Error
}

// CreateAchievementAssignations records achievements granted to winners
func (r *Repository) CreateAchievementAssignations(ctx context.Context, assignations []models.AchievementAssignation) error {
	if len(assignations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&assignations).Error
}
