package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"gorm.io/gorm"

	"challenge-arena/internal/models"
)

// ChallengeService handles challenge CRUD, membership and result
// submission. Lifecycle advancement itself belongs to the LifecycleEngine;
// this service only invokes it best-effort after writes that may move a
// challenge forward.
type ChallengeService struct {
	db     *gorm.DB
	spaces *SpaceService
	engine *LifecycleEngine
}

// NewChallengeService creates a new ChallengeService
func NewChallengeService(db *gorm.DB, spaces *SpaceService, engine *LifecycleEngine) *ChallengeService {
	return &ChallengeService{db: db, spaces: spaces, engine: engine}
}

// CreateChallenge creates a challenge in a space. The creator becomes an
// administrator and participant member.
func (s *ChallengeService) CreateChallenge(
	userID, spaceID uint,
	req *models.CreateChallengeRequest,
) (*models.Challenge, error) {
	if _, err := s.spaces.EnsureMember(spaceID, userID); err != nil {
		return nil, err
	}

	challenge := models.Challenge{
		SpaceID:                     spaceID,
		Name:                        req.Name,
		Description:                 req.Description,
		Prize:                       req.Prize,
		AchievementID:               req.AchievementID,
		IsVerificationRequired:      req.IsVerificationRequired,
		IsEstimationRequired:        req.IsEstimationRequired,
		StartsAt:                    req.StartsAt,
		EndsAtConst:                 req.EndsAtConst,
		EndsAtDeterminationFn:       req.EndsAtDeterminationFn,
		EndsAtDeterminationArgument: req.EndsAtDeterminationArgument,
		ResultsAggregationStrategy:  req.ResultsAggregationStrategy,
		PrizeDeterminationFn:        req.PrizeDeterminationFn,
		PrizeDeterminationArgument:  req.PrizeDeterminationArgument,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&challenge).Error; err != nil {
			return err
		}
		member := models.ChallengeMember{
			ChallengeID:     challenge.ID,
			UserID:          userID,
			IsAdministrator: true,
			IsParticipant:   true,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	log.Printf("[ChallengeService] Challenge %q created in space %d (ID: %d)",
		challenge.Name, spaceID, challenge.ID)
	return &challenge, nil
}

// GetChallenges lists a space's challenges, optionally filtered by the
// derived lifecycle state
func (s *ChallengeService) GetChallenges(
	userID, spaceID uint,
	state *models.ChallengeState,
) ([]models.Challenge, error) {
	if _, err := s.spaces.EnsureMember(spaceID, userID); err != nil {
		return nil, err
	}

	var challenges []models.Challenge
	if err := s.db.Where("space_id = ?", spaceID).Order("id ASC").Find(&challenges).Error; err != nil {
		return nil, err
	}

	if state == nil {
		return challenges, nil
	}
	filtered := challenges[:0]
	for _, c := range challenges {
		if c.State() == *state {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// GetChallenge retrieves a fully loaded challenge from a space
func (s *ChallengeService) GetChallenge(userID, spaceID, challengeID uint) (*models.Challenge, error) {
	if _, err := s.spaces.EnsureMember(spaceID, userID); err != nil {
		return nil, err
	}
	return s.loadChallenge(spaceID, challengeID)
}

// EditChallenge applies a partial update, challenge administrators only
func (s *ChallengeService) EditChallenge(
	userID, spaceID, challengeID uint,
	patch *models.ChallengePatch,
) (*models.Challenge, error) {
	challenge, err := s.GetChallenge(userID, spaceID, challengeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ensureChallengeRole(challengeID, userID, roleAdministrator); err != nil {
		return nil, err
	}

	patch.Apply(challenge)
	if err := s.db.Save(challenge).Error; err != nil {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}
	return challenge, nil
}

// JoinChallenge adds the user as a participant member
func (s *ChallengeService) JoinChallenge(userID, spaceID, challengeID uint) (*models.Challenge, error) {
	if _, err := s.spaces.EnsureMember(spaceID, userID); err != nil {
		return nil, err
	}
	_, err := s.loadChallenge(spaceID, challengeID)
	if err != nil {
		return nil, err
	}

	var existing models.ChallengeMember
	err = s.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&existing).Error
	if err == nil {
		return nil, models.ErrAlreadyJoined
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := models.ChallengeMember{
		ChallengeID:   challengeID,
		UserID:        userID,
		IsParticipant: true,
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("failed to join challenge: %w", err)
	}

	return s.loadChallenge(spaceID, challengeID)
}

// SubmitResult records a participant's measurement and nudges the
// lifecycle forward. Evaluation is best-effort: its failure is logged and
// does not fail the submission.
func (s *ChallengeService) SubmitResult(
	ctx context.Context,
	userID, spaceID, challengeID uint,
	req *models.SubmitResultRequest,
) (*models.ChallengeResult, error) {
	if _, err := s.spaces.EnsureMember(spaceID, userID); err != nil {
		return nil, err
	}
	challenge, err := s.loadChallenge(spaceID, challengeID)
	if err != nil {
		return nil, err
	}
	// Results are frozen once a challenge is finished.
	if challenge.State() == models.ChallengeStateFinished {
		return nil, models.ErrChallengeFinished
	}

	member, err := s.ensureChallengeRole(challengeID, userID, roleParticipant)
	if err != nil {
		return nil, err
	}

	result := models.ChallengeResult{
		MemberID:       member.ID,
		SubmittedValue: req.SubmittedValue,
	}
	if err := s.db.Create(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to submit result: %w", err)
	}

	s.evaluateBestEffort(ctx, challengeID)
	return &result, nil
}

// EstimateResult sets the referee estimation value on a result
func (s *ChallengeService) EstimateResult(
	ctx context.Context,
	userID, resultID uint,
	value float64,
) (*models.ChallengeResult, error) {
	return s.adjudicateResult(ctx, userID, resultID, value, roleReferee)
}

// VerifyResult sets the administrator verification value on a result
func (s *ChallengeService) VerifyResult(
	ctx context.Context,
	userID, resultID uint,
	value float64,
) (*models.ChallengeResult, error) {
	return s.adjudicateResult(ctx, userID, resultID, value, roleAdministrator)
}

// GetLeaderboard returns the challenge's members ranked by cached score,
// highest first
func (s *ChallengeService) GetLeaderboard(userID, spaceID, challengeID uint) ([]models.LeaderboardEntry, error) {
	challenge, err := s.GetChallenge(userID, spaceID, challengeID)
	if err != nil {
		return nil, err
	}

	members := make([]models.ChallengeMember, len(challenge.Members))
	copy(members, challenge.Members)
	sort.Slice(members, func(i, j int) bool {
		if members[i].CachedAggregatedResult != members[j].CachedAggregatedResult {
			return members[i].CachedAggregatedResult > members[j].CachedAggregatedResult
		}
		return members[i].ID < members[j].ID
	})

	entries := make([]models.LeaderboardEntry, 0, len(members))
	for i, m := range members {
		entry := models.LeaderboardEntry{
			MemberID: m.ID,
			UserID:   m.UserID,
			Score:    m.CachedAggregatedResult,
			Rank:     i + 1,
			IsWinner: m.IsWinner,
		}
		if m.User != nil {
			entry.FullName = m.User.FullName
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type challengeRole int

const (
	roleParticipant challengeRole = iota
	roleReferee
	roleAdministrator
)

// ensureChallengeRole returns the user's membership in the challenge when
// it carries the required role flag
func (s *ChallengeService) ensureChallengeRole(
	challengeID, userID uint,
	role challengeRole,
) (*models.ChallengeMember, error) {
	var member models.ChallengeMember
	err := s.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&member).Error
	if err == gorm.ErrRecordNotFound {
		return nil, models.ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}

	allowed := false
	switch role {
	case roleParticipant:
		allowed = member.IsParticipant
	case roleReferee:
		allowed = member.IsReferee
	case roleAdministrator:
		allowed = member.IsAdministrator
	}
	if !allowed {
		return nil, models.ErrAccessDenied
	}
	return &member, nil
}

// adjudicateResult writes the estimation or verification value of a result
// after checking the caller holds the matching role in the result's
// challenge
func (s *ChallengeService) adjudicateResult(
	ctx context.Context,
	userID, resultID uint,
	value float64,
	role challengeRole,
) (*models.ChallengeResult, error) {
	var result models.ChallengeResult
	err := s.db.First(&result, resultID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var owner models.ChallengeMember
	if err := s.db.First(&owner, result.MemberID).Error; err != nil {
		return nil, err
	}

	var challenge models.Challenge
	if err := s.db.First(&challenge, owner.ChallengeID).Error; err != nil {
		return nil, err
	}
	if challenge.State() == models.ChallengeStateFinished {
		return nil, models.ErrChallengeFinished
	}

	if _, err := s.ensureChallengeRole(challenge.ID, userID, role); err != nil {
		return nil, err
	}

	column := "estimation_value"
	if role == roleAdministrator {
		column = "verification_value"
	}
	if err := s.db.Model(&result).Update(column, value).Error; err != nil {
		return nil, fmt.Errorf("failed to adjudicate result: %w", err)
	}

	s.evaluateBestEffort(ctx, challenge.ID)
	return &result, nil
}

// loadChallenge fetches a fully loaded challenge and checks it belongs to
// the space
func (s *ChallengeService) loadChallenge(spaceID, challengeID uint) (*models.Challenge, error) {
	var challenge models.Challenge
	err := s.db.
		Preload("Members.User").
		Preload("Members.Results").
		First(&challenge, challengeID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if challenge.SpaceID != spaceID {
		return nil, models.ErrNotFound
	}
	return &challenge, nil
}

// evaluateBestEffort advances the lifecycle after a submission without
// putting it on the response's critical path
func (s *ChallengeService) evaluateBestEffort(ctx context.Context, challengeID uint) {
	if s.engine == nil {
		return
	}
	if err := s.engine.Evaluate(ctx, challengeID); err != nil {
		log.Printf("[ChallengeService] Post-submit evaluation of challenge %d failed: %v", challengeID, err)
	}
}
