package models

import (
	"time"
)

type ChallengeState string

const (
	ChallengeStateScheduled ChallengeState = "SCHEDULED"
	ChallengeStateActive    ChallengeState = "ACTIVE"
	ChallengeStateFinished  ChallengeState = "FINISHED"
)

// AggregationStrategy reduces a member's active result values to one score
type AggregationStrategy string

const (
	AggregationSum AggregationStrategy = "SUM"
	AggregationAvg AggregationStrategy = "AVG"
	AggregationMax AggregationStrategy = "MAX"
	AggregationMin AggregationStrategy = "MIN"
)

// SelectionFn picks qualifying members from a score mapping. The same
// function family is used for end-condition checks, winner determination
// and progress computation.
type SelectionFn string

const (
	SelectionHigherThan SelectionFn = "HIGHER_THAN"
	SelectionLessThan   SelectionFn = "LESS_THAN"
	SelectionHead       SelectionFn = "HEAD"
	SelectionTail       SelectionFn = "TAIL"
)

// Challenge represents a time-boxed scored competition within a space.
//
// A challenge ends either at a fixed instant (EndsAtConst) or when the
// end-determination selection function matches at least one member against
// the live aggregated scores. CachedCurrentProgress and FinalizedAt are
// derived fields owned by the lifecycle engine.
type Challenge struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	SpaceID       uint    `gorm:"not null;index" json:"space_id"`
	Name          string  `gorm:"size:255;not null" json:"name"`
	Description   string  `gorm:"size:2000" json:"description"`
	Prize         *string `gorm:"size:500" json:"prize,omitempty"`
	AchievementID *uint   `gorm:"index" json:"achievement_id,omitempty"`

	IsVerificationRequired bool `gorm:"not null;default:false" json:"is_verification_required"`
	IsEstimationRequired   bool `gorm:"not null;default:false" json:"is_estimation_required"`

	StartsAt                    time.Time    `gorm:"not null" json:"starts_at"`
	EndsAtConst                 *time.Time   `json:"ends_at_const,omitempty"`
	EndsAtDeterminationFn       *SelectionFn `gorm:"size:50" json:"ends_at_determination_fn,omitempty"`
	EndsAtDeterminationArgument *float64     `json:"ends_at_determination_argument,omitempty"`

	CachedCurrentProgress int `gorm:"not null;default:0;check:cached_current_progress >= 0 AND cached_current_progress <= 100" json:"cached_current_progress"`

	ResultsAggregationStrategy AggregationStrategy `gorm:"size:50;not null" json:"results_aggregation_strategy"`

	PrizeDeterminationFn       SelectionFn `gorm:"size:50;not null" json:"prize_determination_fn"`
	PrizeDeterminationArgument float64     `gorm:"not null" json:"prize_determination_argument"`

	FinalizedAt *time.Time `json:"finalized_at,omitempty"`

	Members []ChallengeMember `gorm:"foreignKey:ChallengeID" json:"members,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// State derives the lifecycle state from the clock and the cached progress.
// The state is never stored.
func (c *Challenge) State() ChallengeState {
	return c.StateAt(time.Now())
}

// StateAt derives the lifecycle state as of a given instant
func (c *Challenge) StateAt(now time.Time) ChallengeState {
	if c.StartsAt.After(now) {
		return ChallengeStateScheduled
	}
	if c.CachedCurrentProgress >= 100 {
		return ChallengeStateFinished
	}
	return ChallengeStateActive
}

// IsResultActive reports whether a result has received every adjudication
// this challenge requires and therefore counts toward aggregation.
func (c *Challenge) IsResultActive(r *ChallengeResult) bool {
	if c.IsEstimationRequired && r.EstimationValue == nil {
		return false
	}
	if c.IsVerificationRequired && r.VerificationValue == nil {
		return false
	}
	return true
}

// ActiveResults returns every active result across all members
func (c *Challenge) ActiveResults() []*ChallengeResult {
	var active []*ChallengeResult
	for i := range c.Members {
		for j := range c.Members[i].Results {
			r := &c.Members[i].Results[j]
			if c.IsResultActive(r) {
				active = append(active, r)
			}
		}
	}
	return active
}

// ChallengeMember is a user's participation record in one challenge.
// The role flags are independent; a member may hold any combination.
type ChallengeMember struct {
	ID              uint `gorm:"primaryKey" json:"id"`
	UserID          uint `gorm:"not null;index;uniqueIndex:idx_challenge_user" json:"user_id"`
	ChallengeID     uint `gorm:"not null;index;uniqueIndex:idx_challenge_user" json:"challenge_id"`
	IsReferee       bool `gorm:"not null;default:false" json:"is_referee"`
	IsParticipant   bool `gorm:"not null;default:false" json:"is_participant"`
	IsAdministrator bool `gorm:"not null;default:false" json:"is_administrator"`

	CachedAggregatedResult float64 `gorm:"not null;default:0" json:"cached_aggregated_result"`
	IsWinner               bool    `gorm:"not null;default:false" json:"is_winner"`

	User    *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Results []ChallengeResult `gorm:"foreignKey:MemberID" json:"results,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (ChallengeMember) TableName() string {
	return "challenge_members"
}

// ChallengeResult is one submitted measurement. SubmittedValue is set by
// the submitter; EstimationValue may later be set by a referee and
// VerificationValue by an administrator.
type ChallengeResult struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	MemberID          uint      `gorm:"not null;index" json:"member_id"`
	SubmittedValue    float64   `gorm:"not null" json:"submitted_value"`
	EstimationValue   *float64  `json:"estimation_value,omitempty"`
	VerificationValue *float64  `json:"verification_value,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func (ChallengeResult) TableName() string {
	return "challenge_results"
}

// CreateChallengeRequest represents a request to create a new challenge
type CreateChallengeRequest struct {
	Name                        string              `json:"name" binding:"required"`
	Description                 string              `json:"description"`
	Prize                       *string             `json:"prize"`
	AchievementID               *uint               `json:"achievement_id"`
	IsVerificationRequired      bool                `json:"is_verification_required"`
	IsEstimationRequired        bool                `json:"is_estimation_required"`
	StartsAt                    time.Time           `json:"starts_at" binding:"required"`
	EndsAtConst                 *time.Time          `json:"ends_at_const"`
	EndsAtDeterminationFn       *SelectionFn        `json:"ends_at_determination_fn"`
	EndsAtDeterminationArgument *float64            `json:"ends_at_determination_argument"`
	ResultsAggregationStrategy  AggregationStrategy `json:"results_aggregation_strategy" binding:"required"`
	PrizeDeterminationFn        SelectionFn         `json:"prize_determination_fn" binding:"required"`
	PrizeDeterminationArgument  float64             `json:"prize_determination_argument"`
}

// ChallengePatch carries an explicit partial update for a challenge.
// Only non-nil fields are applied; there is no reflection-based copying.
type ChallengePatch struct {
	Name                        *string              `json:"name"`
	Description                 *string              `json:"description"`
	Prize                       *string              `json:"prize"`
	AchievementID               *uint                `json:"achievement_id"`
	IsVerificationRequired      *bool                `json:"is_verification_required"`
	IsEstimationRequired        *bool                `json:"is_estimation_required"`
	StartsAt                    *time.Time           `json:"starts_at"`
	EndsAtConst                 *time.Time           `json:"ends_at_const"`
	EndsAtDeterminationFn       *SelectionFn         `json:"ends_at_determination_fn"`
	EndsAtDeterminationArgument *float64             `json:"ends_at_determination_argument"`
	ResultsAggregationStrategy  *AggregationStrategy `json:"results_aggregation_strategy"`
	PrizeDeterminationFn        *SelectionFn         `json:"prize_determination_fn"`
	PrizeDeterminationArgument  *float64             `json:"prize_determination_argument"`
}

// Apply assigns every present field onto the challenge
func (p *ChallengePatch) Apply(c *Challenge) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Prize != nil {
		c.Prize = p.Prize
	}
	if p.AchievementID != nil {
		c.AchievementID = p.AchievementID
	}
	if p.IsVerificationRequired != nil {
		c.IsVerificationRequired = *p.IsVerificationRequired
	}
	if p.IsEstimationRequired != nil {
		c.IsEstimationRequired = *p.IsEstimationRequired
	}
	if p.StartsAt != nil {
		c.StartsAt = *p.StartsAt
	}
	if p.EndsAtConst != nil {
		c.EndsAtConst = p.EndsAtConst
	}
	if p.EndsAtDeterminationFn != nil {
		c.EndsAtDeterminationFn = p.EndsAtDeterminationFn
	}
	if p.EndsAtDeterminationArgument != nil {
		c.EndsAtDeterminationArgument = p.EndsAtDeterminationArgument
	}
	if p.ResultsAggregationStrategy != nil {
		c.ResultsAggregationStrategy = *p.ResultsAggregationStrategy
	}
	if p.PrizeDeterminationFn != nil {
		c.PrizeDeterminationFn = *p.PrizeDeterminationFn
	}
	if p.PrizeDeterminationArgument != nil {
		c.PrizeDeterminationArgument = *p.PrizeDeterminationArgument
	}
}

// SubmitResultRequest represents a participant submitting a measurement
type SubmitResultRequest struct {
	SubmittedValue float64 `json:"submitted_value" binding:"required"`
}

// AdjudicateResultRequest carries a referee estimation or an administrator
// verification value for a result
type AdjudicateResultRequest struct {
	Value float64 `json:"value" binding:"required"`
}

// ChallengeResponse represents a challenge in API responses, including
// the derived lifecycle state
type ChallengeResponse struct {
	ID                     uint           `json:"id"`
	SpaceID                uint           `json:"space_id"`
	Name                   string         `json:"name"`
	Description            string         `json:"description"`
	Prize                  *string        `json:"prize,omitempty"`
	AchievementID          *uint          `json:"achievement_id,omitempty"`
	State                  ChallengeState `json:"state"`
	IsVerificationRequired bool           `json:"is_verification_required"`
	IsEstimationRequired   bool           `json:"is_estimation_required"`
	StartsAt               time.Time      `json:"starts_at"`
	CurrentProgress        int            `json:"current_progress"`
	FinalizedAt            *time.Time     `json:"finalized_at,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
}

// ChallengeFullResponse adds the end-condition configuration and members
type ChallengeFullResponse struct {
	ChallengeResponse
	EndsAtConst                 *time.Time          `json:"ends_at_const,omitempty"`
	EndsAtDeterminationFn       *SelectionFn        `json:"ends_at_determination_fn,omitempty"`
	EndsAtDeterminationArgument *float64            `json:"ends_at_determination_argument,omitempty"`
	ResultsAggregationStrategy  AggregationStrategy `json:"results_aggregation_strategy"`
	PrizeDeterminationFn        SelectionFn         `json:"prize_determination_fn"`
	PrizeDeterminationArgument  float64             `json:"prize_determination_argument"`
	Members                     []ChallengeMember   `json:"members"`
}

// LeaderboardEntry is one member row in a challenge leaderboard
type LeaderboardEntry struct {
	MemberID uint    `json:"member_id"`
	UserID   uint    `json:"user_id"`
	FullName string  `json:"full_name"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
	IsWinner bool    `json:"is_winner"`
}
