package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"challenge-arena/internal/auth"
	"challenge-arena/internal/models"
	"challenge-arena/internal/services"
)

// ChallengeHandler handles challenge, membership and result endpoints
type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

// NewChallengeHandler creates a new ChallengeHandler
func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

// CreateChallenge creates a challenge in a space
// POST /api/spaces/:spaceId/challenges
func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	userID, spaceID, ok := h.callerAndSpace(c)
	if !ok {
		return
	}

	var req models.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challenge, err := h.challengeService.CreateChallenge(userID, spaceID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toChallengeResponse(challenge))
}

// GetChallenges lists a space's challenges, optionally filtered by state
// GET /api/spaces/:spaceId/challenges?state=ACTIVE
func (h *ChallengeHandler) GetChallenges(c *gin.Context) {
	userID, spaceID, ok := h.callerAndSpace(c)
	if !ok {
		return
	}

	var state *models.ChallengeState
	if raw := c.Query("state"); raw != "" {
		s := models.ChallengeState(raw)
		state = &s
	}

	challenges, err := h.challengeService.GetChallenges(userID, spaceID, state)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ChallengeResponse, 0, len(challenges))
	for i := range challenges {
		responses = append(responses, toChallengeResponse(&challenges[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetChallenge retrieves one challenge with its full configuration
// GET /api/spaces/:spaceId/challenges/:challengeId
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	userID, spaceID, ok := h.callerAndSpace(c)
	if !ok {
		return
	}
	challengeID, err := parseUintParam(c, "challengeId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	challenge, err := h.challengeService.GetChallenge(userID, spaceID, challengeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChallengeFullResponse(challenge))
}

// EditChallenge applies a partial update, administrators only
// PATCH /api/spaces/:spaceId/challenges/:challengeId
func (h *ChallengeHandler) EditChallenge(c *gin.Context) {
	userID, spaceID, ok := h.callerAndSpace(c)
	if !ok {
		return
	}
	challengeID, err := parseUintParam(c, "challengeId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	var patch models.ChallengePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challenge, err := h.challengeService.EditChallenge(userID, spaceID, challengeID, &patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChallengeFullResponse(challenge))
}

// JoinChallenge adds the caller as a participant
// POST /api/spaces/:spaceId/challenges/:challengeId/members
func (h *ChallengeHandler) JoinChallenge(c *gin.Context) {
	userID, spaceID, ok := h.callerAndSpace(c)
	if !ok {
		return
	}
	challengeID, err := parseUintParam(c, "challengeId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	challenge, err := h.challengeService.JoinChallenge(userID, spaceID, challengeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toChallengeFullResponse(challenge))
}

// SubmitResult records a participant's measurement
// POST /api/spaces/:spaceId/challenges/:challengeId/submit-result
func (h *ChallengeHandler) SubmitResult(c *gin.Context) {
	userID, spaceID, ok := h.callerAndSpace(c)
	if !ok {
		return
	}
	challengeID, err := parseUintParam(c, "challengeId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	var req models.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.challengeService.SubmitResult(c.Request.Context(), userID, spaceID, challengeID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetLeaderboard returns members ranked by aggregated score
// GET /api/spaces/:spaceId/challenges/:challengeId/leaderboard
func (h *ChallengeHandler) GetLeaderboard(c *gin.Context) {
	userID, spaceID, ok := h.callerAndSpace(c)
	if !ok {
		return
	}
	challengeID, err := parseUintParam(c, "challengeId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	entries, err := h.challengeService.GetLeaderboard(userID, spaceID, challengeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// EstimateResult sets the referee estimation on a result
// POST /api/results/:resultId/estimate
func (h *ChallengeHandler) EstimateResult(c *gin.Context) {
	h.adjudicate(c, h.challengeService.EstimateResult)
}

// VerifyResult sets the administrator verification on a result
// POST /api/results/:resultId/verify
func (h *ChallengeHandler) VerifyResult(c *gin.Context) {
	h.adjudicate(c, h.challengeService.VerifyResult)
}

func (h *ChallengeHandler) adjudicate(
	c *gin.Context,
	fn func(ctx context.Context, userID, resultID uint, value float64) (*models.ChallengeResult, error),
) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	resultID, err := parseUintParam(c, "resultId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result id"})
		return
	}

	var req models.AdjudicateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := fn(c.Request.Context(), userID, resultID, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// callerAndSpace extracts the authenticated user and the space path param
func (h *ChallengeHandler) callerAndSpace(c *gin.Context) (userID, spaceID uint, ok bool) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, 0, false
	}
	spaceID, err := parseUintParam(c, "spaceId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid space id"})
		return 0, 0, false
	}
	return userID, spaceID, true
}

func toChallengeResponse(c *models.Challenge) models.ChallengeResponse {
	return models.ChallengeResponse{
		ID:                     c.ID,
		SpaceID:                c.SpaceID,
		Name:                   c.Name,
		Description:            c.Description,
		Prize:                  c.Prize,
		AchievementID:          c.AchievementID,
		State:                  c.State(),
		IsVerificationRequired: c.IsVerificationRequired,
		IsEstimationRequired:   c.IsEstimationRequired,
		StartsAt:               c.StartsAt,
		CurrentProgress:        c.CachedCurrentProgress,
		FinalizedAt:            c.FinalizedAt,
		CreatedAt:              c.CreatedAt,
	}
}

func toChallengeFullResponse(c *models.Challenge) models.ChallengeFullResponse {
	return models.ChallengeFullResponse{
		ChallengeResponse:           toChallengeResponse(c),
		EndsAtConst:                 c.EndsAtConst,
		EndsAtDeterminationFn:       c.EndsAtDeterminationFn,
		EndsAtDeterminationArgument: c.EndsAtDeterminationArgument,
		ResultsAggregationStrategy:  c.ResultsAggregationStrategy,
		PrizeDeterminationFn:        c.PrizeDeterminationFn,
		PrizeDeterminationArgument:  c.PrizeDeterminationArgument,
		Members:                     c.Members,
	}
}
