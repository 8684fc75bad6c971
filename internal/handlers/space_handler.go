package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"challenge-arena/internal/auth"
	"challenge-arena/internal/models"
	"challenge-arena/internal/services"
)

// SpaceHandler handles space and achievement endpoints
type SpaceHandler struct {
	spaceService *services.SpaceService
}

// NewSpaceHandler creates a new SpaceHandler
func NewSpaceHandler(spaceService *services.SpaceService) *SpaceHandler {
	return &SpaceHandler{spaceService: spaceService}
}

// CreateSpace creates a new space owned by the caller
// POST /api/spaces
func (h *SpaceHandler) CreateSpace(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	space, err := h.spaceService.CreateSpace(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, space)
}

// GetSpaces lists the caller's spaces
// GET /api/spaces
func (h *SpaceHandler) GetSpaces(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	spaces, err := h.spaceService.GetUserSpaces(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, spaces)
}

// GetSpace retrieves one space with its members
// GET /api/spaces/:spaceId
func (h *SpaceHandler) GetSpace(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	spaceID, err := parseUintParam(c, "spaceId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid space id"})
		return
	}

	space, err := h.spaceService.GetSpaceByID(spaceID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, space)
}

// JoinSpace joins a space by invitation token
// POST /api/spaces/join
func (h *SpaceHandler) JoinSpace(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.JoinSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	space, err := h.spaceService.JoinByInvitationToken(userID, req.InvitationToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, space)
}

// CreateAchievement creates a space achievement, administrators only
// POST /api/spaces/:spaceId/achievements
func (h *SpaceHandler) CreateAchievement(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	spaceID, err := parseUintParam(c, "spaceId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid space id"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	achievement, err := h.spaceService.CreateAchievement(spaceID, userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, achievement)
}

// parseUintParam parses a numeric path parameter
func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
