package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"challenge-arena/internal/models"
)

// SpaceService handles tenant spaces and their memberships
type SpaceService struct {
	db *gorm.DB
}

// NewSpaceService creates a new SpaceService
func NewSpaceService(db *gorm.DB) *SpaceService {
	return &SpaceService{db: db}
}

// CreateSpace creates a space and makes the creator its administrator
func (s *SpaceService) CreateSpace(userID uint, req *models.CreateSpaceRequest) (*models.Space, error) {
	space := models.Space{
		Name:            req.Name,
		Description:     req.Description,
		InvitationToken: uuid.NewString(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&space).Error; err != nil {
			return err
		}
		member := models.SpaceMember{
			SpaceID:         space.ID,
			UserID:          userID,
			IsAdministrator: true,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create space: %w", err)
	}

	log.Printf("[SpaceService] Space %q created (ID: %d)", space.Name, space.ID)
	return &space, nil
}

// GetUserSpaces retrieves every space the user is a member of
func (s *SpaceService) GetUserSpaces(userID uint) ([]models.Space, error) {
	var spaces []models.Space
	err := s.db.
		Joins("JOIN space_members ON space_members.space_id = spaces.id").
		Where("space_members.user_id = ?", userID).
		Find(&spaces).Error
	if err != nil {
		return nil, err
	}
	return spaces, nil
}

// GetSpaceByID retrieves a space with its members, for members only
func (s *SpaceService) GetSpaceByID(spaceID, userID uint) (*models.Space, error) {
	if _, err := s.EnsureMember(spaceID, userID); err != nil {
		return nil, err
	}

	var space models.Space
	err := s.db.Preload("Members.User").First(&space, spaceID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// JoinByInvitationToken adds the user to the space behind the token
func (s *SpaceService) JoinByInvitationToken(userID uint, token string) (*models.Space, error) {
	var space models.Space
	err := s.db.Where("invitation_token = ?", token).First(&space).Error
	if err == gorm.ErrRecordNotFound {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var existing models.SpaceMember
	err = s.db.Where("space_id = ? AND user_id = ?", space.ID, userID).First(&existing).Error
	if err == nil {
		return nil, models.ErrAlreadyJoined
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := models.SpaceMember{
		SpaceID: space.ID,
		UserID:  userID,
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("failed to join space: %w", err)
	}

	log.Printf("[SpaceService] User %d joined space %d", userID, space.ID)
	return &space, nil
}

// EnsureMember returns the user's membership in the space, or
// ErrAccessDenied when there is none
func (s *SpaceService) EnsureMember(spaceID, userID uint) (*models.SpaceMember, error) {
	var member models.SpaceMember
	err := s.db.Where("space_id = ? AND user_id = ?", spaceID, userID).First(&member).Error
	if err == gorm.ErrRecordNotFound {
		return nil, models.ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// CreateAchievement creates a space-scoped achievement, administrators only
func (s *SpaceService) CreateAchievement(spaceID, userID uint, name string) (*models.Achievement, error) {
	member, err := s.EnsureMember(spaceID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsAdministrator {
		return nil, models.ErrAccessDenied
	}

	achievement := models.Achievement{
		SpaceID: spaceID,
		Name:    name,
	}
	if err := s.db.Create(&achievement).Error; err != nil {
		return nil, fmt.Errorf("failed to create achievement: %w", err)
	}
	return &achievement, nil
}
