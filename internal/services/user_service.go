package services

import (
	"fmt"

	"gorm.io/gorm"

	"challenge-arena/internal/models"
)

// UserService handles user-related business logic
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new UserService
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// GetUserAchievements retrieves all achievements granted to a user
func (s *UserService) GetUserAchievements(userID uint) ([]models.AchievementAssignation, error) {
	var assignations []models.AchievementAssignation
	if err := s.db.Where("user_id = ?", userID).
		Preload("Achievement").
		Order("created_at DESC").
		Find(&assignations).Error; err != nil {
		return nil, err
	}
	return assignations, nil
}
