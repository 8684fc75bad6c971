package models

import (
	"time"
)

// Space is a tenant grouping users, achievements and challenges.
// New users join a space through its invitation token.
type Space struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Name            string        `gorm:"size:255;not null" json:"name"`
	Description     *string       `gorm:"size:1000" json:"description,omitempty"`
	InvitationToken string        `gorm:"size:64;uniqueIndex;not null" json:"invitation_token"`
	Members         []SpaceMember `gorm:"foreignKey:SpaceID" json:"members,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Space) TableName() string {
	return "spaces"
}

// SpaceMember is a user's membership record in one space
type SpaceMember struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SpaceID         uint      `gorm:"not null;index;uniqueIndex:idx_space_user" json:"space_id"`
	UserID          uint      `gorm:"not null;index;uniqueIndex:idx_space_user" json:"user_id"`
	IsAdministrator bool      `gorm:"default:false" json:"is_administrator"`
	User            *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (SpaceMember) TableName() string {
	return "space_members"
}

// Achievement is a space-scoped badge that a challenge may award to its winners
type Achievement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SpaceID   uint      `gorm:"not null;index" json:"space_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// AchievementAssignation records an achievement granted to a user,
// created during challenge finalization for each winner.
type AchievementAssignation struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UserID        uint         `gorm:"not null;index" json:"user_id"`
	ChallengeID   uint         `gorm:"not null;index" json:"challenge_id"`
	AchievementID uint         `gorm:"not null;index" json:"achievement_id"`
	Achievement   *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

func (AchievementAssignation) TableName() string {
	return "achievement_assignations"
}

// CreateSpaceRequest represents a request to create a new space
type CreateSpaceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// JoinSpaceRequest represents a request to join a space by invitation token
type JoinSpaceRequest struct {
	InvitationToken string `json:"invitation_token" binding:"required"`
}
