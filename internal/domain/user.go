package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

// User is the identity record. TokenVersion only ever increases and is advanced
// exclusively through the repository's atomic increment.
type User struct {
	ID           uuid.UUID                   `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string                      `json:"name" gorm:"not null"`
	LastName     string                      `json:"lastName"`
	Email        string                      `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string                      `json:"-"`
	ProfilePic   string                      `json:"profilePic"`
	CoverPic     string                      `json:"coverPic"`
	Categories   datatypes.JSONSlice[string] `json:"categories"`
	Status       UserStatus                  `json:"status" gorm:"type:varchar(16);not null;default:active"`
	TokenVersion int64                       `json:"-" gorm:"not null;default:0"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

func (u *User) DisplayName() string {
	return strings.TrimSpace(u.Name + " " + u.LastName)
}

func (u *User) IsDeactivated() bool {
	return u.Status == UserStatusDeactivated
}
