package models

import (
	"time"
)

// User is an operator account for the review server.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time          `gorm:"index"`
	Username       string              `gorm:"size:255;not null;unique"`
	HashedPassword []byte              `gorm:"not null" json:"-"`
	RoleID         *uint               `gorm:"index"`
	Role           Role                `gorm:"foreignKey:RoleID;references:ID"`
	Runs           []IdentificationRun `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}
