package models

import (
	"time"

	"github.com/google/uuid"
)

// IdentificationRun is one pass of the identify tool over a directory.
type IdentificationRun struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time
	UserID     *uint     `gorm:"index"`
	Dir        string    `gorm:"size:1024;not null"`
	StartedAt  time.Time `gorm:"index;not null"`
	FinishedAt *time.Time
	Threshold  int
	Total      int
	Renamed    int
	Failed     int
	DryRun     bool                   `gorm:"default:false"`
	Records    []IdentificationRecord `gorm:"foreignKey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// IdentificationRecord mirrors one entry of identification_results.json.
// New and ItemID are nil when the image was left unmatched.
type IdentificationRecord struct {
	ID       uint      `gorm:"primaryKey"`
	RunID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Position int       `gorm:"not null"`
	Original string    `gorm:"size:1024;not null"`
	New      *string   `gorm:"size:1024"`
	ItemID   *string   `gorm:"size:128;index"`
	Score    int
	Error    string `gorm:"size:512"`
}
