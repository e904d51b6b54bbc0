package models

import "time"

// Role names seeded on migrate.
const (
	RoleAdministrator = "administrator"
	RoleOperator      = "operator"
)

// Role represents operator roles with numeric primary key
type Role struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:32;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
}

// DefaultRoles is the master role table.
func DefaultRoles() []Role {
	return []Role{
		{Name: RoleAdministrator, Description: "full access"},
		{Name: RoleOperator, Description: "runs and reviews identifications"},
	}
}
