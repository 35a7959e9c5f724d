package models

import (
	"strings"
	"time"
)

// Role is the closed set of roles a user can hold. Incoming role strings
// are parsed case-insensitively at the boundary; everything past the
// boundary compares Role values directly.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// ParseRole normalizes a raw role string into a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleCustomer:
		return RoleCustomer, true
	}
	return "", false
}

// User represents a registered account. Password holds the bcrypt hash,
// never the plaintext. AdminID is set only for admin accounts.
type User struct {
	ID        uint    `gorm:"primaryKey"`
	Username  string  `gorm:"not null"`
	Email     string  `gorm:"uniqueIndex;not null"`
	Password  string  `gorm:"not null"`
	Role      Role    `gorm:"type:varchar(16);not null"`
	AdminID   *string `gorm:"column:admin_id"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) TableName() string {
	return "users"
}
