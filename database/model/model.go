// Package model defines the persistent entities of the user-center service.
package model

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a managed account. Slug is the public identifier used in URLs and
// audit references; the numeric primary key never leaves the service.
type User struct {
	Id           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Slug         string    `json:"slug" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Password     string    `json:"-" gorm:"not null"`
	Role         string    `json:"role" gorm:"not null;default:user"`
	Active       bool      `json:"active" gorm:"not null;default:true"`
	ProfilePhoto string    `json:"profile_photo"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ActivityLog is an immutable audit record. Rows are created once after a
// successful mutation or auth event and never updated; only the retention
// purge removes them.
type ActivityLog struct {
	Id         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Slug       string    `json:"slug" gorm:"uniqueIndex;not null"`
	UserId     int       `json:"user_id" gorm:"index:idx_activity_user_created"`
	Action     string    `json:"action" gorm:"index:idx_activity_action_created"`
	TargetType string    `json:"target_type"`
	TargetSlug string    `json:"target_slug" gorm:"index"`
	Changes    string    `json:"changes"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at" gorm:"index:idx_activity_user_created;index:idx_activity_action_created"`
}
