package models

import (
	"time"
)

// AuthorizationLevel represents the level of access for an API key
type AuthorizationLevel int

const (
	// NoAuthLevel represents public access with no authentication
	NoAuthLevel AuthorizationLevel = 0
	// ViewerAuthLevel represents read-only access to shifts and timesheets
	ViewerAuthLevel AuthorizationLevel = 1
	// DispatcherAuthLevel represents scheduling write access
	DispatcherAuthLevel AuthorizationLevel = 2
	// ApproverAuthLevel represents the EIC approve/reject capability
	ApproverAuthLevel AuthorizationLevel = 3
	// SudoAuthLevel represents administrative access
	SudoAuthLevel AuthorizationLevel = 4
)

// APIKey represents an API token with associated access level
type APIKey struct {
	Base
	Key                string             `json:"key" gorm:"uniqueIndex;column:key"`
	Name               string             `json:"name" gorm:"column:name"`
	AuthorizationLevel AuthorizationLevel `json:"authorization_level" gorm:"column:authorization_level"`
	ExpiresAt          *time.Time         `json:"expires_at" gorm:"column:expires_at"`
	LastUsedAt         *time.Time         `json:"last_used_at" gorm:"column:last_used_at"`
}

// CanApproveReject reports whether the key grants the EIC approval capability.
func (k *APIKey) CanApproveReject() bool {
	return k.AuthorizationLevel >= ApproverAuthLevel
}
