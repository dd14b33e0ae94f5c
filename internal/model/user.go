package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin" gorm:"default:false"`

	// Entitlement fields, denormalized so access checks don't need a join.
	// Kept in sync by the capture flow and the expiry cron.
	SubscriptionTier      string     `json:"subscription_tier" gorm:"default:'free'"`
	SubscriptionStatus    string     `json:"subscription_status"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`

	Subscriptions []Subscription `json:"-"`
	Payments      []Payment      `json:"-"`
}

func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":                u.ID,
		"username":          u.Username,
		"full_name":         u.GetFullName(),
		"subscription_tier": u.SubscriptionTier,
	}
}
