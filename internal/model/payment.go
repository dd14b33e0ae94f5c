package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment is append-only: one row per successful capture.
type Payment struct {
	gorm.Model
	UserID         uint  `json:"user_id" gorm:"index;not null"`
	SubscriptionID *uint `json:"subscription_id" gorm:"index"`

	Amount        float64 `json:"amount" gorm:"not null"`
	Currency      string  `json:"currency" gorm:"default:'USD'"`
	PaymentMethod string  `json:"payment_method" gorm:"default:'paypal'"`

	// External capture id from the provider. Unique so a replayed capture
	// can never book the same money twice.
	PaymentID string `json:"payment_id" gorm:"uniqueIndex;not null"`

	Status      string         `json:"status" gorm:"default:'completed'"`
	PaymentDate time.Time      `json:"payment_date"`
	Metadata    datatypes.JSON `json:"metadata"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
