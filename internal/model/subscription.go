package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"

	PlanIntervalMonth = "month"
	PlanIntervalYear  = "year"
)

type SubscriptionPlan struct {
	gorm.Model
	Name        string         `json:"name" gorm:"uniqueIndex;not null"`
	DisplayName string         `json:"display_name" gorm:"not null"`
	Description string         `json:"description"`
	Price       float64        `json:"price" gorm:"not null"`
	Interval    string         `json:"interval" gorm:"not null;default:'month'"`
	Features    datatypes.JSON `json:"features"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`

	Subscriptions []Subscription `json:"-" gorm:"foreignKey:PlanID"`
}

type Subscription struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"index;not null"`
	PlanID uint `json:"plan_id" gorm:"not null"`
	Status string `json:"status" gorm:"default:'active'"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	// One-shot PayPal captures carry the checkout order id; a recurring
	// PayPal subscription id would go in PayPalSubscriptionID (unused today).
	PayPalOrderID        string  `json:"paypal_order_id" gorm:"index"`
	PayPalSubscriptionID *string `json:"paypal_subscription_id"`

	CancelAtPeriodEnd bool       `json:"cancel_at_period_end" gorm:"default:false"`
	CancelledAt       *time.Time `json:"cancelled_at"`

	User     User             `json:"-" gorm:"foreignKey:UserID"`
	Plan     SubscriptionPlan `json:"plan" gorm:"foreignKey:PlanID"`
	Payments []Payment        `json:"payments" gorm:"foreignKey:SubscriptionID"`
}
