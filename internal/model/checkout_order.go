package model

import "gorm.io/gorm"

const (
	CheckoutOrderStatusCreated  = "created"
	CheckoutOrderStatusCaptured = "captured"
)

// CheckoutOrder records the order→plan→user mapping at order-creation time so
// capture can verify the plan name the browser round-trips through PayPal's
// redirect instead of trusting it. Rows that never reach "captured" are the
// audit trail of abandoned checkouts.
type CheckoutOrder struct {
	gorm.Model
	OrderID string `json:"order_id" gorm:"uniqueIndex;size:64;not null"`
	UserID  uint   `json:"user_id" gorm:"index;not null"`
	PlanID  uint   `json:"plan_id" gorm:"not null"`
	Status  string `json:"status" gorm:"default:'created'"`

	User User             `json:"-" gorm:"foreignKey:UserID"`
	Plan SubscriptionPlan `json:"-" gorm:"foreignKey:PlanID"`
}
