package model

import "gorm.io/gorm"

// Keys used by the PayPal credential store.
const (
	SettingPayPalClientID     = "paypal_client_id"
	SettingPayPalClientSecret = "paypal_client_secret"
	SettingPayPalMode         = "paypal_mode"
	SettingPayPalCallbackURL  = "paypal_callback_url"
)

type SystemSetting struct {
	gorm.Model
	Key   string `json:"key" gorm:"uniqueIndex;not null"`
	Value string `json:"value"`
}
