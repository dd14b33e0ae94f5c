package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"

	"hopelog_backend/internal/model"
	"hopelog_backend/pkg/database"
	"hopelog_backend/pkg/paypal"
	"hopelog_backend/pkg/utils/validation"
)

var paypalClient *paypal.Client

func InitSettingsController(client *paypal.Client) {
	paypalClient = client
}

type PayPalSettingsInput struct {
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
	Mode         string `json:"mode" validate:"required,oneof=sandbox live"`
	CallbackURL  string `json:"callbackUrl" validate:"omitempty,url"`
}

func GetPayPalSettings(c *fiber.Ctx) error {
	var settings []model.SystemSetting
	err := database.DB.Where("key IN ?", []string{
		model.SettingPayPalClientID,
		model.SettingPayPalClientSecret,
		model.SettingPayPalMode,
		model.SettingPayPalCallbackURL,
	}).Find(&settings).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch PayPal settings",
		})
	}

	response := fiber.Map{
		"clientId":     "",
		"clientSecret": "",
		"mode":         "sandbox",
		"callbackUrl":  "",
	}
	for _, s := range settings {
		switch s.Key {
		case model.SettingPayPalClientID:
			response["clientId"] = s.Value
		case model.SettingPayPalClientSecret:
			response["clientSecret"] = s.Value
		case model.SettingPayPalMode:
			if s.Value != "" {
				response["mode"] = s.Value
			}
		case model.SettingPayPalCallbackURL:
			response["callbackUrl"] = s.Value
		}
	}

	return c.JSON(response)
}

func UpdatePayPalSettings(c *fiber.Ctx) error {
	input := new(PayPalSettingsInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if fieldErrors := validation.ValidateStruct(input); fieldErrors != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid PayPal settings",
			"errors": fieldErrors,
		})
	}

	settings := map[string]string{
		model.SettingPayPalClientID:     input.ClientID,
		model.SettingPayPalClientSecret: input.ClientSecret,
		model.SettingPayPalMode:         input.Mode,
	}
	if input.CallbackURL != "" {
		settings[model.SettingPayPalCallbackURL] = input.CallbackURL
	}

	for key, value := range settings {
		err := database.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"value": value}),
		}).Create(&model.SystemSetting{Key: key, Value: value}).Error
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not update PayPal settings",
			})
		}
	}

	// A credential or mode change must not keep serving a token minted
	// against the old configuration.
	if paypalClient != nil {
		paypalClient.InvalidateToken()
	}

	return c.JSON(fiber.Map{
		"message": "PayPal settings updated successfully",
	})
}
