package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"hopelog_backend/internal/model"
	"hopelog_backend/internal/service"
	"hopelog_backend/pkg/database"
	"hopelog_backend/pkg/email"
	"hopelog_backend/pkg/featurelimit"
	"hopelog_backend/pkg/paypal"
	"hopelog_backend/pkg/utils/jwt"
	"hopelog_backend/pkg/utils/validation"
)

var (
	subscriptionService *service.SubscriptionService
	featureLimitService *featurelimit.Service
)

func InitSubscriptionController(svc *service.SubscriptionService, limits *featurelimit.Service) {
	subscriptionService = svc
	featureLimitService = limits
}

type CreateOrderInput struct {
	PlanName string `json:"planName" validate:"required"`
}

type CaptureOrderInput struct {
	OrderID  string `json:"orderId" validate:"required"`
	PlanName string `json:"planName" validate:"required"`
}

type CancelSubscriptionInput struct {
	SubscriptionID uint `json:"subscriptionId" validate:"required"`
}

type planWithLimits struct {
	model.SubscriptionPlan
	FeatureLimits *model.FeatureLimit `json:"featureLimits"`
}

// ListPlans returns the active plan catalog with the feature limits of the
// tier each plan unlocks, for the pricing comparison page.
func ListPlans(c *fiber.Ctx) error {
	var plans []model.SubscriptionPlan
	if err := database.DB.Where("is_active = ?", true).Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch subscription plans",
		})
	}

	formatted := make([]planWithLimits, 0, len(plans))
	for _, plan := range plans {
		tier := featurelimit.TierForPlan(plan.Name)
		limits, err := featureLimitService.LimitsForTier(tier)
		if err != nil {
			log.Printf("Could not fetch feature limits for tier %s: %v", tier, err)
		}
		formatted = append(formatted, planWithLimits{SubscriptionPlan: plan, FeatureLimits: limits})
	}

	return c.JSON(formatted)
}

func CreateOrder(c *fiber.Ctx) error {
	input := new(CreateOrderInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if fieldErrors := validation.ValidateStruct(input); fieldErrors != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid request data",
			"errors": fieldErrors,
		})
	}

	claims := c.Locals("user").(*jwt.Claims)

	order, err := subscriptionService.CreateOrder(c.Context(), input.PlanName, claims.UserID)
	if err != nil {
		return subscriptionError(c, err)
	}

	return c.JSON(order)
}

func CaptureOrder(c *fiber.Ctx) error {
	input := new(CaptureOrderInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if fieldErrors := validation.ValidateStruct(input); fieldErrors != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Missing orderId or planName",
			"errors": fieldErrors,
		})
	}

	claims := c.Locals("user").(*jwt.Claims)

	result, err := subscriptionService.CaptureOrder(c.Context(), input.OrderID, claims.UserID, input.PlanName)
	if err != nil {
		return subscriptionError(c, err)
	}

	if email.GlobalEmailService != nil {
		var user model.User
		var plan model.SubscriptionPlan
		if database.DB.First(&user, claims.UserID).Error == nil &&
			database.DB.Where("name = ?", input.PlanName).First(&plan).Error == nil {
			err := email.GlobalEmailService.SendSubscriptionStartedEmail(
				user.Email,
				user.GetFullName(),
				plan.DisplayName,
				plan.Price,
				"USD",
				plan.Interval,
				result.EndDate,
			)
			if err != nil {
				log.Printf("Could not send subscription email: %v", err)
			}
		}
	}

	return c.JSON(result)
}

func CancelSubscription(c *fiber.Ctx) error {
	input := new(CancelSubscriptionInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if fieldErrors := validation.ValidateStruct(input); fieldErrors != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Missing subscriptionId",
			"errors": fieldErrors,
		})
	}

	claims := c.Locals("user").(*jwt.Claims)

	result, err := subscriptionService.Cancel(input.SubscriptionID, claims.UserID)
	if err != nil {
		return subscriptionError(c, err)
	}

	if email.GlobalEmailService != nil {
		var user model.User
		var subscription model.Subscription
		if database.DB.First(&user, claims.UserID).Error == nil &&
			database.DB.Preload("Plan").First(&subscription, input.SubscriptionID).Error == nil {
			err := email.GlobalEmailService.SendSubscriptionCancelledEmail(
				user.Email,
				user.GetFullName(),
				subscription.Plan.DisplayName,
				subscription.EndDate,
			)
			if err != nil {
				log.Printf("Could not send subscription cancellation email: %v", err)
			}
		}
	}

	return c.JSON(result)
}

func GetCurrentSubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	subscription, err := subscriptionService.ActiveSubscription(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subscription status",
		})
	}

	return c.JSON(fiber.Map{
		"active":       subscription != nil,
		"subscription": subscription,
	})
}

func GetSubscriptionHistory(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	history, err := subscriptionService.History(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subscription history",
		})
	}

	return c.JSON(history)
}

// GetUsage reports the caller's feature limits and current consumption.
func GetUsage(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	limits, err := featureLimitService.LimitsForUser(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch feature limits",
		})
	}

	usage, err := featureLimitService.Usage(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch usage",
		})
	}

	return c.JSON(fiber.Map{
		"limits": limits,
		"usage":  usage,
	})
}

// subscriptionError maps service errors to HTTP responses: domain not-found
// errors become 404, a stale plan name 400, missing PayPal configuration a
// distinct 500, and everything else a generic 500 with the error message.
func subscriptionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrSubscriptionNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPlanMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, paypal.ErrNotConfigured):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "PayPal is not configured. Please contact support.",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
