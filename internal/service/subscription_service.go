package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hopelog_backend/internal/model"
	"hopelog_backend/pkg/paypal"
)

var (
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrOrderNotFound        = errors.New("checkout order not found")
	ErrPlanMismatch         = errors.New("plan does not match the one used at checkout")
)

// paymentGateway is the slice of the PayPal client the service needs. Tests
// substitute a fake so the persistence paths run against a real database
// without touching PayPal.
type paymentGateway interface {
	Credentials() (paypal.Credentials, error)
	CreateOrder(ctx context.Context, req *paypal.CreateOrderRequest, requestID string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureResult, error)
}

// SubscriptionService owns the PayPal checkout flow and the local
// subscription/payment bookkeeping around it.
type SubscriptionService struct {
	db         *gorm.DB
	paypal     paymentGateway
	appBaseURL string
	now        func() time.Time
}

func NewSubscriptionService(db *gorm.DB, client *paypal.Client, appBaseURL string) *SubscriptionService {
	return &SubscriptionService{
		db:         db,
		paypal:     client,
		appBaseURL: appBaseURL,
		now:        time.Now,
	}
}

type OrderResult struct {
	OrderID string        `json:"orderId"`
	Status  string        `json:"status"`
	Links   []paypal.Link `json:"links"`
}

type CaptureResult struct {
	SubscriptionID uint      `json:"subscriptionId"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"paymentStatus"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
}

type CancelResult struct {
	SubscriptionID uint   `json:"subscriptionId"`
	Status         string `json:"status"`
	Message        string `json:"message"`
}

// CreateOrder creates a PayPal order for the named plan and records the
// order→plan→user mapping so capture can verify the plan the browser posts
// back. Nothing about the subscription itself is persisted yet.
func (s *SubscriptionService) CreateOrder(ctx context.Context, planName string, userID uint) (*OrderResult, error) {
	var plan model.SubscriptionPlan
	err := s.db.Where("name = ? AND is_active = ?", planName, true).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrPlanNotFound, planName)
	}
	if err != nil {
		return nil, err
	}

	callbackBase, err := s.callbackBase()
	if err != nil {
		return nil, err
	}
	returnURL := callbackBase + "?planName=" + url.QueryEscape(planName)
	cancelURL := callbackBase + "?cancelled=true"

	description := plan.Description
	if description == "" {
		description = plan.DisplayName + " Subscription"
	}

	req := &paypal.CreateOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypal.PurchaseUnit{{
			ReferenceID: fmt.Sprintf("plan_%d_user_%d", plan.ID, userID),
			Description: description,
			Amount: &paypal.Money{
				CurrencyCode: "USD",
				Value:        fmt.Sprintf("%.2f", plan.Price),
			},
		}},
		ApplicationContext: &paypal.ApplicationContext{
			BrandName:   "Hope Log",
			LandingPage: "NO_PREFERENCE",
			UserAction:  "PAY_NOW",
			ReturnURL:   returnURL,
			CancelURL:   cancelURL,
		},
	}

	order, err := s.paypal.CreateOrder(ctx, req, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to create PayPal order: %w", err)
	}

	if approval := order.ApprovalURL(); approval != "" {
		log.Printf("[PayPal] Order %s created, approval URL: %s", order.ID, approval)
	} else {
		log.Printf("[PayPal] Order %s created but no approval URL returned", order.ID)
	}

	checkout := model.CheckoutOrder{
		OrderID: order.ID,
		UserID:  userID,
		PlanID:  plan.ID,
		Status:  model.CheckoutOrderStatusCreated,
	}
	if err := s.db.Create(&checkout).Error; err != nil {
		return nil, fmt.Errorf("could not record checkout order: %w", err)
	}

	return &OrderResult{OrderID: order.ID, Status: order.Status, Links: order.Links}, nil
}

// CaptureOrder finalizes an approved order, then persists the subscription,
// the payment and the user's entitlement fields in one transaction. Replaying
// a capture for an already-captured order returns the original result.
func (s *SubscriptionService) CaptureOrder(ctx context.Context, orderID string, userID uint, planName string) (*CaptureResult, error) {
	var checkout model.CheckoutOrder
	err := s.db.Where("order_id = ? AND user_id = ?", orderID, userID).First(&checkout).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	var plan model.SubscriptionPlan
	if err := s.db.First(&plan, checkout.PlanID).Error; err != nil {
		return nil, fmt.Errorf("%w: plan %d", ErrPlanNotFound, checkout.PlanID)
	}
	if plan.Name != planName {
		return nil, fmt.Errorf("%w: order was created for %q", ErrPlanMismatch, plan.Name)
	}

	if checkout.Status == model.CheckoutOrderStatusCaptured {
		return s.capturedResult(orderID, userID)
	}

	capture, err := s.paypal.CaptureOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to capture PayPal order: %w", err)
	}

	// Validate the response shape before any database write.
	captureDetails, err := capture.FirstCapture()
	if err != nil {
		return nil, err
	}
	amount, err := captureDetails.AmountValue()
	if err != nil {
		return nil, err
	}

	startDate := s.now()
	endDate := AddInterval(startDate, plan.Interval)

	subscription := model.Subscription{
		UserID:        userID,
		PlanID:        plan.ID,
		Status:        model.SubscriptionStatusActive,
		StartDate:     startDate,
		EndDate:       endDate,
		PayPalOrderID: orderID,
	}

	payment := model.Payment{
		UserID:        userID,
		Amount:        amount,
		Currency:      "USD",
		PaymentMethod: "paypal",
		PaymentID:     captureDetails.ID,
		Status:        model.PaymentStatusCompleted,
		PaymentDate:   startDate,
		Metadata:      captureMetadata(capture),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&subscription).Error; err != nil {
			return fmt.Errorf("could not save subscription: %w", err)
		}

		payment.SubscriptionID = &subscription.ID
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("could not save payment: %w", err)
		}

		updates := map[string]interface{}{
			"subscription_tier":       "pro",
			"subscription_status":     model.SubscriptionStatusActive,
			"subscription_expires_at": endDate,
		}
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return fmt.Errorf("could not update user entitlements: %w", err)
		}

		if err := tx.Model(&checkout).Update("status", model.CheckoutOrderStatusCaptured).Error; err != nil {
			return fmt.Errorf("could not update checkout order: %w", err)
		}
		return nil
	})
	if err != nil {
		// Money has been captured upstream at this point; the checkout
		// order staying in "created" marks it for the reconciliation
		// sweep and for a safe client retry.
		log.Printf("[PayPal] Capture %s succeeded but persistence failed: %v", captureDetails.ID, err)
		return nil, err
	}

	return &CaptureResult{
		SubscriptionID: subscription.ID,
		Status:         model.SubscriptionStatusActive,
		PaymentStatus:  model.PaymentStatusCompleted,
		StartDate:      startDate,
		EndDate:        endDate,
	}, nil
}

// capturedResult rebuilds the capture response for an order that was already
// captured, making capture-order safe to retry.
func (s *SubscriptionService) capturedResult(orderID string, userID uint) (*CaptureResult, error) {
	var subscription model.Subscription
	err := s.db.Where("pay_pal_order_id = ? AND user_id = ?", orderID, userID).
		Order("created_at DESC").First(&subscription).Error
	if err != nil {
		return nil, fmt.Errorf("order already captured but subscription missing: %w", err)
	}

	paymentStatus := model.PaymentStatusCompleted
	var payment model.Payment
	if err := s.db.Where("subscription_id = ?", subscription.ID).First(&payment).Error; err == nil {
		paymentStatus = payment.Status
	}

	return &CaptureResult{
		SubscriptionID: subscription.ID,
		Status:         subscription.Status,
		PaymentStatus:  paymentStatus,
		StartDate:      subscription.StartDate,
		EndDate:        subscription.EndDate,
	}, nil
}

// Cancel marks an owned subscription cancelled at period end. Entitlements
// are kept until the end date; the expiry cron downgrades the user then.
func (s *SubscriptionService) Cancel(subscriptionID, userID uint) (*CancelResult, error) {
	var subscription model.Subscription
	err := s.db.Where("id = ? AND user_id = ?", subscriptionID, userID).First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}

	cancelledAt := s.now()
	updates := map[string]interface{}{
		"status":               model.SubscriptionStatusCancelled,
		"cancelled_at":         cancelledAt,
		"cancel_at_period_end": true,
	}
	if err := s.db.Model(&subscription).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("could not update subscription status: %w", err)
	}

	return &CancelResult{
		SubscriptionID: subscription.ID,
		Status:         model.SubscriptionStatusCancelled,
		Message:        "Your subscription has been cancelled but will remain active until the end of your billing period.",
	}, nil
}

// ActiveSubscription returns the user's most recent active subscription with
// its plan, or nil when there is none.
func (s *SubscriptionService) ActiveSubscription(userID uint) (*model.Subscription, error) {
	var subscription model.Subscription
	err := s.db.Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		Preload("Plan").
		Order("created_at DESC").
		First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

type HistoryEntry struct {
	Subscription model.Subscription     `json:"subscription"`
	Plan         model.SubscriptionPlan `json:"plan"`
	Payments     []model.Payment        `json:"payments"`
}

// History returns all of a user's subscriptions, each joined to its own plan
// and payments.
func (s *SubscriptionService) History(userID uint) ([]HistoryEntry, error) {
	var subscriptions []model.Subscription
	err := s.db.Where("user_id = ?", userID).
		Preload("Plan").
		Preload("Payments").
		Order("created_at DESC").
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}

	history := make([]HistoryEntry, 0, len(subscriptions))
	for _, sub := range subscriptions {
		entry := HistoryEntry{Plan: sub.Plan, Payments: sub.Payments}
		sub.Plan = model.SubscriptionPlan{}
		sub.Payments = nil
		entry.Subscription = sub
		history = append(history, entry)
	}
	return history, nil
}

// callbackBase resolves where PayPal should send the browser after approval:
// the configured callback URL when set, otherwise the app's subscription page.
func (s *SubscriptionService) callbackBase() (string, error) {
	creds, err := s.paypal.Credentials()
	if err != nil {
		return "", err
	}
	if creds.CallbackURL != "" {
		return creds.CallbackURL, nil
	}
	return s.appBaseURL + "/subscription", nil
}

// AddInterval advances a start date by one billing interval using Go's
// calendar-add semantics.
func AddInterval(start time.Time, interval string) time.Time {
	if interval == model.PlanIntervalYear {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// captureMetadata extracts the raw capture id/status/payment source. A
// failure here is logged but never aborts the flow; the payment row is still
// written with an empty metadata object.
func captureMetadata(capture *paypal.CaptureResult) datatypes.JSON {
	metadata := map[string]interface{}{
		"id":     capture.ID,
		"status": capture.Status,
	}
	if len(capture.PaymentSource) > 0 {
		metadata["payment_source"] = json.RawMessage(capture.PaymentSource)
	} else {
		metadata["payment_source"] = nil
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("[PayPal] Could not extract capture metadata: %v", err)
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(data)
}
