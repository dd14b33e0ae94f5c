package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hopelog_backend/internal/model"
	"hopelog_backend/internal/testutil"
	"hopelog_backend/pkg/paypal"
)

// fakeGateway stands in for the PayPal client so the checkout flow can run
// against a real database without leaving the process.
type fakeGateway struct {
	creds      paypal.Credentials
	order      *paypal.Order
	capture    *paypal.CaptureResult
	captureErr error

	createCalls  int
	captureCalls int
	lastCreate   *paypal.CreateOrderRequest
}

func (f *fakeGateway) Credentials() (paypal.Credentials, error) {
	return f.creds, nil
}

func (f *fakeGateway) CreateOrder(ctx context.Context, req *paypal.CreateOrderRequest, requestID string) (*paypal.Order, error) {
	f.createCalls++
	f.lastCreate = req
	return f.order, nil
}

func (f *fakeGateway) CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureResult, error) {
	f.captureCalls++
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return f.capture, nil
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		creds: paypal.Credentials{ClientID: "id", ClientSecret: "secret", Mode: "sandbox"},
		order: &paypal.Order{
			ID:     "ORDER-1",
			Status: "CREATED",
			Links:  []paypal.Link{{Rel: "approve", Href: "https://paypal.example.test/approve", Method: "GET"}},
		},
	}
}

func newCheckoutService(tx *gorm.DB, gateway *fakeGateway) *SubscriptionService {
	return &SubscriptionService{
		db:         tx,
		paypal:     gateway,
		appBaseURL: "https://app.example.test",
		now:        func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func captureResponse(t *testing.T, raw string) *paypal.CaptureResult {
	t.Helper()
	var result paypal.CaptureResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	return &result
}

const completedCapture = `{
	"id": "ORDER-1",
	"status": "COMPLETED",
	"payment_source": {"paypal": {"email_address": "buyer@example.test"}},
	"purchase_units": [{
		"reference_id": "plan_1_user_1",
		"payments": {"captures": [{
			"id": "CAP-1",
			"status": "COMPLETED",
			"amount": {"currency_code": "USD", "value": "9.99"}
		}]}
	}]
}`

func seedUser(t *testing.T, tx *gorm.DB, email string) model.User {
	t.Helper()
	user := model.User{Email: email, Username: email, Password: "hashed"}
	require.NoError(t, tx.Create(&user).Error)
	return user
}

func seedPlan(t *testing.T, tx *gorm.DB, name string) model.SubscriptionPlan {
	t.Helper()
	plan := model.SubscriptionPlan{
		Name:        name,
		DisplayName: "Pro",
		Price:       9.99,
		Interval:    model.PlanIntervalMonth,
		IsActive:    true,
	}
	require.NoError(t, tx.Create(&plan).Error)
	return plan
}

func seedCheckout(t *testing.T, tx *gorm.DB, orderID string, userID, planID uint) model.CheckoutOrder {
	t.Helper()
	checkout := model.CheckoutOrder{
		OrderID: orderID,
		UserID:  userID,
		PlanID:  planID,
		Status:  model.CheckoutOrderStatusCreated,
	}
	require.NoError(t, tx.Create(&checkout).Error)
	return checkout
}

func TestCreateOrderUnknownPlanSkipsPayPal(t *testing.T) {
	tx := testutil.OpenDB(t)
	gateway := newFakeGateway()
	svc := newCheckoutService(tx, gateway)

	_, err := svc.CreateOrder(context.Background(), "no-such-plan", 1)
	require.ErrorIs(t, err, ErrPlanNotFound)
	assert.Zero(t, gateway.createCalls)
}

func TestCreateOrderRecordsCheckoutMapping(t *testing.T) {
	tx := testutil.OpenDB(t)
	gateway := newFakeGateway()
	svc := newCheckoutService(tx, gateway)

	user := seedUser(t, tx, "buyer@example.test")
	plan := seedPlan(t, tx, "pro")

	result, err := svc.CreateOrder(context.Background(), "pro", user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", result.OrderID)

	require.NotNil(t, gateway.lastCreate)
	require.NotNil(t, gateway.lastCreate.ApplicationContext)
	assert.Contains(t, gateway.lastCreate.ApplicationContext.ReturnURL, "planName=pro")

	var checkout model.CheckoutOrder
	require.NoError(t, tx.Where("order_id = ?", "ORDER-1").First(&checkout).Error)
	assert.Equal(t, user.ID, checkout.UserID)
	assert.Equal(t, plan.ID, checkout.PlanID)
	assert.Equal(t, model.CheckoutOrderStatusCreated, checkout.Status)
}

func TestCaptureOrderUnknownOrder(t *testing.T) {
	tx := testutil.OpenDB(t)
	gateway := newFakeGateway()
	svc := newCheckoutService(tx, gateway)

	user := seedUser(t, tx, "buyer@example.test")

	_, err := svc.CaptureOrder(context.Background(), "NO-SUCH-ORDER", user.ID, "pro")
	require.ErrorIs(t, err, ErrOrderNotFound)
	assert.Zero(t, gateway.captureCalls)
}

func TestCaptureOrderRejectsForeignOrder(t *testing.T) {
	tx := testutil.OpenDB(t)
	gateway := newFakeGateway()
	svc := newCheckoutService(tx, gateway)

	owner := seedUser(t, tx, "owner@example.test")
	other := seedUser(t, tx, "other@example.test")
	plan := seedPlan(t, tx, "pro")
	seedCheckout(t, tx, "ORDER-1", owner.ID, plan.ID)

	_, err := svc.CaptureOrder(context.Background(), "ORDER-1", other.ID, "pro")
	require.ErrorIs(t, err, ErrOrderNotFound)
	assert.Zero(t, gateway.captureCalls)
}

func TestCaptureOrderRejectsPlanMismatch(t *testing.T) {
	tx := testutil.OpenDB(t)
	gateway := newFakeGateway()
	svc := newCheckoutService(tx, gateway)

	user := seedUser(t, tx, "buyer@example.test")
	plan := seedPlan(t, tx, "pro")
	seedCheckout(t, tx, "ORDER-1", user.ID, plan.ID)

	_, err := svc.CaptureOrder(context.Background(), "ORDER-1", user.ID, "pro_yearly")
	require.ErrorIs(t, err, ErrPlanMismatch)
	assert.Zero(t, gateway.captureCalls)
}

func TestCaptureOrderPersistsEverything(t *testing.T) {
	tx := testutil.OpenDB(t)
	gateway := newFakeGateway()
	gateway.capture = captureResponse(t, completedCapture)
	svc := newCheckoutService(tx, gateway)

	user := seedUser(t, tx, "buyer@example.test")
	plan := seedPlan(t, tx, "pro")
	seedCheckout(t, tx, "ORDER-1", user.ID, plan.ID)

	result, err := svc.CaptureOrder(context.Background(), "ORDER-1", user.ID, "pro")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusActive, result.Status)
	assert.Equal(t, result.StartDate.AddDate(0, 1, 0), result.EndDate)

	var subscription model.Subscription
	require.NoError(t, tx.Where("pay_pal_order_id = ?", "ORDER-1").First(&subscription).Error)
	assert.Equal(t, user.ID, subscription.UserID)
	assert.Equal(t, model.SubscriptionStatusActive, subscription.Status)

	var payment model.Payment
	require.NoError(t, tx.Where("payment_id = ?", "CAP-1").First(&payment).Error)
	require.NotNil(t, payment.SubscriptionID)
	assert.Equal(t, subscription.ID, *payment.SubscriptionID)
	assert.InDelta(t, 9.99, payment.Amount, 0.001)
	assert.Equal(t, model.PaymentStatusCompleted, payment.Status)

	var updated model.User
	require.NoError(t, tx.First(&updated, user.ID).Error)
	assert.Equal(t, "pro", updated.SubscriptionTier)
	assert.Equal(t, model.SubscriptionStatusActive, updated.SubscriptionStatus)
	require.NotNil(t, updated.SubscriptionExpiresAt)

	var checkout model.CheckoutOrder
	require.NoError(t, tx.Where("order_id = ?", "ORDER-1").First(&checkout).Error)
	assert.Equal(t, model.CheckoutOrderStatusCaptured, checkout.Status)
}

func TestCaptureOrderReplayReturnsOriginal(t *testing.T) {
	tx := testutil.OpenDB(t)
	gateway := newFakeGateway()
	gateway.capture = captureResponse(t, completedCapture)
	svc := newCheckoutService(tx, gateway)

	user := seedUser(t, tx, "buyer@example.test")
	plan := seedPlan(t, tx, "pro")
	seedCheckout(t, tx, "ORDER-1", user.ID, plan.ID)

	first, err := svc.CaptureOrder(context.Background(), "ORDER-1", user.ID, "pro")
	require.NoError(t, err)

	second, err := svc.CaptureOrder(context.Background(), "ORDER-1", user.ID, "pro")
	require.NoError(t, err)
	assert.Equal(t, first.SubscriptionID, second.SubscriptionID)
	assert.Equal(t, 1, gateway.captureCalls)

	var paymentCount int64
	require.NoError(t, tx.Model(&model.Payment{}).Where("user_id = ?", user.ID).Count(&paymentCount).Error)
	assert.EqualValues(t, 1, paymentCount)

	var subscriptionCount int64
	require.NoError(t, tx.Model(&model.Subscription{}).Where("user_id = ?", user.ID).Count(&subscriptionCount).Error)
	assert.EqualValues(t, 1, subscriptionCount)
}

func TestCaptureOrderMalformedResponseWritesNothing(t *testing.T) {
	tx := testutil.OpenDB(t)
	gateway := newFakeGateway()
	// COMPLETED at the top level but no capture node underneath.
	gateway.capture = captureResponse(t, `{"id": "ORDER-1", "status": "COMPLETED", "purchase_units": [{"reference_id": "plan_1_user_1"}]}`)
	svc := newCheckoutService(tx, gateway)

	user := seedUser(t, tx, "buyer@example.test")
	plan := seedPlan(t, tx, "pro")
	seedCheckout(t, tx, "ORDER-1", user.ID, plan.ID)

	_, err := svc.CaptureOrder(context.Background(), "ORDER-1", user.ID, "pro")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing captures")

	var subscriptionCount int64
	require.NoError(t, tx.Model(&model.Subscription{}).Where("user_id = ?", user.ID).Count(&subscriptionCount).Error)
	assert.Zero(t, subscriptionCount)

	var paymentCount int64
	require.NoError(t, tx.Model(&model.Payment{}).Where("user_id = ?", user.ID).Count(&paymentCount).Error)
	assert.Zero(t, paymentCount)

	var checkout model.CheckoutOrder
	require.NoError(t, tx.Where("order_id = ?", "ORDER-1").First(&checkout).Error)
	assert.Equal(t, model.CheckoutOrderStatusCreated, checkout.Status)

	var untouched model.User
	require.NoError(t, tx.First(&untouched, user.ID).Error)
	assert.Equal(t, "free", untouched.SubscriptionTier)
}
