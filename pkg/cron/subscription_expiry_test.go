package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hopelog_backend/internal/model"
	"hopelog_backend/internal/testutil"
)

func seedLapsedSubscription(t *testing.T, tx *gorm.DB, email, status string) (model.User, model.Subscription) {
	t.Helper()

	expiresAt := time.Now().AddDate(0, 0, -2)
	user := model.User{
		Email:                 email,
		Username:              email,
		Password:              "hashed",
		SubscriptionTier:      "pro",
		SubscriptionStatus:    status,
		SubscriptionExpiresAt: &expiresAt,
	}
	require.NoError(t, tx.Create(&user).Error)

	plan := model.SubscriptionPlan{Name: "pro-" + email, DisplayName: "Pro", Price: 9.99, Interval: model.PlanIntervalMonth, IsActive: true}
	require.NoError(t, tx.Create(&plan).Error)

	sub := model.Subscription{
		UserID:    user.ID,
		PlanID:    plan.ID,
		Status:    status,
		StartDate: time.Now().AddDate(0, -1, -2),
		EndDate:   expiresAt,
	}
	require.NoError(t, tx.Create(&sub).Error)
	return user, sub
}

func TestExpireLapsedSubscriptionsDowngradesUsers(t *testing.T) {
	tx := testutil.OpenDB(t)

	user, sub := seedLapsedSubscription(t, tx, "lapsed@example.test", model.SubscriptionStatusActive)

	expireLapsedSubscriptions(tx)

	var updated model.Subscription
	require.NoError(t, tx.First(&updated, sub.ID).Error)
	assert.Equal(t, model.SubscriptionStatusExpired, updated.Status)

	var downgraded model.User
	require.NoError(t, tx.First(&downgraded, user.ID).Error)
	assert.Equal(t, "free", downgraded.SubscriptionTier)
	assert.Equal(t, model.SubscriptionStatusExpired, downgraded.SubscriptionStatus)
}

func TestExpireLapsedSubscriptionsKeepsCancelledStatus(t *testing.T) {
	tx := testutil.OpenDB(t)

	user, sub := seedLapsedSubscription(t, tx, "cancelled@example.test", model.SubscriptionStatusCancelled)

	expireLapsedSubscriptions(tx)

	// The row keeps its cancelled status for history, but the user still
	// loses pro entitlements.
	var updated model.Subscription
	require.NoError(t, tx.First(&updated, sub.ID).Error)
	assert.Equal(t, model.SubscriptionStatusCancelled, updated.Status)

	var downgraded model.User
	require.NoError(t, tx.First(&downgraded, user.ID).Error)
	assert.Equal(t, "free", downgraded.SubscriptionTier)
}

func TestExpireLapsedSubscriptionsIgnoresCurrentOnes(t *testing.T) {
	tx := testutil.OpenDB(t)

	expiresAt := time.Now().AddDate(0, 0, 10)
	user := model.User{
		Email:                 "current@example.test",
		Username:              "current@example.test",
		Password:              "hashed",
		SubscriptionTier:      "pro",
		SubscriptionStatus:    model.SubscriptionStatusActive,
		SubscriptionExpiresAt: &expiresAt,
	}
	require.NoError(t, tx.Create(&user).Error)

	plan := model.SubscriptionPlan{Name: "pro-current", DisplayName: "Pro", Price: 9.99, Interval: model.PlanIntervalMonth, IsActive: true}
	require.NoError(t, tx.Create(&plan).Error)

	sub := model.Subscription{
		UserID:    user.ID,
		PlanID:    plan.ID,
		Status:    model.SubscriptionStatusActive,
		StartDate: time.Now(),
		EndDate:   expiresAt,
	}
	require.NoError(t, tx.Create(&sub).Error)

	expireLapsedSubscriptions(tx)

	var updated model.Subscription
	require.NoError(t, tx.First(&updated, sub.ID).Error)
	assert.Equal(t, model.SubscriptionStatusActive, updated.Status)

	var untouched model.User
	require.NoError(t, tx.First(&untouched, user.ID).Error)
	assert.Equal(t, "pro", untouched.SubscriptionTier)
}
