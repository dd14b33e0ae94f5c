package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"hopelog_backend/internal/model"
	"hopelog_backend/pkg/database"
	"hopelog_backend/pkg/email"
	"hopelog_backend/pkg/featurelimit"
)

func InitSubscriptionExpiryCron() {
	c := cron.New()

	_, err := c.AddFunc("0 9 * * *", func() {
		checkExpiringSubscriptions(database.DB)
		expireLapsedSubscriptions(database.DB)
	})

	if err != nil {
		log.Printf("Could not initialize subscription expiry cron: %v", err)
		return
	}

	c.Start()
}

func checkExpiringSubscriptions(db *gorm.DB) {
	log.Println("Checking for expiring subscriptions...")

	warningDays := []int{7, 3}

	for _, days := range warningDays {
		var subs []model.Subscription
		dayStart := time.Now().AddDate(0, 0, days).Truncate(24 * time.Hour)
		dayEnd := dayStart.AddDate(0, 0, 1)

		err := db.Where("end_date >= ? AND end_date < ? AND status = ?",
			dayStart, dayEnd, model.SubscriptionStatusActive).
			Preload("User").
			Preload("Plan").
			Find(&subs).Error

		if err != nil {
			log.Printf("Error fetching expiring subscriptions: %v", err)
			continue
		}

		log.Printf("Found %d subscriptions expiring in %d days", len(subs), days)

		for _, sub := range subs {
			if email.GlobalEmailService == nil {
				continue
			}

			err := email.GlobalEmailService.SendSubscriptionExpiryWarning(
				sub.User.Email,
				sub.User.GetFullName(),
				sub.Plan.DisplayName,
				sub.EndDate,
				days,
			)
			if err != nil {
				log.Printf("Error sending expiry warning to %s: %v", sub.User.Email, err)
			} else {
				log.Printf("Sent expiry warning to %s for subscription expiring in %d days", sub.User.Email, days)
			}
		}
	}
}

// expireLapsedSubscriptions reconciles subscriptions past their end date: the
// owning user loses pro entitlements, and active rows are marked expired.
// Cancelled rows keep their status so history shows the user cancelled.
func expireLapsedSubscriptions(db *gorm.DB) {
	log.Println("Expiring lapsed subscriptions...")

	// Cancelled subscriptions keep entitlements until the period ends, so
	// they lapse here too.
	var subs []model.Subscription
	err := db.Where("end_date < ? AND status IN ?", time.Now(),
		[]string{model.SubscriptionStatusActive, model.SubscriptionStatusCancelled}).
		Find(&subs).Error
	if err != nil {
		log.Printf("Error fetching lapsed subscriptions: %v", err)
		return
	}

	for _, sub := range subs {
		if sub.Status == model.SubscriptionStatusActive {
			if err := db.Model(&sub).Update("status", model.SubscriptionStatusExpired).Error; err != nil {
				log.Printf("Error expiring subscription %d: %v", sub.ID, err)
				continue
			}
		}

		downgrade := map[string]interface{}{
			"subscription_tier":   featurelimit.FreeTier,
			"subscription_status": model.SubscriptionStatusExpired,
		}
		err := db.Model(&model.User{}).
			Where("id = ? AND (subscription_expires_at IS NULL OR subscription_expires_at < ?)", sub.UserID, time.Now()).
			Updates(downgrade).Error
		if err != nil {
			log.Printf("Error downgrading user %d: %v", sub.UserID, err)
			continue
		}

		log.Printf("Subscription %d expired, user %d downgraded", sub.ID, sub.UserID)
	}
}
