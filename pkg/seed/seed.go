package seed

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hopelog_backend/internal/model"
	"hopelog_backend/pkg/featurelimit"
)

func intPtr(v int) *int { return &v }

func SeedSubscriptionPlans(db *gorm.DB) {
	plans := []model.SubscriptionPlan{
		{
			Name:        "free",
			DisplayName: "Free",
			Description: "Get started with journaling",
			Price:       0,
			Interval:    model.PlanIntervalMonth,
			Features:    datatypes.JSON([]byte(`["20 journal entries","3 goals","10 AI responses per day"]`)),
			IsActive:    true,
		},
		{
			Name:        "pro",
			DisplayName: "Pro Monthly",
			Description: "Unlimited journaling with AI insights",
			Price:       9.99,
			Interval:    model.PlanIntervalMonth,
			Features:    datatypes.JSON([]byte(`["Unlimited journal entries","Unlimited goals","Unlimited AI responses","Insights","Custom prompts","Weekly digest","Export","Community"]`)),
			IsActive:    true,
		},
		{
			Name:        "pro_yearly",
			DisplayName: "Pro Yearly",
			Description: "Everything in Pro, two months free",
			Price:       99.99,
			Interval:    model.PlanIntervalYear,
			Features:    datatypes.JSON([]byte(`["Unlimited journal entries","Unlimited goals","Unlimited AI responses","Insights","Custom prompts","Weekly digest","Export","Community"]`)),
			IsActive:    true,
		},
	}

	for _, plan := range plans {
		result := db.FirstOrCreate(&plan, model.SubscriptionPlan{Name: plan.Name})
		if result.Error != nil {
			log.Printf("Error creating plan %s: %v", plan.Name, result.Error)
		}
	}

	log.Println("Subscription plans seeded successfully!")
}

func SeedFeatureLimits(db *gorm.DB) {
	limits := []model.FeatureLimit{
		{
			SubscriptionTier:  featurelimit.FreeTier,
			MaxJournalEntries: intPtr(20),
			MaxGoals:          intPtr(3),
			AIResponsesPerDay: intPtr(10),
		},
		{
			SubscriptionTier:    featurelimit.ProTier,
			InsightsAccess:      true,
			CustomPromptsAccess: true,
			WeeklyDigestAccess:  true,
			ExportAccess:        true,
			CommunityAccess:     true,
		},
	}

	for _, limit := range limits {
		result := db.FirstOrCreate(&limit, model.FeatureLimit{SubscriptionTier: limit.SubscriptionTier})
		if result.Error != nil {
			log.Printf("Error creating feature limits for %s: %v", limit.SubscriptionTier, result.Error)
		}
	}

	log.Println("Feature limits seeded successfully!")
}

// SeedAdminUser creates the bootstrap admin so the PayPal settings endpoints
// are usable on a fresh database.
func SeedAdminUser(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@hopelog.ai"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin user seed")
		return
	}

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing admin password: %v", err)
		return
	}

	admin := model.User{
		Email:    email,
		Username: "admin",
		Password: string(hashedPassword),
		IsAdmin:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Error creating admin user: %v", err)
		return
	}

	log.Printf("Admin user %s seeded successfully!", email)
}
