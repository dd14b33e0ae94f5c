package featurelimit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"hopelog_backend/internal/model"
)

const (
	FreeTier = "free"
	ProTier  = "pro"
)

// Service resolves per-tier feature limits and tracks per-user usage
// against them.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// TierForPlan maps a plan name to the feature-limit tier it unlocks.
func TierForPlan(planName string) string {
	if strings.Contains(planName, "pro") {
		return ProTier
	}
	return FreeTier
}

// LimitsForTier returns the feature-limit row for a tier, or nil when the
// tier has no row (treated as unlimited by callers).
func (s *Service) LimitsForTier(tier string) (*model.FeatureLimit, error) {
	var limits model.FeatureLimit
	err := s.db.Where("subscription_tier = ?", tier).First(&limits).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &limits, nil
}

// LimitsForUser resolves a user's limits from their denormalized tier.
func (s *Service) LimitsForUser(userID uint) (*model.FeatureLimit, error) {
	var user model.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user %d not found: %w", userID, err)
	}

	tier := user.SubscriptionTier
	if tier == "" {
		tier = FreeTier
	}
	return s.LimitsForTier(tier)
}

// Usage returns the user's usage row, creating it on first touch. The AI
// response counter resets when a new day starts.
func (s *Service) Usage(userID uint) (*model.UserUsage, error) {
	now := s.now()

	var usage model.UserUsage
	err := s.db.Where("user_id = ?", userID).First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		usage = model.UserUsage{
			UserID:               userID,
			AIResponsesResetDate: now,
			LastActive:           now,
		}
		if err := s.db.Create(&usage).Error; err != nil {
			return nil, err
		}
		return &usage, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"last_active": now}
	if !sameDay(usage.AIResponsesResetDate, now) {
		usage.AIResponsesCount = 0
		usage.AIResponsesResetDate = now
		updates["ai_responses_count"] = 0
		updates["ai_responses_reset_date"] = now
	}
	if err := s.db.Model(&usage).Updates(updates).Error; err != nil {
		return nil, err
	}
	usage.LastActive = now
	return &usage, nil
}

// CheckResult reports whether an action is allowed and why not.
type CheckResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanUseAIResponse checks the user's daily AI quota.
func (s *Service) CanUseAIResponse(userID uint) (CheckResult, error) {
	limits, err := s.LimitsForUser(userID)
	if err != nil {
		return CheckResult{}, err
	}
	usage, err := s.Usage(userID)
	if err != nil {
		return CheckResult{}, err
	}

	if limits == nil || limits.AIResponsesPerDay == nil {
		return CheckResult{Allowed: true}, nil
	}
	if usage.AIResponsesCount >= *limits.AIResponsesPerDay {
		return CheckResult{
			Allowed: false,
			Reason:  fmt.Sprintf("You've reached your daily limit of %d AI responses. Please upgrade to Pro for a higher limit.", *limits.AIResponsesPerDay),
		}, nil
	}
	return CheckResult{Allowed: true}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
