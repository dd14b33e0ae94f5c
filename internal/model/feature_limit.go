package model

import (
	"time"

	"gorm.io/gorm"
)

// FeatureLimit holds the per-tier ceilings used for plan comparison and
// feature gating. A nil numeric limit means unlimited.
type FeatureLimit struct {
	gorm.Model
	SubscriptionTier string `json:"subscription_tier" gorm:"uniqueIndex;not null"`

	MaxJournalEntries *int `json:"max_journal_entries"`
	MaxGoals          *int `json:"max_goals"`
	AIResponsesPerDay *int `json:"ai_responses_per_day"`

	InsightsAccess      bool `json:"insights_access" gorm:"default:false"`
	CustomPromptsAccess bool `json:"custom_prompts_access" gorm:"default:false"`
	WeeklyDigestAccess  bool `json:"weekly_digest_access" gorm:"default:false"`
	ExportAccess        bool `json:"export_access" gorm:"default:false"`
	CommunityAccess     bool `json:"community_access" gorm:"default:false"`
}

// UserUsage tracks consumption against FeatureLimit ceilings.
type UserUsage struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"uniqueIndex;not null"`

	JournalEntriesCount  int       `json:"journal_entries_count" gorm:"default:0"`
	GoalsCount           int       `json:"goals_count" gorm:"default:0"`
	AIResponsesCount     int       `json:"ai_responses_count" gorm:"default:0"`
	AIResponsesResetDate time.Time `json:"ai_responses_reset_date"`
	LastActive           time.Time `json:"last_active"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
