package models

import (
	"strings"
	"time"
)

type Difficulty = string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// NormalizeDifficulty maps any casing of easy/medium/hard onto the canonical
// enum. Unknown values collapse to Easy, matching historical data loads.
func NormalizeDifficulty(s string) Difficulty {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MEDIUM":
		return DifficultyMedium
	case "HARD":
		return DifficultyHard
	default:
		return DifficultyEasy
	}
}

type Timeframe = string

const (
	Timeframe30Days   Timeframe = "30_days"
	Timeframe3Months  Timeframe = "3_months"
	Timeframe6Months  Timeframe = "6_months"
	TimeframeOver6M   Timeframe = "more_than_6m"
	TimeframeAll      Timeframe = "all"
	timeframeUnranked           = int(^uint(0) >> 1)
)

// Timeframes lists all buckets in precedence order, index 0 winning dedup.
var Timeframes = []Timeframe{
	Timeframe30Days,
	Timeframe3Months,
	Timeframe6Months,
	TimeframeOver6M,
	TimeframeAll,
}

// TimeframeRank returns the precedence index of tf; values outside the known
// enum rank last so they displace nothing during dedup.
func TimeframeRank(tf Timeframe) int {
	for i, known := range Timeframes {
		if tf == known {
			return i
		}
	}
	return timeframeUnranked
}

// ValidTimeframe reports whether tf is one of the five known buckets.
func ValidTimeframe(tf Timeframe) bool {
	return TimeframeRank(tf) != timeframeUnranked
}

type Company struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Topic struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Question struct {
	ID             uint   `gorm:"primaryKey"`
	Slug           string `gorm:"uniqueIndex;not null"`
	Title          string `gorm:"not null"`
	Difficulty     string `gorm:"not null"`
	AcceptanceRate float64 `gorm:"type:decimal(5,4);not null"`
	Link           string `gorm:"not null"`
	IsPremium      bool   `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CompanyQuestion is one observation of a question at a company within a
// timeframe bucket. Up to five rows may exist per (company, question) pair.
type CompanyQuestion struct {
	CompanyID  uint    `gorm:"primaryKey;autoIncrement:false"`
	QuestionID uint    `gorm:"primaryKey;autoIncrement:false"`
	Timeframe  string  `gorm:"primaryKey"`
	Frequency  float64 `gorm:"type:decimal(10,4);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Company  Company  `gorm:"foreignKey:CompanyID"`
	Question Question `gorm:"foreignKey:QuestionID"`
}

type QuestionTopic struct {
	QuestionID uint `gorm:"primaryKey;autoIncrement:false"`
	TopicID    uint `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt  time.Time

	Question Question `gorm:"foreignKey:QuestionID"`
	Topic    Topic    `gorm:"foreignKey:TopicID"`
}

// UserProgress is the only durable state this service writes. Rows are
// upserted by (user_id, question_slug) and never deleted.
type UserProgress struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       string `gorm:"not null;uniqueIndex:idx_user_question"`
	QuestionSlug string `gorm:"not null;uniqueIndex:idx_user_question"`
	Completed    bool   `gorm:"default:false"`
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SolutionRequest logs one AI-solution generation round trip.
type SolutionRequest struct {
	ID               string `gorm:"primaryKey"`
	QuestionID       int    `gorm:"index"`
	Model            string
	LatencyMS        int64
	PromptTokens     int
	CompletionTokens int
	CreatedAt        time.Time
}
