package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/shydevcorp/codejeet/internal/ingest"
	"github.com/shydevcorp/codejeet/internal/storage/models"
)

// Bulk-load upserts used by cmd/ingest. Reference data is insert-or-update,
// never deleted; the API treats it as read-only.

func (c *Client) UpsertCompany(ctx context.Context, name string) (uint, error) {
	row := models.Company{Name: name}
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("failed to upsert company: %w", err)
	}
	if row.ID == 0 {
		if err := c.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
			return 0, fmt.Errorf("failed to reload company: %w", err)
		}
	}
	return row.ID, nil
}

func (c *Client) UpsertQuestion(ctx context.Context, q ingest.QuestionData) (uint, error) {
	row := models.Question{
		Slug:           q.Slug,
		Title:          q.Title,
		Difficulty:     q.Difficulty,
		AcceptanceRate: q.AcceptanceRate,
		Link:           q.Link,
		IsPremium:      q.IsPremium,
	}
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "difficulty", "acceptance_rate", "link", "is_premium", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("failed to upsert question: %w", err)
	}
	if row.ID == 0 {
		if err := c.db.WithContext(ctx).Where("slug = ?", q.Slug).First(&row).Error; err != nil {
			return 0, fmt.Errorf("failed to reload question: %w", err)
		}
	}
	return row.ID, nil
}

func (c *Client) UpsertTopics(ctx context.Context, names []string) (map[string]uint, error) {
	ids := make(map[string]uint, len(names))
	for _, name := range names {
		row := models.Topic{Name: name}
		err := c.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
			}).
			Create(&row).Error
		if err != nil {
			return nil, fmt.Errorf("failed to upsert topic %q: %w", name, err)
		}
		if row.ID == 0 {
			if err := c.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
				return nil, fmt.Errorf("failed to reload topic %q: %w", name, err)
			}
		}
		ids[name] = row.ID
	}
	return ids, nil
}

func (c *Client) LinkQuestionTopics(ctx context.Context, questionID uint, topicIDs []uint) error {
	if len(topicIDs) == 0 {
		return nil
	}
	rows := make([]models.QuestionTopic, 0, len(topicIDs))
	for _, topicID := range topicIDs {
		rows = append(rows, models.QuestionTopic{QuestionID: questionID, TopicID: topicID})
	}
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to link question topics: %w", err)
	}
	return nil
}

func (c *Client) UpsertCompanyQuestion(ctx context.Context, companyID, questionID uint, timeframe string, frequency float64) error {
	row := models.CompanyQuestion{
		CompanyID:  companyID,
		QuestionID: questionID,
		Timeframe:  timeframe,
		Frequency:  frequency,
	}
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "question_id"}, {Name: "timeframe"}},
			DoUpdates: clause.AssignmentColumns([]string{"frequency", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert company question: %w", err)
	}
	return nil
}
