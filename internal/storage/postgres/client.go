package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shydevcorp/codejeet/internal/progress"
	"github.com/shydevcorp/codejeet/internal/questions"
	"github.com/shydevcorp/codejeet/internal/storage/models"
	"github.com/shydevcorp/codejeet/pkg/logger"
)

// Client wraps the gorm connection to the hosted Postgres instance.
type Client struct {
	db *gorm.DB
}

func NewClient(dsn string) (*Client, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying connection: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("Postgres client initialized")

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *Client) AutoMigrate() error {
	err := c.db.AutoMigrate(
		&models.Company{},
		&models.Topic{},
		&models.Question{},
		&models.CompanyQuestion{},
		&models.QuestionTopic{},
		&models.UserProgress{},
		&models.SolutionRequest{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Info("Postgres schema migrated")
	return nil
}

// QuestionRows returns the full CompanyQuestion join across all timeframes.
// Filtering happens in the aggregator; the result set is small enough that
// pushing predicates down has not been worth it.
func (c *Client) QuestionRows(ctx context.Context) ([]questions.Row, error) {
	var rows []questions.Row

	err := c.db.WithContext(ctx).
		Model(&models.CompanyQuestion{}).
		Select(`companies.name AS company,
			questions.id AS question_id,
			questions.slug AS slug,
			questions.title AS title,
			questions.difficulty AS difficulty,
			questions.acceptance_rate AS acceptance_rate,
			questions.link AS link,
			questions.is_premium AS is_premium,
			company_questions.timeframe AS timeframe,
			company_questions.frequency AS frequency`).
		Joins("INNER JOIN companies ON companies.id = company_questions.company_id").
		Joins("INNER JOIN questions ON questions.id = company_questions.question_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list question rows: %w", err)
	}

	return rows, nil
}

// TopicsByQuestion batch-fetches topic names for the given question ids in a
// single round trip.
func (c *Client) TopicsByQuestion(ctx context.Context, questionIDs []int) (map[int][]string, error) {
	byQuestion := make(map[int][]string, len(questionIDs))
	if len(questionIDs) == 0 {
		return byQuestion, nil
	}

	var rows []struct {
		QuestionID int
		TopicName  string
	}
	err := c.db.WithContext(ctx).
		Model(&models.QuestionTopic{}).
		Select("question_topics.question_id AS question_id, topics.name AS topic_name").
		Joins("INNER JOIN topics ON topics.id = question_topics.topic_id").
		Where("question_topics.question_id IN ?", questionIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list question topics: %w", err)
	}

	for _, r := range rows {
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r.TopicName)
	}
	return byQuestion, nil
}

func (c *Client) CompanyNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.db.WithContext(ctx).
		Model(&models.Company{}).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return names, nil
}

func (c *Client) TopicNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.db.WithContext(ctx).
		Model(&models.Topic{}).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return names, nil
}

// CompletedSlugs returns the slugs of questions the user marked completed.
func (c *Client) CompletedSlugs(ctx context.Context, userID string) ([]string, error) {
	var slugs []string
	err := c.db.WithContext(ctx).
		Model(&models.UserProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Pluck("question_slug", &slugs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed slugs: %w", err)
	}
	return slugs, nil
}

var progressConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_slug"}},
	DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "updated_at"}),
}

func (c *Client) UpsertProgress(ctx context.Context, userID string, entry progress.Entry) error {
	row := models.UserProgress{
		UserID:       userID,
		QuestionSlug: entry.QuestionSlug,
		Completed:    entry.Completed,
		CompletedAt:  entry.CompletedAt,
	}

	err := c.db.WithContext(ctx).
		Clauses(progressConflict).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}

	logger.Debug("Progress upserted",
		zap.String("user_id", userID),
		zap.String("slug", entry.QuestionSlug),
		zap.Bool("completed", entry.Completed),
	)
	return nil
}

func (c *Client) BatchUpsertProgress(ctx context.Context, userID string, entries []progress.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]models.UserProgress, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, models.UserProgress{
			UserID:       userID,
			QuestionSlug: entry.QuestionSlug,
			Completed:    entry.Completed,
			CompletedAt:  entry.CompletedAt,
		})
	}

	err := c.db.WithContext(ctx).
		Clauses(progressConflict).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to batch upsert progress: %w", err)
	}
	return nil
}

func (c *Client) InsertSolutionRequest(ctx context.Context, req models.SolutionRequest) error {
	if err := c.db.WithContext(ctx).Create(&req).Error; err != nil {
		return fmt.Errorf("failed to insert solution request: %w", err)
	}
	return nil
}
