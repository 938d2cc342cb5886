package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shydevcorp/codejeet/internal/storage/models"
	"github.com/shydevcorp/codejeet/pkg/logger"
)

// QuestionData is the parsed form of one CSV row.
type QuestionData struct {
	Slug           string
	Title          string
	Difficulty     string
	AcceptanceRate float64
	Link           string
	IsPremium      bool
}

// Store is the write surface the loader needs. All upserts are idempotent so
// reruns over the same data directory converge.
type Store interface {
	UpsertCompany(ctx context.Context, name string) (uint, error)
	UpsertQuestion(ctx context.Context, q QuestionData) (uint, error)
	UpsertTopics(ctx context.Context, names []string) (map[string]uint, error)
	LinkQuestionTopics(ctx context.Context, questionID uint, topicIDs []uint) error
	UpsertCompanyQuestion(ctx context.Context, companyID, questionID uint, timeframe string, frequency float64) error
}

type Stats struct {
	Companies int
	Files     int
	Rows      int
	Skipped   int
}

// Loader bulk-loads the provider CSV dump into Postgres. The directory is
// laid out as <company>/<timeframe>.csv with the header
// Difficulty,Title,Frequency %,Acceptance %,Link,Topics.
type Loader struct {
	store Store
}

func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

func (l *Loader) LoadDir(ctx context.Context, dir string) (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, fmt.Errorf("failed to read data dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		companyName := entry.Name()

		companyID, err := l.store.UpsertCompany(ctx, companyName)
		if err != nil {
			return stats, fmt.Errorf("failed to upsert company %q: %w", companyName, err)
		}
		stats.Companies++

		companyDir := filepath.Join(dir, companyName)
		files, err := os.ReadDir(companyDir)
		if err != nil {
			return stats, fmt.Errorf("failed to read company dir %q: %w", companyName, err)
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(strings.ToLower(file.Name()), ".csv") {
				continue
			}

			timeframe := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
			if !models.ValidTimeframe(timeframe) {
				logger.Warn("Skipping file with unknown timeframe",
					zap.String("company", companyName),
					zap.String("file", file.Name()),
				)
				stats.Skipped++
				continue
			}

			loaded, skipped, err := l.loadFile(ctx, companyID, timeframe, filepath.Join(companyDir, file.Name()))
			if err != nil {
				return stats, fmt.Errorf("failed to load %s/%s: %w", companyName, file.Name(), err)
			}
			stats.Files++
			stats.Rows += loaded
			stats.Skipped += skipped
		}
	}

	logger.Info("Data directory loaded",
		zap.Int("companies", stats.Companies),
		zap.Int("files", stats.Files),
		zap.Int("rows", stats.Rows),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

func (l *Loader) loadFile(ctx context.Context, companyID uint, timeframe, path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read header: %w", err)
	}

	col := indexColumns(header)
	loaded, skipped := 0, 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("Skipping malformed row", zap.String("file", path), zap.Error(err))
			skipped++
			continue
		}

		row, frequency, topics, err := parseRow(record, col)
		if err != nil {
			logger.Warn("Skipping row", zap.String("file", path), zap.Error(err))
			skipped++
			continue
		}

		questionID, err := l.store.UpsertQuestion(ctx, row)
		if err != nil {
			return loaded, skipped, err
		}

		if len(topics) > 0 {
			topicIDs, err := l.store.UpsertTopics(ctx, topics)
			if err != nil {
				return loaded, skipped, err
			}
			ids := make([]uint, 0, len(topics))
			for _, name := range topics {
				ids = append(ids, topicIDs[name])
			}
			if err := l.store.LinkQuestionTopics(ctx, questionID, ids); err != nil {
				return loaded, skipped, err
			}
		}

		if err := l.store.UpsertCompanyQuestion(ctx, companyID, questionID, timeframe, frequency); err != nil {
			return loaded, skipped, err
		}
		loaded++
	}

	return loaded, skipped, nil
}

type columns struct {
	difficulty, title, frequency, acceptance, link, topics int
}

func indexColumns(header []string) columns {
	col := columns{difficulty: -1, title: -1, frequency: -1, acceptance: -1, link: -1, topics: -1}
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Difficulty":
			col.difficulty = i
		case "Title":
			col.title = i
		case "Frequency %":
			col.frequency = i
		case "Acceptance %":
			col.acceptance = i
		case "Link":
			col.link = i
		case "Topics":
			col.topics = i
		}
	}
	return col
}

func parseRow(record []string, col columns) (QuestionData, float64, []string, error) {
	get := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	title := get(col.title)
	link := get(col.link)
	if title == "" || link == "" {
		return QuestionData{}, 0, nil, fmt.Errorf("missing title or link")
	}

	slug := SlugFromLink(link)
	if slug == "" {
		return QuestionData{}, 0, nil, fmt.Errorf("cannot derive slug from link %q", link)
	}

	frequency, err := parsePercent(get(col.frequency))
	if err != nil {
		return QuestionData{}, 0, nil, fmt.Errorf("bad frequency: %w", err)
	}

	acceptance, err := parsePercent(get(col.acceptance))
	if err != nil {
		return QuestionData{}, 0, nil, fmt.Errorf("bad acceptance: %w", err)
	}

	var topics []string
	for _, t := range strings.Split(get(col.topics), ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}

	q := QuestionData{
		Slug:           slug,
		Title:          title,
		Difficulty:     models.NormalizeDifficulty(get(col.difficulty)),
		AcceptanceRate: acceptance / 100,
		Link:           link,
		IsPremium:      strings.Contains(link, "premium"),
	}
	return q, frequency, topics, nil
}

// parsePercent accepts "56.4%", "56.4" or "56.4%;" style values.
func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.ReplaceAll(s, ";", ""), "%"))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// SlugFromLink extracts the problem slug from a leetcode-style URL, e.g.
// https://leetcode.com/problems/two-sum/ -> two-sum.
func SlugFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if part == "problems" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
