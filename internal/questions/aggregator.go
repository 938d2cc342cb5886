package questions

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shydevcorp/codejeet/internal/storage/models"
	"github.com/shydevcorp/codejeet/pkg/logger"
)

// Row is one record of the CompanyQuestion ⋈ Company ⋈ Question join, before
// any filtering or dedup.
type Row struct {
	Company        string
	QuestionID     int
	Slug           string
	Title          string
	Difficulty     string
	AcceptanceRate float64
	Link           string
	IsPremium      bool
	Timeframe      string
	Frequency      float64
}

// Store is the read-side storage surface the aggregator needs.
type Store interface {
	QuestionRows(ctx context.Context) ([]Row, error)
	TopicsByQuestion(ctx context.Context, questionIDs []int) (map[int][]string, error)
	CompanyNames(ctx context.Context) ([]string, error)
	TopicNames(ctx context.Context) ([]string, error)
}

// Filters narrows the aggregated view. Every field is optional; a zero field
// imposes no constraint. Filters combine with AND, except Topics which
// OR-matches against a question's topic set.
type Filters struct {
	Companies    []string
	Difficulties []string
	Topics       []string
	Timeframes   []string
	IsPremium    *bool
	Search       string
	Limit        int
	Offset       int
}

// Question is the aggregator output record. It carries both machine fields
// and pre-formatted display fields; the duplicated casing satisfies two
// historical consumer shapes and both must be preserved.
type Question struct {
	ID                int      `json:"id"`
	Slug              string   `json:"slug"`
	Title             string   `json:"title"`
	Difficulty        string   `json:"difficulty"`
	DifficultyDisplay string   `json:"Difficulty"`
	AcceptanceRate    float64  `json:"acceptance_rate"`
	Link              string   `json:"link"`
	Company           string   `json:"company"`
	IsPremium         bool     `json:"isPremium"`
	Frequency         float64  `json:"frequency"`
	Timeframe         string   `json:"timeframe"`
	Topics            []string `json:"topics"`
	AcceptanceDisplay string   `json:"Acceptance %"`
	FrequencyDisplay  string   `json:"Frequency %"`
	TopicsDisplay     string   `json:"Topics"`
	SlugDisplay       string   `json:"ID"`
	TitleDisplay      string   `json:"Title"`
	URL               string   `json:"URL"`
}

type Result struct {
	Questions  []Question `json:"questions"`
	Companies  []string   `json:"companies"`
	TotalCount int        `json:"totalCount"`
}

// Aggregator produces the deduplicated, filtered company/question view.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

func emptyResult() Result {
	return Result{Questions: []Question{}, Companies: []string{}}
}

// List runs the full pipeline: row filters, topic attachment, transform,
// timeframe dedup, topic and premium filters, then the pagination window.
// Storage failures come back as an empty result; listing never errors so the
// dashboard can always render.
func (a *Aggregator) List(ctx context.Context, f Filters) Result {
	rows, err := a.store.QuestionRows(ctx)
	if err != nil {
		logger.Error("Failed to fetch question rows", zap.Error(err))
		return emptyResult()
	}

	rows = filterRows(rows, f)

	ids := distinctQuestionIDs(rows)
	topicsByQuestion, err := a.store.TopicsByQuestion(ctx, ids)
	if err != nil {
		logger.Error("Failed to fetch question topics", zap.Error(err))
		return emptyResult()
	}

	records := make([]Question, 0, len(rows))
	for _, row := range rows {
		records = append(records, transform(row, topicsByQuestion[row.QuestionID]))
	}

	records = dedupeByTimeframe(records)

	if len(f.Topics) > 0 {
		filtered := records[:0]
		for _, q := range records {
			if matchesAnyTopic(q.Topics, f.Topics) {
				filtered = append(filtered, q)
			}
		}
		records = filtered
	}

	if f.IsPremium != nil {
		filtered := records[:0]
		for _, q := range records {
			if q.IsPremium == *f.IsPremium {
				filtered = append(filtered, q)
			}
		}
		records = filtered
	}

	companies := distinctCompanies(records)
	total := len(records)

	if f.Limit > 0 {
		start := f.Offset
		if start > len(records) {
			start = len(records)
		}
		end := start + f.Limit
		if end > len(records) {
			end = len(records)
		}
		records = records[start:end]
	}

	if records == nil {
		records = []Question{}
	}

	return Result{
		Questions:  records,
		Companies:  companies,
		TotalCount: total,
	}
}

// Companies returns all company names sorted by the store. Fail-soft.
func (a *Aggregator) Companies(ctx context.Context) []string {
	names, err := a.store.CompanyNames(ctx)
	if err != nil {
		logger.Error("Failed to fetch companies", zap.Error(err))
		return []string{}
	}
	if names == nil {
		names = []string{}
	}
	return names
}

// Topics returns all topic names sorted by the store. Fail-soft.
func (a *Aggregator) Topics(ctx context.Context) []string {
	names, err := a.store.TopicNames(ctx)
	if err != nil {
		logger.Error("Failed to fetch topics", zap.Error(err))
		return []string{}
	}
	if names == nil {
		names = []string{}
	}
	return names
}

func filterRows(rows []Row, f Filters) []Row {
	companies := toSet(f.Companies)
	difficulties := toSet(f.Difficulties)
	timeframes := toSet(f.Timeframes)
	search := strings.ToLower(f.Search)

	out := rows[:0]
	for _, r := range rows {
		if len(companies) > 0 && !companies[r.Company] {
			continue
		}
		if len(difficulties) > 0 && !difficulties[models.NormalizeDifficulty(r.Difficulty)] {
			continue
		}
		if len(timeframes) > 0 && !timeframes[r.Timeframe] {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Title), search) &&
			!strings.Contains(strings.ToLower(r.Company), search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func transform(r Row, topics []string) Question {
	if topics == nil {
		topics = []string{}
	}
	difficulty := models.NormalizeDifficulty(r.Difficulty)
	return Question{
		ID:                r.QuestionID,
		Slug:              r.Slug,
		Title:             r.Title,
		Difficulty:        difficulty,
		DifficultyDisplay: difficulty,
		AcceptanceRate:    r.AcceptanceRate,
		Link:              r.Link,
		Company:           r.Company,
		IsPremium:         r.IsPremium,
		Frequency:         r.Frequency,
		Timeframe:         r.Timeframe,
		Topics:            topics,
		AcceptanceDisplay: fmt.Sprintf("%.1f%%", r.AcceptanceRate*100),
		FrequencyDisplay:  fmt.Sprintf("%.1f%%", r.Frequency),
		TopicsDisplay:     strings.Join(topics, ", "),
		SlugDisplay:       r.Slug,
		TitleDisplay:      r.Title,
		URL:               fmt.Sprintf("/problems/%s/", r.Slug),
	}
}

// dedupeByTimeframe keeps exactly one record per (company, question id),
// choosing the record with the lowest timeframe precedence rank. First-seen
// order of pairs is preserved so pagination stays stable.
func dedupeByTimeframe(records []Question) []Question {
	index := make(map[string]int, len(records))
	out := make([]Question, 0, len(records))

	for _, q := range records {
		key := q.Company + "|" + fmt.Sprint(q.ID)
		at, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, q)
			continue
		}
		if models.TimeframeRank(q.Timeframe) < models.TimeframeRank(out[at].Timeframe) {
			out[at] = q
		}
	}
	return out
}

func matchesAnyTopic(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func distinctQuestionIDs(rows []Row) []int {
	seen := make(map[int]bool, len(rows))
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		if !seen[r.QuestionID] {
			seen[r.QuestionID] = true
			ids = append(ids, r.QuestionID)
		}
	}
	return ids
}

func distinctCompanies(records []Question) []string {
	seen := make(map[string]bool, len(records))
	names := make([]string, 0, len(records))
	for _, q := range records {
		if !seen[q.Company] {
			seen[q.Company] = true
			names = append(names, q.Company)
		}
	}
	return names
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
