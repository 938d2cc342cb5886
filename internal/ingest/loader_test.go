package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	companies        map[string]uint
	questions        map[string]QuestionData
	questionIDs      map[string]uint
	topics           map[string]uint
	links            map[uint][]uint
	companyQuestions []companyQuestionRow
	nextID           uint
}

type companyQuestionRow struct {
	companyID  uint
	questionID uint
	timeframe  string
	frequency  float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		companies:   make(map[string]uint),
		questions:   make(map[string]QuestionData),
		questionIDs: make(map[string]uint),
		topics:      make(map[string]uint),
		links:       make(map[uint][]uint),
	}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) UpsertCompany(ctx context.Context, name string) (uint, error) {
	if id, ok := f.companies[name]; ok {
		return id, nil
	}
	id := f.id()
	f.companies[name] = id
	return id, nil
}

func (f *fakeStore) UpsertQuestion(ctx context.Context, q QuestionData) (uint, error) {
	f.questions[q.Slug] = q
	if id, ok := f.questionIDs[q.Slug]; ok {
		return id, nil
	}
	id := f.id()
	f.questionIDs[q.Slug] = id
	return id, nil
}

func (f *fakeStore) UpsertTopics(ctx context.Context, names []string) (map[string]uint, error) {
	out := make(map[string]uint, len(names))
	for _, name := range names {
		if _, ok := f.topics[name]; !ok {
			f.topics[name] = f.id()
		}
		out[name] = f.topics[name]
	}
	return out, nil
}

func (f *fakeStore) LinkQuestionTopics(ctx context.Context, questionID uint, topicIDs []uint) error {
	f.links[questionID] = append(f.links[questionID], topicIDs...)
	return nil
}

func (f *fakeStore) UpsertCompanyQuestion(ctx context.Context, companyID, questionID uint, timeframe string, frequency float64) error {
	f.companyQuestions = append(f.companyQuestions, companyQuestionRow{companyID, questionID, timeframe, frequency})
	return nil
}

const header = "Difficulty,Title,Frequency %,Acceptance %,Link,Topics\n"

func writeCSV(t *testing.T, root, company, file, body string) {
	t.Helper()
	dir := filepath.Join(root, company)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0644))
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeCSV(t, root, "Google", "30_days.csv", header+
		"EASY,Two Sum,72.5%,55.4%,https://leetcode.com/problems/two-sum/,\"Array, Hash Table\"\n")
	writeCSV(t, root, "Google", "all.csv", header+
		"HARD,LRU Cache,12.0%,41.2%,https://leetcode.com/problems/lru-cache/,Design\n")

	store := newFakeStore()
	loader := NewLoader(store)

	stats, err := loader.LoadDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Companies)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 2, stats.Rows)
	assert.Zero(t, stats.Skipped)

	q := store.questions["two-sum"]
	assert.Equal(t, "Two Sum", q.Title)
	assert.Equal(t, "Easy", q.Difficulty)
	assert.InDelta(t, 0.554, q.AcceptanceRate, 1e-9)

	require.Len(t, store.companyQuestions, 2)
	assert.Equal(t, "30_days", store.companyQuestions[0].timeframe)
	assert.InDelta(t, 72.5, store.companyQuestions[0].frequency, 1e-9)

	assert.Len(t, store.links[store.questionIDs["two-sum"]], 2)
	assert.Contains(t, store.topics, "Hash Table")
}

func TestLoadDirSkipsUnknownTimeframe(t *testing.T) {
	root := t.TempDir()
	writeCSV(t, root, "Google", "weekly.csv", header+
		"EASY,Two Sum,72.5%,55.4%,https://leetcode.com/problems/two-sum/,Array\n")

	store := newFakeStore()
	loader := NewLoader(store)

	stats, err := loader.LoadDir(context.Background(), root)
	require.NoError(t, err)

	assert.Zero(t, stats.Files)
	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, store.companyQuestions)
}

func TestLoadDirSkipsBadRows(t *testing.T) {
	root := t.TempDir()
	writeCSV(t, root, "Google", "all.csv", header+
		"EASY,,72.5%,55.4%,https://leetcode.com/problems/two-sum/,Array\n"+
		"EASY,Two Sum,not-a-number,55.4%,https://leetcode.com/problems/two-sum/,Array\n"+
		"EASY,Two Sum,72.5%,55.4%,https://leetcode.com/problems/two-sum/,Array\n")

	store := newFakeStore()
	loader := NewLoader(store)

	stats, err := loader.LoadDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Rows)
	assert.Equal(t, 2, stats.Skipped)
}

func TestSlugFromLink(t *testing.T) {
	assert.Equal(t, "two-sum", SlugFromLink("https://leetcode.com/problems/two-sum/"))
	assert.Equal(t, "two-sum", SlugFromLink("https://leetcode.com/problems/two-sum/description/"))
	assert.Empty(t, SlugFromLink("https://leetcode.com/contest/"))
}

func TestParsePercent(t *testing.T) {
	for input, want := range map[string]float64{
		"72.5%":  72.5,
		"72.5":   72.5,
		"72.5%;": 72.5,
		"":       0,
	} {
		got, err := parsePercent(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}
